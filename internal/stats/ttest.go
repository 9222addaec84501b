package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WelchResult holds the outcome of a two-sample Welch's t-test computed from
// summary statistics.
type WelchResult struct {
	T      float64 `json:"t_statistic"`
	DF     float64 `json:"degrees_of_freedom"`
	PValue float64 `json:"p_value"`
}

// WelchTTest performs a two-sided Welch's t-test on two samples described by
// their mean, sample standard deviation and size. Welch's variant does not
// assume equal variances, which is the safe choice for simulation outcome
// distributions with different mitigation structures.
func WelchTTest(meanA, sdA float64, nA int, meanB, sdB float64, nB int) WelchResult {
	if nA < 2 || nB < 2 {
		return WelchResult{PValue: 1}
	}

	vA := sdA * sdA / float64(nA)
	vB := sdB * sdB / float64(nB)
	se := vA + vB

	if se == 0 {
		// Both distributions collapsed to constants.
		if meanA == meanB {
			return WelchResult{PValue: 1}
		}
		return WelchResult{T: math.Inf(sign(meanB - meanA)), PValue: 0}
	}

	t := (meanB - meanA) / math.Sqrt(se)

	// Welch-Satterthwaite degrees of freedom.
	df := se * se / (vA*vA/float64(nA-1) + vB*vB/float64(nB-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	return WelchResult{T: t, DF: df, PValue: p}
}

// CohensD computes the standardized effect size between two samples using the
// pooled sample standard deviation. Positive d means sample B has the higher
// mean.
func CohensD(meanA, sdA float64, nA int, meanB, sdB float64, nB int) float64 {
	if nA < 2 || nB < 2 {
		return 0
	}
	pooledVar := (float64(nA-1)*sdA*sdA + float64(nB-1)*sdB*sdB) / float64(nA+nB-2)
	if pooledVar == 0 {
		if meanA == meanB {
			return 0
		}
		return math.Inf(sign(meanB - meanA))
	}
	return (meanB - meanA) / math.Sqrt(pooledVar)
}

// InterpretEffectSize buckets |d| into the standard qualitative thresholds.
func InterpretEffectSize(d float64) string {
	abs := math.Abs(d)
	switch {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
