package simulation

import (
	"riskmc/internal/stats"
)

// DefaultAlpha is the significance level used when the caller does not
// configure one.
const DefaultAlpha = 0.05

// ScenarioResult pairs a scenario's identity with its analyzed simulation
// result.
type ScenarioResult struct {
	Name       string  `json:"name"`
	IsBaseline bool    `json:"is_baseline,omitempty"`
	Result     *Result `json:"result"`
}

// SignificanceTest is the outcome of a two-sample Welch's t-test between two
// scenarios' outcome distributions.
type SignificanceTest struct {
	TStatistic       float64 `json:"t_statistic"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	Significant      bool    `json:"significant"`
}

// MetricDelta compares one outcome dimension between two scenarios.
type MetricDelta struct {
	MeanDelta float64 `json:"mean_delta"`
	// PctChange is relative to scenario A's mean; 0 when A's mean is 0.
	PctChange float64          `json:"pct_change"`
	Test      SignificanceTest `json:"significance"`
	CohensD   float64          `json:"cohens_d"`
	// EffectSize buckets |d|: negligible, small, medium, large.
	EffectSize string `json:"effect_size"`
}

// Comparison is the pairwise comparison of two scenarios' results.
type Comparison struct {
	ScenarioA string      `json:"scenario_a"`
	ScenarioB string      `json:"scenario_b"`
	Alpha     float64     `json:"alpha"`
	Cost      MetricDelta `json:"cost"`
	Schedule  MetricDelta `json:"schedule"`
}

// Compare computes mean deltas, significance and effect size between two
// scenarios' outcome distributions. Differences are read as B relative to A,
// so with A as baseline a negative mean delta means scenario B improves on
// it.
func Compare(a, b ScenarioResult, alpha float64) Comparison {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return Comparison{
		ScenarioA: a.Name,
		ScenarioB: b.Name,
		Alpha:     alpha,
		Cost:      compareMetric(a.Result.Cost, a.Result.Iterations, b.Result.Cost, b.Result.Iterations, alpha),
		Schedule:  compareMetric(a.Result.Schedule, a.Result.Iterations, b.Result.Schedule, b.Result.Iterations, alpha),
	}
}

// CompareAll produces every pairwise comparison for two or more scenarios, in
// input order.
func CompareAll(results []ScenarioResult, alpha float64) []Comparison {
	var comparisons []Comparison
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			comparisons = append(comparisons, Compare(results[i], results[j], alpha))
		}
	}
	return comparisons
}

func compareMetric(a MetricSummary, nA int, b MetricSummary, nB int, alpha float64) MetricDelta {
	delta := MetricDelta{
		MeanDelta: b.Mean - a.Mean,
	}
	if a.Mean != 0 {
		delta.PctChange = (b.Mean - a.Mean) / a.Mean * 100
	}

	welch := stats.WelchTTest(a.Mean, a.StdDev, nA, b.Mean, b.StdDev, nB)
	delta.Test = SignificanceTest{
		TStatistic:       welch.T,
		DegreesOfFreedom: welch.DF,
		PValue:           welch.PValue,
		Significant:      welch.PValue < alpha,
	}

	delta.CohensD = stats.CohensD(a.Mean, a.StdDev, nA, b.Mean, b.StdDev, nB)
	delta.EffectSize = stats.InterpretEffectSize(delta.CohensD)

	return delta
}
