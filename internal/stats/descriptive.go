package stats

import (
	"math"
	"slices"
)

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the sample variance (n-1 denominator). All variance-based
// statistics in this module use the sample convention so that descriptive
// stats, confidence intervals and significance tests stay consistent.
func Variance(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(n-1)
}

// StdDev returns the sample standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// CoefficientOfVariation returns std/mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return StdDev(values) / mean
}

// Percentile computes the p-th percentile (p in [0,100]) of values using
// linear interpolation between ranks. The input does not need to be sorted.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)
	return PercentileSorted(sorted, p)
}

// PercentileSorted computes the p-th percentile of an already-sorted slice.
// Callers computing many percentiles over the same data should sort once and
// use this directly.
func PercentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	frac := pos - float64(lo)
	if hi >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Median returns the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Pearson calculates the Pearson correlation coefficient between two series
// of equal length. Returns 0 for degenerate input.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	n := float64(len(a))
	sumA, sumB := 0.0, 0.0
	sumA2, sumB2 := 0.0, 0.0
	sumAB := 0.0

	for i := range a {
		sumA += a[i]
		sumB += b[i]
		sumA2 += a[i] * a[i]
		sumB2 += b[i] * b[i]
		sumAB += a[i] * b[i]
	}

	num := (n * sumAB) - (sumA * sumB)
	den := math.Sqrt((n*sumA2 - sumA*sumA) * (n*sumB2 - sumB*sumB))

	if den == 0 {
		return 0
	}
	return num / den
}
