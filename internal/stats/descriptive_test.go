package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4, 5}); got != 3 {
		t.Errorf("Expected mean 3, got %g", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("Expected 0 for empty input, got %g", got)
	}
}

func TestVariance_SampleConvention(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	// Sum of squared deviations is 32; sample variance divides by n-1.
	if got := Variance(values); !almostEqual(got, 32.0/7.0, 1e-12) {
		t.Errorf("Expected sample variance %g, got %g", 32.0/7.0, got)
	}
	if got := Variance([]float64{5}); got != 0 {
		t.Errorf("Expected 0 variance for a single value, got %g", got)
	}
	if got := StdDev(values); !almostEqual(got, math.Sqrt(32.0/7.0), 1e-12) {
		t.Errorf("StdDev disagrees with Variance: %g", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	values := []float64{90, 100, 110}
	want := StdDev(values) / 100
	if got := CoefficientOfVariation(values); !almostEqual(got, want, 1e-12) {
		t.Errorf("Expected CV %g, got %g", want, got)
	}

	if got := CoefficientOfVariation([]float64{-5, 5}); got != 0 {
		t.Errorf("Expected CV 0 when the mean is 0, got %g", got)
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1} // unsorted on purpose

	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{10, 1.9},
		{25, 3.25},
		{50, 5.5},
		{75, 7.75},
		{90, 9.1},
		{99, 9.91},
		{100, 10},
	}
	for _, tc := range cases {
		if got := Percentile(values, tc.p); !almostEqual(got, tc.want, 1e-12) {
			t.Errorf("P%g: expected %g, got %g", tc.p, tc.want, got)
		}
	}
}

func TestPercentile_Degenerate(t *testing.T) {
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("Expected 0 for empty input, got %g", got)
	}
	for _, p := range []float64{0, 50, 95, 100} {
		if got := Percentile([]float64{42}, p); got != 42 {
			t.Errorf("P%g of a single value should be that value, got %g", p, got)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := Median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("Expected median 2, got %g", got)
	}
	if got := Median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("Expected median 2.5, got %g", got)
	}
}

func TestPearson(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	up := []float64{2, 4, 6, 8, 10}
	down := []float64{10, 8, 6, 4, 2}

	if got := Pearson(a, up); !almostEqual(got, 1, 1e-12) {
		t.Errorf("Expected correlation 1 for a perfect linear relation, got %g", got)
	}
	if got := Pearson(a, down); !almostEqual(got, -1, 1e-12) {
		t.Errorf("Expected correlation -1 for a perfect inverse relation, got %g", got)
	}
	if got := Pearson(a, []float64{5, 5, 5, 5, 5}); got != 0 {
		t.Errorf("Expected 0 for a constant series, got %g", got)
	}
	if got := Pearson(a, []float64{1, 2}); got != 0 {
		t.Errorf("Expected 0 for length mismatch, got %g", got)
	}
}
