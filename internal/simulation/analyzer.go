package simulation

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"riskmc/internal/stats"
)

// percentileLevels is the percentile table every result reports.
var percentileLevels = []float64{10, 25, 50, 75, 90, 95, 99}

// confidenceLevels are the central confidence intervals every result reports.
var confidenceLevels = []float64{0.80, 0.90, 0.95}

// topContributors caps the ranked contribution list; remaining risks are
// aggregated into a single "other" row.
const topContributors = 10

// Interval is a two-sided confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// MetricSummary is the full statistical description of one outcome dimension
// (cost or schedule). StdDev is the sample standard deviation (n-1), kept
// consistent with every other variance-based figure in the result.
type MetricSummary struct {
	Mean                   float64              `json:"mean"`
	Median                 float64              `json:"median"`
	StdDev                 float64              `json:"std_dev"`
	CoefficientOfVariation float64              `json:"coefficient_of_variation"`
	Min                    float64              `json:"min"`
	Max                    float64              `json:"max"`
	Percentiles            map[string]float64   `json:"percentiles"`
	ConfidenceIntervals    map[string]Interval  `json:"confidence_intervals"`
}

// RiskContribution attributes outcome variance to a single risk.
type RiskContribution struct {
	RiskID string `json:"risk_id"`
	Rank   int    `json:"rank"`

	// Variance of the risk's per-iteration contribution vector, expressed as
	// a percentage of total outcome variance. With correlated risks the
	// covariance terms are not attributed, so shares need not sum to 100.
	CostVarianceShare     float64 `json:"cost_variance_share"`
	ScheduleVarianceShare float64 `json:"schedule_variance_share"`

	MeanCost     float64 `json:"mean_cost"`
	MeanSchedule float64 `json:"mean_schedule"`
}

// Result is the immutable analysis of one completed run. It is created once
// per simulation and never mutated afterwards; comparisons and exports read
// from it.
type Result struct {
	Iterations int   `json:"iterations"`
	Seed       int64 `json:"seed"`

	Cost     MetricSummary `json:"cost"`
	Schedule MetricSummary `json:"schedule"`

	Contributions []RiskContribution `json:"risk_contributions"`
	Convergence   Convergence        `json:"convergence"`

	Elapsed  time.Duration `json:"elapsed_ns"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Analyze derives the summary statistics, percentile tables, confidence
// intervals and variance attribution for a completed run. Degenerate runs
// (one iteration, or identical outcomes) collapse percentiles to the single
// value with zero dispersion; nothing here divides by zero.
func Analyze(run *RunOutput) *Result {
	res := &Result{
		Iterations:  run.Iterations,
		Seed:        run.Seed,
		Cost:        summarize(run.Costs),
		Schedule:    summarize(run.Schedules),
		Convergence: run.Convergence,
		Elapsed:     run.Elapsed,
		Warnings:    run.Warnings,
	}
	res.Contributions = attributeVariance(run)
	return res
}

func summarize(values []float64) MetricSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)

	s := MetricSummary{
		Mean:                   stats.Mean(values),
		Median:                 stats.PercentileSorted(sorted, 50),
		StdDev:                 stats.StdDev(values),
		CoefficientOfVariation: stats.CoefficientOfVariation(values),
		Percentiles:            make(map[string]float64, len(percentileLevels)),
		ConfidenceIntervals:    make(map[string]Interval, len(confidenceLevels)),
	}
	if len(sorted) > 0 {
		s.Min = sorted[0]
		s.Max = sorted[len(sorted)-1]
	}

	for _, p := range percentileLevels {
		s.Percentiles[percentileKey(p)] = stats.PercentileSorted(sorted, p)
	}

	// The interval at level L spans [(1-L)/2, 1-(1-L)/2] of the distribution.
	for _, level := range confidenceLevels {
		tail := (1 - level) / 2 * 100
		s.ConfidenceIntervals[confidenceKey(level)] = Interval{
			Lower: stats.PercentileSorted(sorted, tail),
			Upper: stats.PercentileSorted(sorted, 100-tail),
		}
	}

	return s
}

func attributeVariance(run *RunOutput) []RiskContribution {
	totalCostVar := stats.Variance(run.Costs)
	totalSchedVar := stats.Variance(run.Schedules)

	contributions := make([]RiskContribution, 0, len(run.RiskIDs))
	for i, id := range run.RiskIDs {
		c := RiskContribution{
			RiskID:       id,
			MeanCost:     stats.Mean(run.CostByRisk[i]),
			MeanSchedule: stats.Mean(run.ScheduleByRisk[i]),
		}
		if totalCostVar > 0 {
			c.CostVarianceShare = stats.Variance(run.CostByRisk[i]) / totalCostVar * 100
		}
		if totalSchedVar > 0 {
			c.ScheduleVarianceShare = stats.Variance(run.ScheduleByRisk[i]) / totalSchedVar * 100
		}
		contributions = append(contributions, c)
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		if contributions[i].CostVarianceShare != contributions[j].CostVarianceShare {
			return contributions[i].CostVarianceShare > contributions[j].CostVarianceShare
		}
		return contributions[i].ScheduleVarianceShare > contributions[j].ScheduleVarianceShare
	})

	if len(contributions) > topContributors {
		other := RiskContribution{RiskID: "other"}
		for _, c := range contributions[topContributors:] {
			other.CostVarianceShare += c.CostVarianceShare
			other.ScheduleVarianceShare += c.ScheduleVarianceShare
			other.MeanCost += c.MeanCost
			other.MeanSchedule += c.MeanSchedule
		}
		contributions = append(contributions[:topContributors], other)
	}

	for i := range contributions {
		contributions[i].Rank = i + 1
	}

	return contributions
}

func percentileKey(p float64) string {
	return fmt.Sprintf("p%g", p)
}

func confidenceKey(level float64) string {
	return fmt.Sprintf("%g", level*100)
}
