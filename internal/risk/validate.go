package risk

import (
	"fmt"
	"math"
	"time"
)

// Limits bounds what a single simulation request may ask for. The shipped
// defaults live in internal/config; tests and relaxed profiles may construct
// their own.
type Limits struct {
	MinIterations    int           `json:"min_iterations"`
	MaxIterations    int           `json:"max_iterations"`
	MaxRisks         int           `json:"max_risks"`
	MaxExecutionTime time.Duration `json:"max_execution_time"`
}

// Severity distinguishes fatal validation problems from fidelity warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one structured validation finding: which field, on which risk,
// what is wrong, and the offending value.
type Issue struct {
	Field    string   `json:"field"`
	RiskID   string   `json:"risk_id,omitempty"`
	Message  string   `json:"message"`
	Value    any      `json:"value,omitempty"`
	Severity Severity `json:"severity"`
}

// Issues is the full finding list for one request.
type Issues []Issue

// Errors returns only the fatal findings.
func (is Issues) Errors() Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Warnings returns only the non-fatal findings.
func (is Issues) Warnings() Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// HasErrors reports whether any finding is fatal.
func (is Issues) HasErrors() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidationError carries the exhaustive finding list for a rejected request.
type ValidationError struct {
	Issues Issues
}

func (e *ValidationError) Error() string {
	errs := e.Issues.Errors()
	if len(errs) == 0 {
		return "validation failed"
	}
	first := errs[0]
	loc := first.Field
	if first.RiskID != "" {
		loc = first.RiskID + "." + loc
	}
	if len(errs) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", loc, first.Message)
	}
	return fmt.Sprintf("validation failed: %d problems, first: %s: %s", len(errs), loc, first.Message)
}

// ValidateRequest checks a simulation request exhaustively and returns every
// finding, not just the first. Fatal findings mean the request must not run;
// warnings mean it may run with reduced statistical fidelity.
func ValidateRequest(req *SimulationRequest, limits Limits) Issues {
	var issues Issues

	// 1. Risk list shape
	if len(req.Risks) == 0 {
		issues = append(issues, Issue{
			Field: "risks", Message: "at least one risk is required", Severity: SeverityError,
		})
	}
	if limits.MaxRisks > 0 && len(req.Risks) > limits.MaxRisks {
		issues = append(issues, Issue{
			Field:   "risks",
			Message: fmt.Sprintf("risk count %d exceeds maximum %d", len(req.Risks), limits.MaxRisks),
			Value:   len(req.Risks), Severity: SeverityError,
		})
	}

	seen := make(map[string]bool, len(req.Risks))
	known := make(map[string]bool, len(req.Risks))
	for _, r := range req.Risks {
		if r.ID != "" {
			if seen[r.ID] {
				issues = append(issues, Issue{
					Field: "id", RiskID: r.ID, Message: "duplicate risk ID", Severity: SeverityError,
				})
			}
			seen[r.ID] = true
			known[r.ID] = true
		}
	}

	// 2. Per-risk checks
	for _, r := range req.Risks {
		issues = append(issues, validateRisk(&r, known)...)
	}

	// 3. Correlation entries
	issues = append(issues, validateCorrelations(req.Correlations, known)...)

	// 4. Iteration bounds
	if req.Iterations < limits.MinIterations {
		issues = append(issues, Issue{
			Field:   "iterations",
			Message: fmt.Sprintf("iteration count %d is below the minimum %d required for statistical stability", req.Iterations, limits.MinIterations),
			Value:   req.Iterations, Severity: SeverityError,
		})
	}
	if limits.MaxIterations > 0 && req.Iterations > limits.MaxIterations {
		issues = append(issues, Issue{
			Field:   "iterations",
			Message: fmt.Sprintf("iteration count %d exceeds the maximum %d", req.Iterations, limits.MaxIterations),
			Value:   req.Iterations, Severity: SeverityError,
		})
	}

	// 5. Baselines
	if req.BaselineCost < 0 {
		issues = append(issues, Issue{
			Field: "baseline_cost", Message: "baseline cost must not be negative",
			Value: req.BaselineCost, Severity: SeverityError,
		})
	}
	if req.BaselineScheduleDays < 0 {
		issues = append(issues, Issue{
			Field: "baseline_schedule_days", Message: "baseline schedule must not be negative",
			Value: req.BaselineScheduleDays, Severity: SeverityError,
		})
	}

	return issues
}

func validateRisk(r *Risk, known map[string]bool) Issues {
	var issues Issues

	add := func(field, msg string, value any, sev Severity) {
		issues = append(issues, Issue{Field: field, RiskID: r.ID, Message: msg, Value: value, Severity: sev})
	}

	if r.ID == "" {
		issues = append(issues, Issue{Field: "id", Message: "risk ID is required", Severity: SeverityError})
	}
	if r.Name == "" {
		add("name", "risk name is required", nil, SeverityError)
	}
	if !containsCategory(r.Category) {
		add("category", fmt.Sprintf("unsupported category %q", r.Category), string(r.Category), SeverityError)
	}
	if !containsImpactType(r.ImpactType) {
		add("impact_type", fmt.Sprintf("unsupported impact type %q", r.ImpactType), string(r.ImpactType), SeverityError)
	}

	issues = append(issues, validateParams(r)...)

	if r.BaselineImpact < 0 {
		add("baseline_impact", "baseline impact must not be negative", r.BaselineImpact, SeverityError)
	}
	if r.ScheduleFactor < 0 {
		add("schedule_factor", "schedule factor must not be negative", r.ScheduleFactor, SeverityError)
	}

	for _, m := range r.Mitigations {
		if m.Effectiveness < 0 || m.Effectiveness > 1 {
			add("mitigation_strategies.effectiveness",
				fmt.Sprintf("mitigation %q effectiveness must be in [0,1]", m.Name),
				m.Effectiveness, SeverityError)
		}
		if m.Cost < 0 {
			add("mitigation_strategies.cost",
				fmt.Sprintf("mitigation %q cost must not be negative", m.Name),
				m.Cost, SeverityError)
		}
	}

	for _, dep := range r.CorrelationDependencies {
		if dep == r.ID {
			add("correlation_dependencies", "risk declares a correlation dependency on itself", dep, SeverityWarning)
		} else if !known[dep] {
			add("correlation_dependencies", fmt.Sprintf("unknown risk ID %q", dep), dep, SeverityError)
		}
	}

	return issues
}

// validateParams enforces internal consistency of the distribution parameter
// set. The sampling hot loop relies on these checks having run: samplers
// never re-validate.
func validateParams(r *Risk) Issues {
	var issues Issues
	p := r.Params

	add := func(field, msg string, value any) {
		issues = append(issues, Issue{
			Field: "distribution_parameters." + field, RiskID: r.ID,
			Message: msg, Value: value, Severity: SeverityError,
		})
	}

	switch r.Distribution {
	case DistNormal:
		if p.StdDev <= 0 {
			add("std_dev", "normal std_dev must be positive", p.StdDev)
		}
	case DistTriangular:
		if p.Min >= p.Max {
			add("max", "triangular requires min < max", p.Max)
		}
		if p.Mode < p.Min {
			add("mode", "triangular mode must not be below min", p.Mode)
		} else if p.Mode > p.Max {
			add("mode", "triangular mode must not exceed max", p.Mode)
		}
	case DistUniform:
		if p.Min >= p.Max {
			add("max", "uniform requires min < max", p.Max)
		}
	case DistBeta:
		if p.Alpha <= 0 {
			add("alpha", "beta alpha must be positive", p.Alpha)
		}
		if p.Beta <= 0 {
			add("beta", "beta beta must be positive", p.Beta)
		}
		if p.Scale <= 0 {
			add("scale", "beta scale must be positive", p.Scale)
		}
	case DistLognormal:
		if p.Sigma <= 0 {
			add("sigma", "lognormal sigma must be positive", p.Sigma)
		}
	default:
		issues = append(issues, Issue{
			Field: "distribution_type", RiskID: r.ID,
			Message:  fmt.Sprintf("unsupported distribution type %q", r.Distribution),
			Value:    string(r.Distribution),
			Severity: SeverityError,
		})
	}

	return issues
}

func validateCorrelations(entries []CorrelationEntry, known map[string]bool) Issues {
	var issues Issues
	declared := make(map[[2]string]float64)

	for _, e := range entries {
		field := fmt.Sprintf("correlations[%s,%s]", e.RiskA, e.RiskB)

		if e.RiskA == e.RiskB {
			issues = append(issues, Issue{
				Field: field, Message: "a risk's correlation with itself is implicitly 1 and must not be declared",
				Severity: SeverityError,
			})
			continue
		}
		for _, id := range []string{e.RiskA, e.RiskB} {
			if !known[id] {
				issues = append(issues, Issue{
					Field: field, Message: fmt.Sprintf("unknown risk ID %q", id),
					Value: id, Severity: SeverityError,
				})
			}
		}
		if e.Coefficient < -1 || e.Coefficient > 1 {
			issues = append(issues, Issue{
				Field: field, Message: "correlation coefficient must be in [-1,1]",
				Value: e.Coefficient, Severity: SeverityError,
			})
		}

		key := pairKey(e.RiskA, e.RiskB)
		if prev, ok := declared[key]; ok && math.Abs(prev-e.Coefficient) > 1e-9 {
			issues = append(issues, Issue{
				Field:   field,
				Message: fmt.Sprintf("contradictory coefficients declared for this pair (%g vs %g)", prev, e.Coefficient),
				Value:   e.Coefficient, Severity: SeverityError,
			})
		}
		declared[key] = e.Coefficient
	}

	return issues
}

func pairKey(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func containsCategory(c Category) bool {
	for _, s := range SupportedCategories {
		if s == c {
			return true
		}
	}
	return false
}

func containsImpactType(t ImpactType) bool {
	for _, s := range SupportedImpactTypes {
		if s == t {
			return true
		}
	}
	return false
}
