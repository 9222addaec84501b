package risk

// DistributionType identifies one of the supported probability distributions.
type DistributionType string

const (
	DistNormal     DistributionType = "normal"
	DistTriangular DistributionType = "triangular"
	DistUniform    DistributionType = "uniform"
	DistBeta       DistributionType = "beta"
	DistLognormal  DistributionType = "lognormal"
)

// SupportedDistributions lists every distribution the sampler can realize.
var SupportedDistributions = []DistributionType{
	DistNormal, DistTriangular, DistUniform, DistBeta, DistLognormal,
}

// Category classifies the source of a risk.
type Category string

const (
	CategoryTechnical  Category = "technical"
	CategorySchedule   Category = "schedule"
	CategoryCost       Category = "cost"
	CategoryResource   Category = "resource"
	CategoryExternal   Category = "external"
	CategoryQuality    Category = "quality"
	CategoryRegulatory Category = "regulatory"
)

// SupportedCategories lists the valid risk categories.
var SupportedCategories = []Category{
	CategoryTechnical, CategorySchedule, CategoryCost, CategoryResource,
	CategoryExternal, CategoryQuality, CategoryRegulatory,
}

// ImpactType gates which outcome dimensions a risk contributes to.
type ImpactType string

const (
	ImpactCost     ImpactType = "cost"
	ImpactSchedule ImpactType = "schedule"
	ImpactBoth     ImpactType = "both"
)

// SupportedImpactTypes lists the valid impact types.
var SupportedImpactTypes = []ImpactType{ImpactCost, ImpactSchedule, ImpactBoth}

// DistributionParams holds the parameter set for a risk's distribution.
// Which fields are meaningful depends on the distribution type; validation
// enforces consistency before any simulation runs.
type DistributionParams struct {
	// normal
	Mean   float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	StdDev float64 `json:"std_dev,omitempty" yaml:"std_dev,omitempty"`
	// triangular / uniform
	Min  float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Mode float64 `json:"mode,omitempty" yaml:"mode,omitempty"`
	Max  float64 `json:"max,omitempty" yaml:"max,omitempty"`
	// beta
	Alpha float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	// lognormal
	Mu    float64 `json:"mu,omitempty" yaml:"mu,omitempty"`
	Sigma float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
}

// Mitigation describes an intervention that reduces a risk's realized impact.
type Mitigation struct {
	Name               string  `json:"name" yaml:"name"`
	Cost               float64 `json:"cost" yaml:"cost"`
	Effectiveness      float64 `json:"effectiveness" yaml:"effectiveness"` // fraction in [0,1]
	ImplementationDays int     `json:"implementation_days,omitempty" yaml:"implementation_days,omitempty"`
	Active             bool    `json:"active,omitempty" yaml:"active,omitempty"`
}

// Risk is a named source of potential cost/schedule deviation. Risks are
// immutable value objects once validated; scenario application produces
// modified copies rather than mutating in place.
type Risk struct {
	ID             string             `json:"id" yaml:"id"`
	Name           string             `json:"name" yaml:"name"`
	Category       Category           `json:"category" yaml:"category"`
	ImpactType     ImpactType         `json:"impact_type" yaml:"impact_type"`
	Distribution   DistributionType   `json:"distribution_type" yaml:"distribution_type"`
	Params         DistributionParams `json:"distribution_parameters" yaml:"distribution_parameters"`
	BaselineImpact float64            `json:"baseline_impact" yaml:"baseline_impact"`

	// ScheduleFactor converts a sampled cost-unit value into schedule days for
	// impact_type "both". Zero means the engine default applies.
	ScheduleFactor float64 `json:"schedule_factor,omitempty" yaml:"schedule_factor,omitempty"`

	CorrelationDependencies []string     `json:"correlation_dependencies,omitempty" yaml:"correlation_dependencies,omitempty"`
	Mitigations             []Mitigation `json:"mitigation_strategies,omitempty" yaml:"mitigation_strategies,omitempty"`
}

// ActiveMitigationFactor returns the combined multiplicative reduction from
// all active mitigations: product of (1 - effectiveness).
func (r *Risk) ActiveMitigationFactor() float64 {
	factor := 1.0
	for _, m := range r.Mitigations {
		if m.Active {
			factor *= 1.0 - m.Effectiveness
		}
	}
	return factor
}

// CorrelationEntry declares the correlation coefficient between two risks.
// Entries are symmetric by convention; declaring both directions is allowed
// as long as the coefficients agree.
type CorrelationEntry struct {
	RiskA       string  `json:"risk_a" yaml:"risk_a"`
	RiskB       string  `json:"risk_b" yaml:"risk_b"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
}

// SimulationRequest is the immutable input bundle for one simulation run.
type SimulationRequest struct {
	Risks        []Risk             `json:"risks" yaml:"risks"`
	Correlations []CorrelationEntry `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Iterations   int                `json:"iterations" yaml:"iterations"`
	Seed         *int64             `json:"seed,omitempty" yaml:"seed,omitempty"`

	// No-risk reference points the outcome distributions are read against.
	BaselineCost         float64 `json:"baseline_cost,omitempty" yaml:"baseline_cost,omitempty"`
	BaselineScheduleDays float64 `json:"baseline_schedule_days,omitempty" yaml:"baseline_schedule_days,omitempty"`
}

// RiskIndex maps risk IDs to their position in the request's risk list.
func (req *SimulationRequest) RiskIndex() map[string]int {
	idx := make(map[string]int, len(req.Risks))
	for i, r := range req.Risks {
		idx[r.ID] = i
	}
	return idx
}
