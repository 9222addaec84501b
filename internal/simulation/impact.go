package simulation

import "riskmc/internal/risk"

// defaultScheduleFactor converts sampled cost units into schedule days for
// impact_type "both" risks that do not declare their own factor.
const defaultScheduleFactor = 0.001

// RealizeImpact converts one sampled distribution value into the realized
// (cost, schedule) impact of a risk for one iteration.
//
// Sampled values are authored directly in impact units: cost currency for
// cost risks, days for schedule risks. Aggregation across risks is strictly
// additive; baseline_impact anchors authoring and reporting but is never
// multiplied into the realized value.
//
// Active mitigations reduce the impact linearly by their effectiveness;
// multiple active mitigations compound multiplicatively.
func RealizeImpact(r *risk.Risk, sampled float64) (cost, schedule float64) {
	effective := sampled * r.ActiveMitigationFactor()

	switch r.ImpactType {
	case risk.ImpactCost:
		return effective, 0
	case risk.ImpactSchedule:
		return 0, effective
	case risk.ImpactBoth:
		factor := r.ScheduleFactor
		if factor == 0 {
			factor = defaultScheduleFactor
		}
		return effective, effective * factor
	default:
		return 0, 0
	}
}
