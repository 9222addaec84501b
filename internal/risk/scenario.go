package risk

import "fmt"

// ParameterChange modifies one risk in a scenario: new distribution
// parameters, a new distribution type, and/or activation of a named
// mitigation.
type ParameterChange struct {
	RiskID             string              `json:"risk_id" yaml:"risk_id"`
	Distribution       *DistributionType   `json:"distribution_type,omitempty" yaml:"distribution_type,omitempty"`
	Params             *DistributionParams `json:"distribution_parameters,omitempty" yaml:"distribution_parameters,omitempty"`
	ActivateMitigation string              `json:"activate_mitigation,omitempty" yaml:"activate_mitigation,omitempty"`
}

// Scenario is a named set of parameter changes applied against a base risk
// register. The base register is never mutated.
type Scenario struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	IsBaseline  bool              `json:"is_baseline,omitempty" yaml:"is_baseline,omitempty"`
	Changes     []ParameterChange `json:"parameter_changes" yaml:"parameter_changes"`
}

// ApplyScenario derives a new risk list from base. Risks not mentioned in the
// change set are shared structurally (risks are immutable value objects);
// mentioned risks are replaced with modified copies. An empty change set
// returns a list equal in value to the base list.
func ApplyScenario(base []Risk, sc Scenario) ([]Risk, error) {
	changes := make(map[string][]ParameterChange, len(sc.Changes))
	for _, ch := range sc.Changes {
		changes[ch.RiskID] = append(changes[ch.RiskID], ch)
	}

	for id := range changes {
		found := false
		for i := range base {
			if base[i].ID == id {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("scenario %q references unknown risk %q", sc.Name, id)
		}
	}

	derived := make([]Risk, len(base))
	for i, r := range base {
		chs, ok := changes[r.ID]
		if !ok {
			derived[i] = r
			continue
		}

		modified := r
		// Copy the mitigation slice before any flag flips so the base risk
		// stays untouched.
		modified.Mitigations = append([]Mitigation(nil), r.Mitigations...)
		modified.CorrelationDependencies = append([]string(nil), r.CorrelationDependencies...)

		for _, ch := range chs {
			if ch.Distribution != nil {
				modified.Distribution = *ch.Distribution
			}
			if ch.Params != nil {
				modified.Params = *ch.Params
			}
			if ch.ActivateMitigation != "" {
				activated := false
				for mi := range modified.Mitigations {
					if modified.Mitigations[mi].Name == ch.ActivateMitigation {
						modified.Mitigations[mi].Active = true
						activated = true
					}
				}
				if !activated {
					return nil, fmt.Errorf("scenario %q: risk %q has no mitigation named %q",
						sc.Name, r.ID, ch.ActivateMitigation)
				}
			}
		}
		derived[i] = modified
	}

	return derived, nil
}
