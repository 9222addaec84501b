package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Register is the on-disk risk register consumed by the CLI: the simulation
// request plus any named scenarios defined against it.
type Register struct {
	Risks        []Risk             `json:"risks" yaml:"risks"`
	Correlations []CorrelationEntry `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Iterations   int                `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Seed         *int64             `json:"seed,omitempty" yaml:"seed,omitempty"`

	BaselineCost         float64 `json:"baseline_cost,omitempty" yaml:"baseline_cost,omitempty"`
	BaselineScheduleDays float64 `json:"baseline_schedule_days,omitempty" yaml:"baseline_schedule_days,omitempty"`

	Scenarios []Scenario `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// Request assembles the simulation request for this register, with
// defaultIterations applied when the file does not pin a count.
func (reg *Register) Request(defaultIterations int) SimulationRequest {
	iterations := reg.Iterations
	if iterations == 0 {
		iterations = defaultIterations
	}
	return SimulationRequest{
		Risks:                reg.Risks,
		Correlations:         reg.Correlations,
		Iterations:           iterations,
		Seed:                 reg.Seed,
		BaselineCost:         reg.BaselineCost,
		BaselineScheduleDays: reg.BaselineScheduleDays,
	}
}

// Scenario looks up a named scenario in the register.
func (reg *Register) Scenario(name string) (Scenario, bool) {
	for _, sc := range reg.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// LoadRegister reads a risk register from a YAML or JSON file, keyed on the
// file extension.
func LoadRegister(path string) (*Register, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read register file: %w", err)
	}

	var reg Register
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported register format %q (expected .yaml, .yml or .json)", filepath.Ext(path))
	}

	return &reg, nil
}
