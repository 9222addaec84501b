package risk

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRegisterYAML = `
iterations: 20000
seed: 42
baseline_cost: 1000000
baseline_schedule_days: 180
risks:
  - id: TECH-1
    name: Vendor API instability
    category: technical
    impact_type: cost
    distribution_type: triangular
    distribution_parameters:
      min: 25000
      mode: 75000
      max: 150000
    baseline_impact: 75000
    mitigation_strategies:
      - name: Add circuit breaker
        cost: 12000
        effectiveness: 0.6
  - id: RES-1
    name: Key engineer departure
    category: resource
    impact_type: both
    distribution_type: normal
    distribution_parameters:
      mean: 50000
      std_dev: 10000
    baseline_impact: 50000
correlations:
  - risk_a: TECH-1
    risk_b: RES-1
    coefficient: 0.4
scenarios:
  - name: mitigated
    description: circuit breaker in place
    parameter_changes:
      - risk_id: TECH-1
        activate_mitigation: Add circuit breaker
`

func writeRegister(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write register fixture: %v", err)
	}
	return path
}

func TestLoadRegister_YAML(t *testing.T) {
	reg, err := LoadRegister(writeRegister(t, "register.yaml", sampleRegisterYAML))
	if err != nil {
		t.Fatalf("LoadRegister failed: %v", err)
	}

	if len(reg.Risks) != 2 {
		t.Fatalf("Expected 2 risks, got %d", len(reg.Risks))
	}
	if reg.Risks[0].ID != "TECH-1" || reg.Risks[0].Params.Mode != 75000 {
		t.Errorf("First risk not parsed correctly: %+v", reg.Risks[0])
	}
	if reg.Seed == nil || *reg.Seed != 42 {
		t.Errorf("Expected seed 42, got %v", reg.Seed)
	}
	if len(reg.Correlations) != 1 || reg.Correlations[0].Coefficient != 0.4 {
		t.Errorf("Correlations not parsed correctly: %+v", reg.Correlations)
	}
	if len(reg.Scenarios) != 1 || reg.Scenarios[0].Changes[0].ActivateMitigation != "Add circuit breaker" {
		t.Errorf("Scenarios not parsed correctly: %+v", reg.Scenarios)
	}

	issues := ValidateRequest(ptr(reg.Request(10000)), testLimits())
	if issues.HasErrors() {
		t.Errorf("Fixture register should validate cleanly, got %+v", issues.Errors())
	}
}

func TestLoadRegister_JSON(t *testing.T) {
	content := `{
  "iterations": 15000,
  "risks": [
    {
      "id": "COST-1",
      "name": "Material price spike",
      "category": "cost",
      "impact_type": "cost",
      "distribution_type": "uniform",
      "distribution_parameters": {"min": 10000, "max": 40000},
      "baseline_impact": 25000
    }
  ]
}`
	reg, err := LoadRegister(writeRegister(t, "register.json", content))
	if err != nil {
		t.Fatalf("LoadRegister failed: %v", err)
	}
	if len(reg.Risks) != 1 || reg.Risks[0].Distribution != DistUniform {
		t.Errorf("JSON register not parsed correctly: %+v", reg)
	}
	if reg.Iterations != 15000 {
		t.Errorf("Expected iterations 15000, got %d", reg.Iterations)
	}
}

func TestLoadRegister_UnsupportedExtension(t *testing.T) {
	if _, err := LoadRegister(writeRegister(t, "register.toml", "x = 1")); err == nil {
		t.Errorf("Expected an error for an unsupported register format")
	}
}

func TestRegister_RequestAppliesDefaultIterations(t *testing.T) {
	reg := &Register{Risks: []Risk{validRisk("R1")}}
	if got := reg.Request(10000).Iterations; got != 10000 {
		t.Errorf("Expected default iterations 10000, got %d", got)
	}

	reg.Iterations = 25000
	if got := reg.Request(10000).Iterations; got != 25000 {
		t.Errorf("Register iteration count should win over the default, got %d", got)
	}
}

func TestRegister_ScenarioLookup(t *testing.T) {
	reg := &Register{Scenarios: []Scenario{{Name: "mitigated"}}}

	if _, ok := reg.Scenario("mitigated"); !ok {
		t.Errorf("Expected to find scenario by name")
	}
	if _, ok := reg.Scenario("missing"); ok {
		t.Errorf("Lookup of an undefined scenario should fail")
	}
}

func ptr(req SimulationRequest) *SimulationRequest { return &req }
