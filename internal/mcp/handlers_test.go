package mcp

import (
	"context"
	"testing"
	"time"

	"riskmc/internal/config"
	"riskmc/internal/risk"
)

func testServer() *Server {
	return NewServer(&config.AppConfig{
		Defaults: config.Defaults{
			Iterations: 2000,
			Limits: risk.Limits{
				MinIterations:    1,
				MaxIterations:    100000,
				MaxRisks:         100,
				MaxExecutionTime: time.Minute,
			},
			ConvergenceWindow:    0.15,
			ConvergenceTolerance: 0.2,
			Alpha:                0.05,
		},
	}, "test")
}

func fixtureRisk(id string) risk.Risk {
	return risk.Risk{
		ID:           id,
		Name:         "Risk " + id,
		Category:     risk.CategoryTechnical,
		ImpactType:   risk.ImpactCost,
		Distribution: risk.DistTriangular,
		Params:       risk.DistributionParams{Min: 25000, Mode: 75000, Max: 150000},
		Mitigations: []risk.Mitigation{
			{Name: "Fallback", Cost: 10000, Effectiveness: 0.6},
		},
	}
}

func TestHandleRunSimulation(t *testing.T) {
	s := testServer()
	seed := int64(42)

	_, out, err := s.handleRunSimulation(context.Background(), nil, RunSimulationInput{
		Risks:      []risk.Risk{fixtureRisk("A")},
		Iterations: 5000,
		Seed:       &seed,
	})
	if err != nil {
		t.Fatalf("run_simulation failed: %v", err)
	}

	if out.Result == nil || out.Result.Iterations != 5000 {
		t.Fatalf("Unexpected result payload: %+v", out.Result)
	}
	if out.Metadata.Seed != 42 {
		t.Errorf("Expected seed 42 in metadata, got %d", out.Metadata.Seed)
	}
	if out.Metadata.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", out.Metadata.Workers)
	}
	if out.Result.Cost.Mean < 25000 || out.Result.Cost.Mean > 150000 {
		t.Errorf("Mean %g outside the distribution support", out.Result.Cost.Mean)
	}
}

func TestHandleRunSimulation_DefaultIterations(t *testing.T) {
	s := testServer()

	_, out, err := s.handleRunSimulation(context.Background(), nil, RunSimulationInput{
		Risks: []risk.Risk{fixtureRisk("A")},
	})
	if err != nil {
		t.Fatalf("run_simulation failed: %v", err)
	}
	if out.Result.Iterations != 2000 {
		t.Errorf("Expected the configured default of 2000 iterations, got %d", out.Result.Iterations)
	}
}

func TestHandleRunSimulation_ValidationFailure(t *testing.T) {
	s := testServer()
	bad := fixtureRisk("A")
	bad.Params.Mode = 999999

	_, _, err := s.handleRunSimulation(context.Background(), nil, RunSimulationInput{
		Risks:      []risk.Risk{bad},
		Iterations: 1000,
	})
	if err == nil {
		t.Fatalf("Expected a validation error")
	}
}

func TestHandleValidateRequest(t *testing.T) {
	s := testServer()

	_, out, err := s.handleValidateRequest(context.Background(), nil, ValidateRequestInput{
		Risks:      []risk.Risk{fixtureRisk("A")},
		Iterations: 10000,
	})
	if err != nil {
		t.Fatalf("validate_request failed: %v", err)
	}
	if !out.Valid || len(out.Errors) != 0 {
		t.Errorf("Expected a clean validation, got %+v", out)
	}
	if out.EstimatedExecutionTime == "" {
		t.Errorf("Expected an execution time estimate")
	}
}

func TestHandleValidateRequest_ReportsAllErrors(t *testing.T) {
	s := testServer()
	bad := fixtureRisk("A")
	bad.Params.Mode = 999999
	bad.Mitigations[0].Effectiveness = 2

	_, out, err := s.handleValidateRequest(context.Background(), nil, ValidateRequestInput{
		Risks:      []risk.Risk{bad},
		Iterations: 1000,
	})
	if err != nil {
		t.Fatalf("validate_request failed: %v", err)
	}
	if out.Valid {
		t.Errorf("Expected the request to be invalid")
	}
	if len(out.Errors) < 2 {
		t.Errorf("Expected both problems reported, got %+v", out.Errors)
	}
}

func TestHandleValidateRequest_PSDWarning(t *testing.T) {
	s := testServer()

	_, out, err := s.handleValidateRequest(context.Background(), nil, ValidateRequestInput{
		Risks: []risk.Risk{fixtureRisk("A"), fixtureRisk("B"), fixtureRisk("C")},
		Correlations: []risk.CorrelationEntry{
			{RiskA: "A", RiskB: "B", Coefficient: 0.9},
			{RiskA: "A", RiskB: "C", Coefficient: 0.9},
			{RiskA: "B", RiskB: "C", Coefficient: 0.5},
		},
		Iterations: 10000,
	})
	if err != nil {
		t.Fatalf("validate_request failed: %v", err)
	}
	if !out.Valid {
		t.Errorf("A repairable matrix should still validate, got %+v", out.Errors)
	}
	if len(out.Warnings) == 0 {
		t.Errorf("Expected a nearest-PSD repair warning")
	}
}

func TestHandleCreateScenario(t *testing.T) {
	s := testServer()
	base := []risk.Risk{fixtureRisk("A")}

	_, out, err := s.handleCreateScenario(context.Background(), nil, CreateScenarioInput{
		BaseRisks: base,
		Scenario: risk.Scenario{
			Name: "mitigated",
			Changes: []risk.ParameterChange{
				{RiskID: "A", ActivateMitigation: "Fallback"},
			},
		},
	})
	if err != nil {
		t.Fatalf("create_scenario failed: %v", err)
	}

	if !out.Risks[0].Mitigations[0].Active {
		t.Errorf("Derived register should have the mitigation active")
	}
	if base[0].Mitigations[0].Active {
		t.Errorf("Base register was mutated")
	}
}

func TestHandleCreateScenario_UnknownRisk(t *testing.T) {
	s := testServer()

	_, _, err := s.handleCreateScenario(context.Background(), nil, CreateScenarioInput{
		BaseRisks: []risk.Risk{fixtureRisk("A")},
		Scenario: risk.Scenario{
			Name:    "broken",
			Changes: []risk.ParameterChange{{RiskID: "GHOST"}},
		},
	})
	if err == nil {
		t.Fatalf("Expected an error for an unknown risk reference")
	}
}

func TestHandleCompareScenarios_SingleScenarioGetsBaseline(t *testing.T) {
	s := testServer()
	seed := int64(123)

	_, out, err := s.handleCompareScenarios(context.Background(), nil, CompareScenariosInput{
		BaseRisks:  []risk.Risk{fixtureRisk("A")},
		Iterations: 2000,
		Seed:       &seed,
		Scenarios: []risk.Scenario{
			{Name: "mitigated", Changes: []risk.ParameterChange{
				{RiskID: "A", ActivateMitigation: "Fallback"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("compare_scenarios failed: %v", err)
	}

	if len(out.Results) != 2 {
		t.Fatalf("Expected the implicit baseline plus the scenario, got %d results", len(out.Results))
	}
	if out.Results[0].Name != "baseline" || !out.Results[0].IsBaseline {
		t.Errorf("First result should be the implicit baseline, got %+v", out.Results[0])
	}
	if len(out.Comparisons) != 1 {
		t.Fatalf("Expected one comparison, got %d", len(out.Comparisons))
	}

	cmp := out.Comparisons[0]
	if cmp.Cost.MeanDelta >= 0 {
		t.Errorf("Mitigation should lower the mean, got %+v", cmp.Cost)
	}
	if !cmp.Cost.Test.Significant {
		t.Errorf("A 60%% reduction should be significant, got %+v", cmp.Cost.Test)
	}
}

func TestHandleCompareScenarios_RequiresAScenario(t *testing.T) {
	s := testServer()

	_, _, err := s.handleCompareScenarios(context.Background(), nil, CompareScenariosInput{
		BaseRisks: []risk.Risk{fixtureRisk("A")},
	})
	if err == nil {
		t.Fatalf("Expected an error when no scenarios are given")
	}
}

func TestHandleGetConfigDefaults(t *testing.T) {
	s := testServer()

	_, out, err := s.handleGetConfigDefaults(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatalf("get_config_defaults failed: %v", err)
	}

	if out.DefaultIterations != 2000 || out.MinIterations != 1 || out.MaxIterations != 100000 {
		t.Errorf("Iteration configuration not echoed: %+v", out)
	}
	if out.MaxExecutionSeconds != 60 {
		t.Errorf("Expected 60s execution limit, got %g", out.MaxExecutionSeconds)
	}
	if len(out.Distributions) != 5 {
		t.Errorf("Expected 5 supported distributions, got %v", out.Distributions)
	}
	if len(out.Categories) != 7 {
		t.Errorf("Expected 7 supported categories, got %v", out.Categories)
	}
	if len(out.ImpactTypes) != 3 {
		t.Errorf("Expected 3 impact types, got %v", out.ImpactTypes)
	}
}
