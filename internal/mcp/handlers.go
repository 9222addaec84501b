package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"riskmc/internal/risk"
	"riskmc/internal/simulation"
)

// RunSimulationInput mirrors risk.SimulationRequest on the tool boundary.
type RunSimulationInput struct {
	Risks                []risk.Risk             `json:"risks"`
	Correlations         []risk.CorrelationEntry `json:"correlations,omitempty"`
	Iterations           int                     `json:"iterations,omitempty"`
	Seed                 *int64                  `json:"seed,omitempty"`
	BaselineCost         float64                 `json:"baseline_cost,omitempty"`
	BaselineScheduleDays float64                 `json:"baseline_schedule_days,omitempty"`
}

// RunMetadata describes how a run executed, alongside its statistical result.
type RunMetadata struct {
	ExecutionTime       string  `json:"execution_time"`
	IterationsPerSecond float64 `json:"iterations_per_second"`
	Workers             int     `json:"workers"`
	Seed                int64   `json:"seed"`
	Converged           bool    `json:"converged"`
}

// RunSimulationOutput is the run_simulation tool response.
type RunSimulationOutput struct {
	Result   *simulation.Result `json:"result"`
	Metadata RunMetadata        `json:"metadata"`
}

func (s *Server) handleRunSimulation(ctx context.Context, req *sdk.CallToolRequest, in RunSimulationInput) (*sdk.CallToolResult, RunSimulationOutput, error) {
	simReq := s.toRequest(in)

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Defaults.Limits.MaxExecutionTime)
	defer cancel()

	run, err := s.engine().Run(runCtx, &simReq)
	if err != nil {
		return nil, RunSimulationOutput{}, err
	}

	result := simulation.Analyze(run)

	out := RunSimulationOutput{
		Result: result,
		Metadata: RunMetadata{
			ExecutionTime: run.Elapsed.Round(time.Millisecond).String(),
			Workers:       run.Workers,
			Seed:          run.Seed,
			Converged:     run.Convergence.Converged,
		},
	}
	if run.Elapsed > 0 {
		out.Metadata.IterationsPerSecond = float64(run.Iterations) / run.Elapsed.Seconds()
	}

	log.Info().
		Int("risks", len(in.Risks)).
		Int("iterations", run.Iterations).
		Dur("elapsed", run.Elapsed).
		Msg("run_simulation completed")

	return nil, out, nil
}

// ValidateRequestInput reuses the simulation request shape.
type ValidateRequestInput RunSimulationInput

// ValidateRequestOutput reports every validation finding and an execution
// estimate, without running the simulation.
type ValidateRequestOutput struct {
	Valid                  bool        `json:"valid"`
	Errors                 risk.Issues `json:"errors"`
	Warnings               risk.Issues `json:"warnings"`
	EstimatedExecutionTime string      `json:"estimated_execution_time"`
}

func (s *Server) handleValidateRequest(ctx context.Context, req *sdk.CallToolRequest, in ValidateRequestInput) (*sdk.CallToolResult, ValidateRequestOutput, error) {
	simReq := s.toRequest(RunSimulationInput(in))

	issues := risk.ValidateRequest(&simReq, s.cfg.Defaults.Limits)

	// The PSD probe belongs to validation: a broken correlation structure
	// must surface here, not mid-run.
	if !issues.HasErrors() {
		if corr, err := simulation.NewCorrelator(simReq.Risks, simReq.Correlations); err != nil {
			issues = append(issues, risk.Issue{
				Field: "correlations", Message: err.Error(), Severity: risk.SeverityError,
			})
		} else {
			for _, w := range corr.Warnings {
				issues = append(issues, risk.Issue{
					Field: "correlations", Message: w, Severity: risk.SeverityWarning,
				})
			}
		}
	}

	out := ValidateRequestOutput{
		Valid:                  !issues.HasErrors(),
		Errors:                 issues.Errors(),
		Warnings:               issues.Warnings(),
		EstimatedExecutionTime: simulation.EstimateDuration(len(simReq.Risks), simReq.Iterations).Round(time.Millisecond).String(),
	}
	return nil, out, nil
}

// CreateScenarioInput derives a scenario register from a base register.
type CreateScenarioInput struct {
	BaseRisks []risk.Risk   `json:"base_risks"`
	Scenario  risk.Scenario `json:"scenario"`
}

// CreateScenarioOutput echoes the scenario and returns the derived register.
type CreateScenarioOutput struct {
	Scenario risk.Scenario `json:"scenario"`
	Risks    []risk.Risk   `json:"risks"`
}

func (s *Server) handleCreateScenario(ctx context.Context, req *sdk.CallToolRequest, in CreateScenarioInput) (*sdk.CallToolResult, CreateScenarioOutput, error) {
	derived, err := risk.ApplyScenario(in.BaseRisks, in.Scenario)
	if err != nil {
		return nil, CreateScenarioOutput{}, err
	}
	return nil, CreateScenarioOutput{Scenario: in.Scenario, Risks: derived}, nil
}

// CompareScenariosInput runs each scenario against the same base register,
// iteration count and seed, then compares all pairs.
type CompareScenariosInput struct {
	BaseRisks            []risk.Risk             `json:"base_risks"`
	Correlations         []risk.CorrelationEntry `json:"correlations,omitempty"`
	Iterations           int                     `json:"iterations,omitempty"`
	Seed                 *int64                  `json:"seed,omitempty"`
	BaselineCost         float64                 `json:"baseline_cost,omitempty"`
	BaselineScheduleDays float64                 `json:"baseline_schedule_days,omitempty"`
	Scenarios            []risk.Scenario         `json:"scenarios"`
	Alpha                float64                 `json:"alpha,omitempty"`
}

// CompareScenariosOutput carries per-scenario results plus all pairwise
// comparisons.
type CompareScenariosOutput struct {
	Results     []simulation.ScenarioResult `json:"results"`
	Comparisons []simulation.Comparison     `json:"comparisons"`
}

func (s *Server) handleCompareScenarios(ctx context.Context, req *sdk.CallToolRequest, in CompareScenariosInput) (*sdk.CallToolResult, CompareScenariosOutput, error) {
	scenarios := in.Scenarios
	if len(scenarios) == 0 {
		return nil, CompareScenariosOutput{}, fmt.Errorf("at least one scenario is required")
	}
	// A single scenario is compared against the unmodified register.
	if len(scenarios) == 1 {
		scenarios = append([]risk.Scenario{{Name: "baseline", IsBaseline: true}}, scenarios...)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Defaults.Limits.MaxExecutionTime)
	defer cancel()

	engine := s.engine()

	results := make([]simulation.ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		derived, err := risk.ApplyScenario(in.BaseRisks, sc)
		if err != nil {
			return nil, CompareScenariosOutput{}, err
		}

		simReq := s.toRequest(RunSimulationInput{
			Risks:                derived,
			Correlations:         in.Correlations,
			Iterations:           in.Iterations,
			Seed:                 in.Seed,
			BaselineCost:         in.BaselineCost,
			BaselineScheduleDays: in.BaselineScheduleDays,
		})

		run, err := engine.Run(runCtx, &simReq)
		if err != nil {
			return nil, CompareScenariosOutput{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}

		results = append(results, simulation.ScenarioResult{
			Name:       sc.Name,
			IsBaseline: sc.IsBaseline,
			Result:     simulation.Analyze(run),
		})
	}

	alpha := in.Alpha
	if alpha == 0 {
		alpha = s.cfg.Defaults.Alpha
	}

	return nil, CompareScenariosOutput{
		Results:     results,
		Comparisons: simulation.CompareAll(results, alpha),
	}, nil
}

// ConfigDefaultsOutput is the static configuration payload.
type ConfigDefaultsOutput struct {
	DefaultIterations    int                     `json:"default_iterations"`
	MinIterations        int                     `json:"min_iterations"`
	MaxIterations        int                     `json:"max_iterations"`
	MaxRisks             int                     `json:"max_risks"`
	MaxExecutionSeconds  float64                 `json:"max_execution_seconds"`
	ConvergenceWindow    float64                 `json:"convergence_window"`
	ConvergenceTolerance float64                 `json:"convergence_tolerance"`
	Alpha                float64                 `json:"alpha"`
	Distributions        []risk.DistributionType `json:"supported_distributions"`
	Categories           []risk.Category         `json:"supported_categories"`
	ImpactTypes          []risk.ImpactType       `json:"supported_impact_types"`
}

func (s *Server) handleGetConfigDefaults(ctx context.Context, req *sdk.CallToolRequest, in struct{}) (*sdk.CallToolResult, ConfigDefaultsOutput, error) {
	d := s.cfg.Defaults
	out := ConfigDefaultsOutput{
		DefaultIterations:    d.Iterations,
		MinIterations:        d.Limits.MinIterations,
		MaxIterations:        d.Limits.MaxIterations,
		MaxRisks:             d.Limits.MaxRisks,
		MaxExecutionSeconds:  d.Limits.MaxExecutionTime.Seconds(),
		ConvergenceWindow:    d.ConvergenceWindow,
		ConvergenceTolerance: d.ConvergenceTolerance,
		Alpha:                d.Alpha,
		Distributions:        risk.SupportedDistributions,
		Categories:           risk.SupportedCategories,
		ImpactTypes:          risk.SupportedImpactTypes,
	}
	return nil, out, nil
}

func (s *Server) engine() *simulation.Engine {
	engine := simulation.NewEngine(s.cfg.Defaults.Limits)
	if s.cfg.Defaults.Workers > 0 {
		engine.Workers = s.cfg.Defaults.Workers
	}
	engine.ConvergenceWindow = s.cfg.Defaults.ConvergenceWindow
	engine.ConvergenceTolerance = s.cfg.Defaults.ConvergenceTolerance
	return engine
}

func (s *Server) toRequest(in RunSimulationInput) risk.SimulationRequest {
	iterations := in.Iterations
	if iterations == 0 {
		iterations = s.cfg.Defaults.Iterations
	}
	return risk.SimulationRequest{
		Risks:                in.Risks,
		Correlations:         in.Correlations,
		Iterations:           iterations,
		Seed:                 in.Seed,
		BaselineCost:         in.BaselineCost,
		BaselineScheduleDays: in.BaselineScheduleDays,
	}
}
