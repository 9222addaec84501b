package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"riskmc/internal/config"
)

// Server exposes the simulation core as MCP tools over stdio so any client
// transport can drive it. The server itself holds no simulation state; every
// tool call is an independent, stateless computation.
type Server struct {
	cfg     *config.AppConfig
	version string
}

// NewServer creates the tool server.
func NewServer(cfg *config.AppConfig, version string) *Server {
	return &Server{cfg: cfg, version: version}
}

// Run starts the stdio loop and blocks until the client disconnects or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := sdk.NewServer(&sdk.Implementation{
		Name:    "riskmc",
		Version: s.version,
	}, nil)

	s.registerTools(srv)

	log.Info().Str("version", s.version).Msg("MCP server starting stdio loop")
	return srv.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) registerTools(srv *sdk.Server) {
	sdk.AddTool(srv, &sdk.Tool{
		Name: "run_simulation",
		Description: "Run a Monte Carlo risk simulation over a risk register and return the full statistical result: " +
			"percentile tables (p10-p99), confidence intervals, descriptive statistics, ranked per-risk variance " +
			"attribution and convergence status. Sampling respects the declared correlation matrix. " +
			"Provide a seed for reproducible results.",
		InputSchema: requestSchema[RunSimulationInput]("iterations",
			"Number of iterations; defaults to the configured default when omitted. Must lie within the configured limits."),
	}, s.handleRunSimulation)

	sdk.AddTool(srv, &sdk.Tool{
		Name: "validate_request",
		Description: "Validate a simulation request without running it. Returns every problem found (not just the first), " +
			"separated into fatal errors and fidelity warnings, plus an execution time estimate.",
	}, s.handleValidateRequest)

	sdk.AddTool(srv, &sdk.Tool{
		Name: "create_scenario",
		Description: "Apply a named set of parameter changes and/or mitigation activations to a base risk register and " +
			"return the derived register. The base register is never modified; an empty change set returns an " +
			"identical register (the baseline scenario).",
	}, s.handleCreateScenario)

	sdk.AddTool(srv, &sdk.Tool{
		Name: "compare_scenarios",
		Description: "Simulate two or more scenarios against the same base register and seed, then compute all pairwise " +
			"comparisons: difference of means with percentage change, Welch's t-test significance, and Cohen's d " +
			"effect size for both cost and schedule. A single scenario is compared against the implicit baseline.",
	}, s.handleCompareScenarios)

	sdk.AddTool(srv, &sdk.Tool{
		Name: "get_config_defaults",
		Description: "Return the static engine configuration: default iteration count, convergence thresholds, " +
			"performance limits, and the supported distribution, category and impact type enumerations.",
	}, s.handleGetConfigDefaults)
}

// requestSchema infers the JSON schema for an input struct and overrides the
// description of one field; inference failures fall back to the SDK's own
// derivation.
func requestSchema[T any](field, description string) *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil
	}
	if prop, ok := schema.Properties[field]; ok {
		prop.Description = description
	}
	return schema
}
