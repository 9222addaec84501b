package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"riskmc/internal/config"
	"riskmc/internal/logging"
	"riskmc/internal/mcp"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "riskmc",
	Short: "riskmc is a Monte Carlo risk simulation engine",
	Long: `A stateless Monte Carlo simulation engine for project risk registers: correlated
distribution sampling, mitigation modeling, percentile/confidence analytics, variance
attribution and what-if scenario comparison with significance testing.

Run without arguments to serve the engine as MCP tools over stdio.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("riskmc starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(cfg, Version)
		return server.Run(context.Background())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
