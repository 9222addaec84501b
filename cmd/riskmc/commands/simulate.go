package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"riskmc/internal/risk"
	"riskmc/internal/simulation"
)

var (
	simRegisterPath string
	simScenario     string
	simIterations   int
	simSeed         int64
	simSeedSet      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulation over a risk register file and print the result as JSON",
	Long: `Loads a YAML or JSON risk register, optionally applies one of its named scenarios,
runs the Monte Carlo engine within the configured limits and prints the analyzed
result to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := risk.LoadRegister(simRegisterPath)
		if err != nil {
			return err
		}

		risks := reg.Risks
		if simScenario != "" {
			sc, ok := reg.Scenario(simScenario)
			if !ok {
				return fmt.Errorf("register has no scenario named %q", simScenario)
			}
			if risks, err = risk.ApplyScenario(reg.Risks, sc); err != nil {
				return err
			}
			log.Info().Str("scenario", sc.Name).Msg("Applied scenario to register")
		}

		req := reg.Request(cfg.Defaults.Iterations)
		req.Risks = risks
		if simIterations > 0 {
			req.Iterations = simIterations
		}
		if simSeedSet {
			req.Seed = &simSeed
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Defaults.Limits.MaxExecutionTime)
		defer cancel()

		engine := simulation.NewEngine(cfg.Defaults.Limits)
		run, err := engine.Run(ctx, &req)
		if err != nil {
			return err
		}

		result := simulation.Analyze(run)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	simulateCmd.Flags().StringVarP(&simRegisterPath, "register", "r", "", "path to the risk register file (.yaml or .json)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "name of a scenario in the register to apply before running")
	simulateCmd.Flags().IntVarP(&simIterations, "iterations", "n", 0, "override the register's iteration count")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "override the register's random seed")
	_ = simulateCmd.MarkFlagRequired("register")

	simulateCmd.PreRun = func(cmd *cobra.Command, args []string) {
		simSeedSet = cmd.Flags().Changed("seed")
	}

	rootCmd.AddCommand(simulateCmd)
}
