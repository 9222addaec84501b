package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"riskmc/internal/risk"
	"riskmc/internal/simulation"
)

var compareRegisterPath string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Simulate every scenario in a register and compare them pairwise",
	Long: `Runs each scenario defined in the register (plus the implicit baseline when none
is flagged is_baseline) through the engine with the same seed, then prints all pairwise
comparisons: mean deltas, Welch's t-test significance and Cohen's d effect sizes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := risk.LoadRegister(compareRegisterPath)
		if err != nil {
			return err
		}
		if len(reg.Scenarios) == 0 {
			return fmt.Errorf("register defines no scenarios to compare")
		}

		scenarios := reg.Scenarios
		hasBaseline := false
		for _, sc := range scenarios {
			if sc.IsBaseline {
				hasBaseline = true
				break
			}
		}
		if !hasBaseline {
			scenarios = append([]risk.Scenario{{Name: "baseline", IsBaseline: true}}, scenarios...)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Defaults.Limits.MaxExecutionTime)
		defer cancel()

		engine := simulation.NewEngine(cfg.Defaults.Limits)

		results := make([]simulation.ScenarioResult, 0, len(scenarios))
		for _, sc := range scenarios {
			derived, err := risk.ApplyScenario(reg.Risks, sc)
			if err != nil {
				return err
			}

			req := reg.Request(cfg.Defaults.Iterations)
			req.Risks = derived

			run, err := engine.Run(ctx, &req)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}

			results = append(results, simulation.ScenarioResult{
				Name:       sc.Name,
				IsBaseline: sc.IsBaseline,
				Result:     simulation.Analyze(run),
			})
		}

		report := struct {
			Results     []simulation.ScenarioResult `json:"results"`
			Comparisons []simulation.Comparison     `json:"comparisons"`
		}{
			Results:     results,
			Comparisons: simulation.CompareAll(results, cfg.Defaults.Alpha),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	compareCmd.Flags().StringVarP(&compareRegisterPath, "register", "r", "", "path to the risk register file (.yaml or .json)")
	_ = compareCmd.MarkFlagRequired("register")

	rootCmd.AddCommand(compareCmd)
}
