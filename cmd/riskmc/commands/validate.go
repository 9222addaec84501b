package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"riskmc/internal/risk"
	"riskmc/internal/simulation"
)

var validateRegisterPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a risk register file without running a simulation",
	Long: `Checks every risk's distribution parameters, mitigation bounds, correlation
entries and iteration count, and reports all problems found in one pass along with an
execution time estimate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := risk.LoadRegister(validateRegisterPath)
		if err != nil {
			return err
		}

		req := reg.Request(cfg.Defaults.Iterations)
		issues := risk.ValidateRequest(&req, cfg.Defaults.Limits)

		if !issues.HasErrors() {
			if corr, err := simulation.NewCorrelator(req.Risks, req.Correlations); err != nil {
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

		report := struct {
			Valid         bool        `json:"valid"`
			Errors        risk.Issues `json:"errors"`
			Warnings      risk.Issues `json:"warnings"`
			EstimatedTime string      `json:"estimated_execution_time"`
		}{
			Valid:         !issues.HasErrors(),
			Errors:        issues.Errors(),
			Warnings:      issues.Warnings(),
			EstimatedTime: simulation.EstimateDuration(len(req.Risks), req.Iterations).Round(time.Millisecond).String(),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}

		if !report.Valid {
			return fmt.Errorf("register is invalid: %d errors", len(report.Errors))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateRegisterPath, "register", "r", "", "path to the risk register file (.yaml or .json)")
	_ = validateCmd.MarkFlagRequired("register")

	rootCmd.AddCommand(validateCmd)
}
