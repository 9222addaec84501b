package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RISKMC_DATA_PATH", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	d := cfg.Defaults
	if d.Iterations != 10000 {
		t.Errorf("Expected default iterations 10000, got %d", d.Iterations)
	}
	if d.Limits.MinIterations != 10000 || d.Limits.MaxIterations != 500000 {
		t.Errorf("Unexpected iteration limits: %+v", d.Limits)
	}
	if d.Limits.MaxRisks != 200 {
		t.Errorf("Expected max risks 200, got %d", d.Limits.MaxRisks)
	}
	if d.Limits.MaxExecutionTime != 30*time.Second {
		t.Errorf("Expected 30s execution limit, got %s", d.Limits.MaxExecutionTime)
	}
	if d.ConvergenceWindow != 0.15 || d.ConvergenceTolerance != 0.01 {
		t.Errorf("Unexpected convergence defaults: %+v", d)
	}
	if d.Alpha != 0.05 {
		t.Errorf("Expected alpha 0.05, got %g", d.Alpha)
	}
	if cfg.LogDir == "" {
		t.Errorf("Expected a derived log directory")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RISKMC_DATA_PATH", t.TempDir())
	t.Setenv("RISKMC_DEFAULT_ITERATIONS", "25000")
	t.Setenv("RISKMC_MIN_ITERATIONS", "5000")
	t.Setenv("RISKMC_MAX_ITERATIONS", "100000")
	t.Setenv("RISKMC_MAX_RISKS", "50")
	t.Setenv("RISKMC_MAX_EXECUTION_SECONDS", "60")
	t.Setenv("RISKMC_ALPHA", "0.01")
	t.Setenv("RISKMC_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	d := cfg.Defaults
	if d.Iterations != 25000 || d.Limits.MinIterations != 5000 || d.Limits.MaxIterations != 100000 {
		t.Errorf("Iteration overrides not applied: %+v", d)
	}
	if d.Limits.MaxRisks != 50 || d.Limits.MaxExecutionTime != time.Minute {
		t.Errorf("Limit overrides not applied: %+v", d.Limits)
	}
	if d.Alpha != 0.01 || d.Workers != 4 {
		t.Errorf("Alpha/worker overrides not applied: %+v", d)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("RISKMC_DATA_PATH", t.TempDir())
	t.Setenv("RISKMC_DEFAULT_ITERATIONS", "not-a-number")
	t.Setenv("RISKMC_ALPHA", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Defaults.Iterations != 10000 || cfg.Defaults.Alpha != 0.05 {
		t.Errorf("Malformed values should fall back to defaults: %+v", cfg.Defaults)
	}
}
