package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"riskmc/internal/risk"
)

// Defaults holds the simulation parameters served by get_config_defaults and
// applied when a request leaves them unset.
type Defaults struct {
	Iterations           int         `json:"default_iterations"`
	Limits               risk.Limits `json:"limits"`
	ConvergenceWindow    float64     `json:"convergence_window"`
	ConvergenceTolerance float64     `json:"convergence_tolerance"`
	Alpha                float64     `json:"alpha"`
	Workers              int         `json:"workers"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath string
	LogDir   string
	Defaults Defaults
}

// Load loads the configuration from .env files and environment variables.
// The binary directory takes priority over the working directory, matching
// how stdio servers are usually launched.
func Load() (*AppConfig, error) {
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := getEnv("RISKMC_DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		DataPath: dataPath,
		LogDir:   logDir,
		Defaults: Defaults{
			Iterations: getEnvInt("RISKMC_DEFAULT_ITERATIONS", 10000),
			Limits: risk.Limits{
				MinIterations:    getEnvInt("RISKMC_MIN_ITERATIONS", 10000),
				MaxIterations:    getEnvInt("RISKMC_MAX_ITERATIONS", 500000),
				MaxRisks:         getEnvInt("RISKMC_MAX_RISKS", 200),
				MaxExecutionTime: time.Duration(getEnvInt("RISKMC_MAX_EXECUTION_SECONDS", 30)) * time.Second,
			},
			ConvergenceWindow:    getEnvFloat("RISKMC_CONVERGENCE_WINDOW", 0.15),
			ConvergenceTolerance: getEnvFloat("RISKMC_CONVERGENCE_TOLERANCE", 0.01),
			Alpha:                getEnvFloat("RISKMC_ALPHA", 0.05),
			Workers:              getEnvInt("RISKMC_WORKERS", 0), // 0 = NumCPU
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
