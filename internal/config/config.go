package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/guhjy/BFDA/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Data     DataConfig
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port string
}

// AnalysisConfig holds default analysis parameters
type AnalysisConfig struct {
	Alpha  float64 // significance level for fixed-design power estimates
	Digits int     // decimal digits in rendered reports
}

// DataConfig holds trajectory table source settings
type DataConfig struct {
	TableFile   string // default CSV/XLSX path for the CLI
	PostgresDSN string // optional Postgres source
	PGTable     string // table name when loading from Postgres
}

// Load reads configuration from the environment, consulting a .env file
// when present, and validates it
func Load() (*Config, error) {
	// A missing .env file is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("BFDA_PORT", "8080"),
		},
		Analysis: AnalysisConfig{
			Alpha:  getEnvFloat("BFDA_ALPHA", 0.05),
			Digits: getEnvInt("BFDA_DIGITS", 1),
		},
		Data: DataConfig{
			TableFile:   getEnv("BFDA_TABLE_FILE", ""),
			PostgresDSN: getEnv("BFDA_POSTGRES_DSN", ""),
			PGTable:     getEnv("BFDA_POSTGRES_TABLE", "trajectories"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.Alpha <= 0 || c.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("BFDA_ALPHA must be in (0, 1)")
	}
	if c.Analysis.Digits < 0 {
		return errors.ConfigInvalid("BFDA_DIGITS must be >= 0")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("BFDA_PORT must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
