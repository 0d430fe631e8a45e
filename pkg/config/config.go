// Package config provides configuration management for nab.
// It loads configuration from environment variables and .env files, with
// optional tuning from a YAML settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultAPIURL = "https://api.ynab.com/v1"

// Config represents the application configuration.
type Config struct {
	YNAB  YNABConfig
	DB    DBConfig
	Debug bool
}

// YNABConfig represents YNAB API configuration.
type YNABConfig struct {
	APIURL   string
	BudgetID string
	Tokens   []string // ordered; first token is tried first
	Timeout  time.Duration
}

// DBConfig represents local journal database configuration.
type DBConfig struct {
	Path string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	timeout, err := parseDurationEnv("NAB_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid NAB_TIMEOUT: %w", err)
	}

	dbPath := os.Getenv("NAB_DB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath()
	}

	config := &Config{
		YNAB: YNABConfig{
			APIURL:   getEnvOrDefault("NAB_API_URL", defaultAPIURL),
			BudgetID: os.Getenv("NAB_BUDGET_ID"),
			Tokens:   splitTokens(os.Getenv("NAB_ACCESS_TOKENS")),
			Timeout:  timeout,
		},
		DB: DBConfig{
			Path: dbPath,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks that all fields required for API access are set.
func (c *Config) Validate() error {
	var missing []string

	if len(c.YNAB.Tokens) == 0 {
		missing = append(missing, "NAB_ACCESS_TOKENS")
	}
	if c.YNAB.BudgetID == "" {
		missing = append(missing, "NAB_BUDGET_ID")
	}
	if c.YNAB.APIURL == "" {
		missing = append(missing, "NAB_API_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// splitTokens splits a comma-separated token list, dropping empty entries.
func splitTokens(raw string) []string {
	if raw == "" {
		return nil
	}

	var tokens []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// defaultDBPath returns the default journal database location.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "nab.db")
	}
	return filepath.Join(home, ".local", "share", "nab", "nab.db")
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a duration from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}

	return parsed, nil
}
