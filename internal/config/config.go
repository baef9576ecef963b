package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	applog "expenses/internal/log"
)

type Config struct {
	// Database
	LedgerDBPath string

	// Backend selection
	DataBackend   string
	DataDirectory string

	// Entry
	NoDescriptionCategories []string

	// Reports
	RecentExpensesLimit int

	// Logging
	LogLevel  string
	LogFormat string

	// values that could not be read from the environment
	loadErrors []string
}

func Load() *Config {
	cfg := &Config{
		LedgerDBPath: getEnv("LEDGER_DB_PATH", "./data/expenses.db"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		NoDescriptionCategories: getEnvList("NO_DESCRIPTION_CATEGORIES", []string{"Mensa", "Groceries"}),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	limit, err := getEnvInt("RECENT_EXPENSES_LIMIT", 50)
	if err != nil {
		cfg.loadErrors = append(cfg.loadErrors, err.Error())
	}
	cfg.RecentExpensesLimit = limit

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.LedgerDBPath == "" {
			errors = append(errors, "ledger database path cannot be empty when using sqlite backend")
		} else if info, err := os.Stat(c.LedgerDBPath); err == nil && info.IsDir() {
			errors = append(errors, fmt.Sprintf("ledger database path '%s' is a directory", c.LedgerDBPath))
		} else if dir := filepath.Dir(c.LedgerDBPath); dir != "." && dir != "" {
			if info, err := os.Stat(dir); err == nil && !info.IsDir() {
				errors = append(errors, fmt.Sprintf("ledger database directory '%s' is not a directory", dir))
			}
		}
	}

	if c.RecentExpensesLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid recent expenses limit %d: must be at least 1", c.RecentExpensesLimit))
	} else if c.RecentExpensesLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid recent expenses limit %d: must be at most 1000", c.RecentExpensesLimit))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns defaultValue with an error when the variable is set but
// not an integer.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s '%s': must be an integer", key, value)
	}
	return i, nil
}

// getEnvList reads a comma separated list. An explicitly empty list is
// written as "-".
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	if strings.TrimSpace(value) == "-" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
