package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		LedgerDBPath:        "./test.db",
		DataBackend:         "sqlite",
		RecentExpensesLimit: 50,
		LogLevel:            "warn",
		LogFormat:           "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid sqlite backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid memory backend without db path",
			mutate:  func(c *Config) { c.DataBackend = "memory"; c.LedgerDBPath = "" },
			wantErr: false,
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets': must be one of [memory sqlite]",
		},
		{
			name:        "sqlite backend missing database path",
			mutate:      func(c *Config) { c.LedgerDBPath = "" },
			wantErr:     true,
			errorString: "ledger database path cannot be empty when using sqlite backend",
		},
		{
			name:        "recent limit too low",
			mutate:      func(c *Config) { c.RecentExpensesLimit = 0 },
			wantErr:     true,
			errorString: "invalid recent expenses limit 0: must be at least 1",
		},
		{
			name:        "recent limit too high",
			mutate:      func(c *Config) { c.RecentExpensesLimit = 5000 },
			wantErr:     true,
			errorString: "invalid recent expenses limit 5000: must be at most 1000",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "unknown log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Config{DataBackend: "nope", RecentExpensesLimit: -1, LogLevel: "x", LogFormat: "y"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n- "); n != 4 {
		t.Errorf("expected 4 collected problems, got %d: %v", n, err)
	}
}

func TestConfig_ValidateDatabasePathIsDirectory(t *testing.T) {
	cfg := validConfig()
	cfg.LedgerDBPath = t.TempDir()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("expected directory error, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	cfg.LedgerDBPath = filepath.Join(file, "expenses.db")
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Errorf("expected not-a-directory error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	keys := []string{"LEDGER_DB_PATH", "DATA_BACKEND", "NO_DESCRIPTION_CATEGORIES", "RECENT_EXPENSES_LIMIT", "LOG_LEVEL", "LOG_FORMAT"}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.LedgerDBPath != "./data/expenses.db" {
			t.Errorf("Load() LedgerDBPath = %v, want ./data/expenses.db", cfg.LedgerDBPath)
		}
		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if strings.Join(cfg.NoDescriptionCategories, ",") != "Mensa,Groceries" {
			t.Errorf("Load() NoDescriptionCategories = %v, want [Mensa Groceries]", cfg.NoDescriptionCategories)
		}
		if cfg.RecentExpensesLimit != 50 {
			t.Errorf("Load() RecentExpensesLimit = %v, want 50", cfg.RecentExpensesLimit)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("LEDGER_DB_PATH", "/tmp/test.db")
		t.Setenv("DATA_BACKEND", "memory")
		t.Setenv("NO_DESCRIPTION_CATEGORIES", " Lunch , ,Coffee")
		t.Setenv("RECENT_EXPENSES_LIMIT", "10")
		t.Setenv("LOG_LEVEL", "debug")

		cfg := Load()

		if cfg.LedgerDBPath != "/tmp/test.db" {
			t.Errorf("Load() LedgerDBPath = %v, want /tmp/test.db", cfg.LedgerDBPath)
		}
		if cfg.DataBackend != "memory" {
			t.Errorf("Load() DataBackend = %v, want memory", cfg.DataBackend)
		}
		if strings.Join(cfg.NoDescriptionCategories, ",") != "Lunch,Coffee" {
			t.Errorf("Load() NoDescriptionCategories = %v, want [Lunch Coffee]", cfg.NoDescriptionCategories)
		}
		if cfg.RecentExpensesLimit != 10 {
			t.Errorf("Load() RecentExpensesLimit = %v, want 10", cfg.RecentExpensesLimit)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("Load() LogLevel = %v, want debug", cfg.LogLevel)
		}
	})

	t.Run("explicitly empty suppressed list", func(t *testing.T) {
		t.Setenv("NO_DESCRIPTION_CATEGORIES", "-")
		if cfg := Load(); len(cfg.NoDescriptionCategories) != 0 {
			t.Errorf("Load() NoDescriptionCategories = %v, want none", cfg.NoDescriptionCategories)
		}
	})

	t.Run("malformed integer is reported by Validate", func(t *testing.T) {
		t.Setenv("RECENT_EXPENSES_LIMIT", "abc")

		cfg := Load()
		if cfg.RecentExpensesLimit != 50 {
			t.Errorf("Load() RecentExpensesLimit = %v, want 50 (default for invalid input)", cfg.RecentExpensesLimit)
		}
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "invalid RECENT_EXPENSES_LIMIT 'abc': must be an integer") {
			t.Errorf("Validate() error = %v, want malformed RECENT_EXPENSES_LIMIT reported", err)
		}
	})
}
