package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"expenses/internal/config"
	"expenses/internal/ledger/memory"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

var (
	_ Backend = (*storage.SQLiteRepository)(nil)
	_ Backend = (*memory.Store)(nil)
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	bt, err := ParseBackendType(string(config.Type))
	if err != nil {
		return nil, err
	}

	if bt == MemoryBackend {
		return f.createMemoryBackend(ctx, config)
	}
	return f.createSQLiteBackend(ctx, config)
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	// NewSQLiteRepository closes anything it opened before failing.
	repo, err := storage.NewSQLiteRepository(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		applog.FieldComponent, applog.ComponentBackend,
		applog.FieldDBPath, config.DBPath)

	return newResult(repo), nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data" // Default directory
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		applog.FieldComponent, applog.ComponentBackend,
		"data_directory", dataDir)

	return newResult(store), nil
}

// newResult wraps b so that repeated cleanups close it once.
func newResult(b Backend) *BackendResult {
	var (
		once sync.Once
		err  error
	)
	return &BackendResult{
		Backend: b,
		Cleanup: func() error {
			once.Do(func() { err = b.Close() })
			return err
		},
	}
}

// ConfigFromAppConfig converts application config to backend config
func ConfigFromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:          BackendType(appConfig.DataBackend),
		DBPath:        appConfig.LedgerDBPath,
		DataDirectory: appConfig.DataDirectory,
	}
}
