package backend

import (
	"context"
	"fmt"
	"strings"

	"expenses/internal/core"
	"expenses/internal/ledger"
)

// Backend is a ledger store that owns a releasable resource.
type Backend interface {
	ledger.Ledger
	Close() error
}

// CleanupFunc releases whatever CreateBackend acquired.
type CleanupFunc func() error

// BackendResult pairs an opened backend with its cleanup. Cleanup is never
// nil and may be called more than once.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory opens the ledger backend for one session.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects a backend and where its data lives.
type Config struct {
	Type BackendType

	// DBPath is the SQLite ledger file.
	DBPath string

	// DataDirectory holds the seed files read by the memory backend.
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// ParseBackendType accepts a configured backend name, case-insensitively.
func ParseBackendType(s string) (BackendType, error) {
	switch bt := BackendType(strings.ToLower(strings.TrimSpace(s))); bt {
	case SQLiteBackend, MemoryBackend:
		return bt, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q", core.ErrValidation, s)
	}
}
