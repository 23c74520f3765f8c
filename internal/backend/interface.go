package backend

import (
	"context"

	"banchi/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// SessionCountFunc reports how many sessions hold stored records.
type SessionCountFunc func(ctx context.Context) (int64, error)

// BackendResult contains the store factory and its lifecycle hooks.
// Ready and Cleanup are never nil; StoredSessions is nil for backends
// that cannot count sessions.
type BackendResult struct {
	Stores         ledger.StoreFactory
	Ready          ReadyFunc
	Cleanup        CleanupFunc
	StoredSessions SessionCountFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
