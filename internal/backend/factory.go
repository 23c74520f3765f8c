package backend

import (
	"context"
	"fmt"
	"log/slog"

	"banchi/internal/ledger/memory"
	"banchi/internal/storage"
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
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend()
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend() (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "backend", SQLiteBackend)

	return &BackendResult{
		Stores:         repo,
		Ready:          repo.Ping,
		Cleanup:        repo.Close,
		StoredSessions: repo.SessionCount,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", "backend", MemoryBackend)

	return &BackendResult{
		Stores:  memory.Factory{},
		Ready:   func(context.Context) error { return nil },
		Cleanup: func() error { return nil },
	}, nil
}
