package ledger

import (
	"context"

	"banchi/internal/core"
)

// Ports for the session-scoped record stores.
type (
	// Store holds the income and expense collections of one session.
	// Records are only ever appended; reads return copies in insertion order.
	Store interface {
		AppendIncome(ctx context.Context, r core.IncomeRecord) error
		AppendExpense(ctx context.Context, r core.ExpenseRecord) error
		IncomeRecords(ctx context.Context) ([]core.IncomeRecord, error)
		ExpenseRecords(ctx context.Context) ([]core.ExpenseRecord, error)
		// Close discards the session's records.
		Close() error
	}

	// StoreFactory creates an empty Store for a new session.
	StoreFactory interface {
		NewStore(ctx context.Context, sessionID string) (Store, error)
	}
)
