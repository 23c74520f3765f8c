package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"banchi/internal/core"
	"banchi/internal/ledger"

	_ "modernc.org/sqlite"
)

// memoryDSN keeps the ledger inside the process. A single connection is
// required: each new connection to ":memory:" would see an empty database.
const memoryDSN = "file::memory:?_pragma=foreign_keys(1)"

var ErrClosed = errors.New("sqlite repository closed")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *slog.Logger
}

func NewSQLiteRepository(logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SessionCount returns how many sessions currently hold at least one record.
func (r *SQLiteRepository) SessionCount(ctx context.Context) (int64, error) {
	return r.queries.CountSessions(ctx)
}

// NewStore implements ledger.StoreFactory.
func (r *SQLiteRepository) NewStore(_ context.Context, sessionID string) (ledger.Store, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	return &SessionStore{repo: r, sessionID: sessionID}, nil
}

// SessionStore is the slice of the shared database owned by one session.
type SessionStore struct {
	repo      *SQLiteRepository
	sessionID string

	mu     sync.RWMutex
	closed bool
}

func (s *SessionStore) AppendIncome(ctx context.Context, rec core.IncomeRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	id, err := s.repo.queries.CreateIncome(ctx, CreateIncomeParams{
		SessionID:   s.sessionID,
		EntryDate:   toNullDate(rec.Date),
		Category:    rec.Category,
		AmountCents: rec.Amount.Cents,
	})
	if err != nil {
		return fmt.Errorf("create income: %w", err)
	}

	s.repo.logger.DebugContext(ctx, "Income saved to SQLite",
		"id", id,
		"session_id", s.sessionID,
		"category", rec.Category,
		"amount_cents", rec.Amount.Cents)
	return nil
}

func (s *SessionStore) AppendExpense(ctx context.Context, rec core.ExpenseRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	id, err := s.repo.queries.CreateExpense(ctx, CreateExpenseParams{
		SessionID:   s.sessionID,
		EntryDate:   toNullDate(rec.Date),
		Description: rec.Description,
		AmountCents: rec.Amount.Cents,
	})
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	s.repo.logger.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"session_id", s.sessionID,
		"description", rec.Description,
		"amount_cents", rec.Amount.Cents)
	return nil
}

func (s *SessionStore) IncomeRecords(ctx context.Context) ([]core.IncomeRecord, error) {
	rows, err := s.repo.queries.ListIncomeBySession(ctx, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	out := make([]core.IncomeRecord, 0, len(rows))
	for _, row := range rows {
		d, err := fromNullDate(row.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("income %d: %w", row.ID, err)
		}
		out = append(out, core.IncomeRecord{
			Date:     d,
			Category: row.Category,
			Amount:   core.Money{Cents: row.AmountCents},
		})
	}
	return out, nil
}

func (s *SessionStore) ExpenseRecords(ctx context.Context) ([]core.ExpenseRecord, error) {
	rows, err := s.repo.queries.ListExpenseBySession(ctx, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for _, row := range rows {
		d, err := fromNullDate(row.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		out = append(out, core.ExpenseRecord{
			Date:        d,
			Description: row.Description,
			Amount:      core.Money{Cents: row.AmountCents},
		})
	}
	return out, nil
}

// Close deletes every row of the session. Further appends fail.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx := context.Background()
	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.repo.queries.WithTx(tx)
	if err := q.DeleteIncomeBySession(ctx, s.sessionID); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if err := q.DeleteExpenseBySession(ctx, s.sessionID); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	return tx.Commit()
}

func toNullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func fromNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}
