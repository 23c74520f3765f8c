package memory

import (
	"context"
	"errors"
	"sync"

	"banchi/internal/core"
	"banchi/internal/ledger"
)

var ErrClosed = errors.New("ledger store closed")

type Store struct {
	mu      sync.Mutex
	income  []core.IncomeRecord
	expense []core.ExpenseRecord
	closed  bool
}

func New() *Store {
	return &Store{}
}

// AppendIncome stores a validated income record.
func (s *Store) AppendIncome(_ context.Context, r core.IncomeRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.income = append(s.income, r)
	return nil
}

// AppendExpense stores a validated expense record.
func (s *Store) AppendExpense(_ context.Context, r core.ExpenseRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.expense = append(s.expense, r)
	return nil
}

func (s *Store) IncomeRecords(_ context.Context) ([]core.IncomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.IncomeRecord(nil), s.income...), nil
}

func (s *Store) ExpenseRecords(_ context.Context) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseRecord(nil), s.expense...), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.income = nil
	s.expense = nil
	return nil
}

// Factory hands out one independent Store per session.
type Factory struct{}

func (Factory) NewStore(_ context.Context, _ string) (ledger.Store, error) {
	return New(), nil
}
