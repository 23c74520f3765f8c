package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"banchi/internal/core"
	applog "banchi/internal/log"
	"banchi/internal/metrics"
	"banchi/internal/session"
)

// EventPublisher announces admitted records to other processes.
type EventPublisher interface {
	PublishRecordAdmitted(ctx context.Context, sessionID string, rec core.TaggedRecord) error
}

// IncomeForm is an income submission as typed by the user.
type IncomeForm struct {
	Category string
	Amount   string
	Date     string
}

// ExpenseForm is an expense submission as typed by the user.
type ExpenseForm struct {
	Description string
	Amount      string
	Date        string
}

// Summary is the aggregate view of one session's ledger.
type Summary struct {
	Totals     core.Totals
	ByCategory []core.CategoryAmount
	Incomes    int
	Expenses   int
}

// LedgerService runs each submission as one validate-then-append step
// against the caller's session store.
type LedgerService struct {
	publisher EventPublisher
	metrics   *metrics.Recorder
	log       *applog.StructuredLogger
}

// NewLedgerService wires the service. publisher and rec may be nil.
func NewLedgerService(publisher EventPublisher, rec *metrics.Recorder, logger *applog.StructuredLogger) *LedgerService {
	if logger == nil {
		logger = applog.NewStructuredLogger(nil)
	}
	return &LedgerService{
		publisher: publisher,
		metrics:   rec,
		log:       logger,
	}
}

// SubmitIncome parses and validates f and, if valid, appends it to the
// session's income collection. Rejections are *core.ValidationError and
// leave the ledger unchanged.
func (s *LedgerService) SubmitIncome(ctx context.Context, sess *session.Session, f IncomeForm) (core.IncomeRecord, error) {
	rec, err := buildIncome(f)
	if err != nil {
		s.rejected(ctx, sess, core.KindIncome, err)
		return core.IncomeRecord{}, err
	}

	if err := sess.Store.AppendIncome(ctx, rec); err != nil {
		if isValidation(err) {
			s.rejected(ctx, sess, core.KindIncome, err)
			return core.IncomeRecord{}, err
		}
		return core.IncomeRecord{}, fmt.Errorf("append income: %w", err)
	}

	s.admitted(ctx, sess, core.TaggedRecord{Date: rec.Date, Kind: core.KindIncome, Label: rec.Category, Amount: rec.Amount})
	return rec, nil
}

// SubmitExpense is SubmitIncome for the expense collection.
func (s *LedgerService) SubmitExpense(ctx context.Context, sess *session.Session, f ExpenseForm) (core.ExpenseRecord, error) {
	rec, err := buildExpense(f)
	if err != nil {
		s.rejected(ctx, sess, core.KindExpense, err)
		return core.ExpenseRecord{}, err
	}

	if err := sess.Store.AppendExpense(ctx, rec); err != nil {
		if isValidation(err) {
			s.rejected(ctx, sess, core.KindExpense, err)
			return core.ExpenseRecord{}, err
		}
		return core.ExpenseRecord{}, fmt.Errorf("append expense: %w", err)
	}

	s.admitted(ctx, sess, core.TaggedRecord{Date: rec.Date, Kind: core.KindExpense, Label: rec.Description, Amount: rec.Amount})
	return rec, nil
}

// Summary recomputes totals from the store's current contents.
func (s *LedgerService) Summary(ctx context.Context, sess *session.Session) (Summary, error) {
	income, expense, err := s.Records(ctx, sess)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Totals:     core.ComputeTotals(income, expense),
		ByCategory: core.IncomeByCategory(income),
		Incomes:    len(income),
		Expenses:   len(expense),
	}, nil
}

// Records returns both collections in insertion order.
func (s *LedgerService) Records(ctx context.Context, sess *session.Session) ([]core.IncomeRecord, []core.ExpenseRecord, error) {
	income, err := sess.Store.IncomeRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read income: %w", err)
	}
	expense, err := sess.Store.ExpenseRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read expenses: %w", err)
	}
	return income, expense, nil
}

// Statement combines, filters and sorts the ledger for [from, to]. Zero
// bounds default to the earliest/latest dated record. With no dated records
// and a missing bound the error wraps core.ErrEmptyRangeInput.
func (s *LedgerService) Statement(ctx context.Context, sess *session.Session, from, to core.Date) (core.Statement, error) {
	income, expense, err := s.Records(ctx, sess)
	if err != nil {
		return core.Statement{}, err
	}
	return core.BuildStatement(income, expense, from, to)
}

func buildIncome(f IncomeForm) (core.IncomeRecord, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	rec := core.IncomeRecord{Category: strings.TrimSpace(f.Category), Amount: amount}
	if err := rec.Validate(); err != nil {
		return core.IncomeRecord{}, err
	}
	if rec.Date, err = core.ParseDateField(f.Date); err != nil {
		return core.IncomeRecord{}, err
	}
	return rec, nil
}

func buildExpense(f ExpenseForm) (core.ExpenseRecord, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	rec := core.ExpenseRecord{Description: strings.TrimSpace(f.Description), Amount: amount}
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	if rec.Date, err = core.ParseDateField(f.Date); err != nil {
		return core.ExpenseRecord{}, err
	}
	return rec, nil
}

func isValidation(err error) bool {
	var verr *core.ValidationError
	return errors.As(err, &verr)
}

func (s *LedgerService) rejected(ctx context.Context, sess *session.Session, kind core.Kind, err error) {
	reason := "unknown"
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		reason = verr.Kind.Error()
	}
	s.metrics.RecordRejected(string(kind), reason)
	s.log.LogRecordRejected(ctx, sess.ID, string(kind), err)
}

func (s *LedgerService) admitted(ctx context.Context, sess *session.Session, rec core.TaggedRecord) {
	s.metrics.RecordAdmitted(string(rec.Kind))
	s.log.LogRecordAdmitted(ctx, sess.ID, string(rec.Kind), rec.Label, rec.Date.String(), rec.Amount.Cents)

	if s.publisher == nil {
		return
	}
	// The record is already stored; a broker failure only costs the export.
	err := s.publisher.PublishRecordAdmitted(ctx, sess.ID, rec)
	s.metrics.RecordPublish(err)
	if err != nil {
		s.log.LogError(ctx, "Failed to publish ledger event", err, applog.ComponentAMQP, applog.OpPublish,
			applog.NewFields().WithSessionID(sess.ID))
	}
}
