package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type IncomeRecord struct {
	ID          int64
	SessionID   string
	EntryDate   sql.NullString
	Category    string
	AmountCents int64
	CreatedAt   sql.NullTime
}

type ExpenseRecord struct {
	ID          int64
	SessionID   string
	EntryDate   sql.NullString
	Description string
	AmountCents int64
	CreatedAt   sql.NullTime
}

const createIncome = `-- name: CreateIncome :one
INSERT INTO income_records (session_id, entry_date, category, amount_cents)
VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateIncomeParams struct {
	SessionID   string
	EntryDate   sql.NullString
	Category    string
	AmountCents int64
}

func (q *Queries) CreateIncome(ctx context.Context, arg CreateIncomeParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createIncome,
		arg.SessionID,
		arg.EntryDate,
		arg.Category,
		arg.AmountCents,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createExpense = `-- name: CreateExpense :one
INSERT INTO expense_records (session_id, entry_date, description, amount_cents)
VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateExpenseParams struct {
	SessionID   string
	EntryDate   sql.NullString
	Description string
	AmountCents int64
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.SessionID,
		arg.EntryDate,
		arg.Description,
		arg.AmountCents,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listIncomeBySession = `-- name: ListIncomeBySession :many
SELECT id, session_id, entry_date, category, amount_cents, created_at
FROM income_records
WHERE session_id = ?
ORDER BY id
`

func (q *Queries) ListIncomeBySession(ctx context.Context, sessionID string) ([]IncomeRecord, error) {
	rows, err := q.db.QueryContext(ctx, listIncomeBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IncomeRecord
	for rows.Next() {
		var i IncomeRecord
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.EntryDate,
			&i.Category,
			&i.AmountCents,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listExpenseBySession = `-- name: ListExpenseBySession :many
SELECT id, session_id, entry_date, description, amount_cents, created_at
FROM expense_records
WHERE session_id = ?
ORDER BY id
`

func (q *Queries) ListExpenseBySession(ctx context.Context, sessionID string) ([]ExpenseRecord, error) {
	rows, err := q.db.QueryContext(ctx, listExpenseBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRecord
	for rows.Next() {
		var i ExpenseRecord
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.EntryDate,
			&i.Description,
			&i.AmountCents,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteIncomeBySession = `-- name: DeleteIncomeBySession :exec
DELETE FROM income_records WHERE session_id = ?
`

func (q *Queries) DeleteIncomeBySession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteIncomeBySession, sessionID)
	return err
}

const deleteExpenseBySession = `-- name: DeleteExpenseBySession :exec
DELETE FROM expense_records WHERE session_id = ?
`

func (q *Queries) DeleteExpenseBySession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteExpenseBySession, sessionID)
	return err
}

const countSessions = `-- name: CountSessions :one
SELECT COUNT(*) FROM (
    SELECT session_id FROM income_records
    UNION
    SELECT session_id FROM expense_records
)
`

func (q *Queries) CountSessions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSessions)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}
