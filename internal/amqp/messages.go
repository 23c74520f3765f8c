package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"banchi/internal/core"
)

// RoutingKeyRecordAdmitted is the routing key of LedgerEventMessage.
const RoutingKeyRecordAdmitted = "ledger.record_admitted"

// LedgerEventMessage announces one admitted ledger record. It carries the
// whole row: the web process keeps nothing the worker could fetch later.
type LedgerEventMessage struct {
	SessionID   string    `json:"session_id"`
	Kind        string    `json:"kind"`
	Date        string    `json:"date,omitempty"`
	Label       string    `json:"label"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEventMessage builds the message for rec.
func NewLedgerEventMessage(sessionID string, rec core.TaggedRecord) *LedgerEventMessage {
	return &LedgerEventMessage{
		SessionID:   sessionID,
		Kind:        string(rec.Kind),
		Date:        rec.Date.String(),
		Label:       rec.Label,
		AmountCents: rec.Amount.Cents,
		Timestamp:   time.Now(),
	}
}

// Record converts the message back to a ledger row.
func (m *LedgerEventMessage) Record() (core.TaggedRecord, error) {
	kind := core.Kind(m.Kind)
	if kind != core.KindIncome && kind != core.KindExpense {
		return core.TaggedRecord{}, fmt.Errorf("unknown record kind %q", m.Kind)
	}
	if m.AmountCents <= 0 {
		return core.TaggedRecord{}, errors.New("amount must be positive")
	}
	d, err := core.ParseDate(m.Date)
	if err != nil {
		return core.TaggedRecord{}, fmt.Errorf("parse date: %w", err)
	}
	return core.TaggedRecord{
		Date:   d,
		Kind:   kind,
		Label:  m.Label,
		Amount: core.Money{Cents: m.AmountCents},
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
