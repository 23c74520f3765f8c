package worker

import (
	"context"
	"errors"
	"testing"

	"banchi/internal/amqp"
	"banchi/internal/core"
)

type fakeWriter struct {
	rows []core.TaggedRecord
	err  error
}

func (f *fakeWriter) AppendRecord(_ context.Context, _ string, rec core.TaggedRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, rec)
	return "Ledger!A2:F2", nil
}

func TestHandleLedgerEvent(t *testing.T) {
	w := &fakeWriter{}
	ew := NewExportWorker(w, nil)

	msg := amqp.NewLedgerEventMessage("s1", core.TaggedRecord{
		Date:   core.NewDate(2025, 6, 1),
		Kind:   core.KindExpense,
		Label:  "กระดาษ A4",
		Amount: core.Money{Cents: 12050},
	})
	if err := ew.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}
	if len(w.rows) != 1 || w.rows[0].Label != "กระดาษ A4" {
		t.Fatalf("unexpected rows %+v", w.rows)
	}
	if exported, dropped := ew.Stats(); exported != 1 || dropped != 0 {
		t.Fatalf("stats = %d/%d", exported, dropped)
	}
}

func TestHandleLedgerEventDropsMalformed(t *testing.T) {
	w := &fakeWriter{}
	ew := NewExportWorker(w, nil)

	err := ew.HandleLedgerEvent(context.Background(), &amqp.LedgerEventMessage{Kind: "refund", AmountCents: 1})
	if err != nil {
		t.Fatalf("malformed events are dropped, got %v", err)
	}
	if len(w.rows) != 0 {
		t.Fatalf("nothing should be written")
	}
	if _, dropped := ew.Stats(); dropped != 1 {
		t.Fatalf("dropped = %d", dropped)
	}
}

func TestHandleLedgerEventWriterError(t *testing.T) {
	boom := errors.New("quota exceeded")
	ew := NewExportWorker(&fakeWriter{err: boom}, nil)

	msg := &amqp.LedgerEventMessage{Kind: "income", Label: "x", AmountCents: 100}
	if err := ew.HandleLedgerEvent(context.Background(), msg); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}
