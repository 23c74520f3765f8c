package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"banchi/internal/amqp"
	applog "banchi/internal/log"
	"banchi/internal/sheets"
)

const appendTimeout = 15 * time.Second

// ExportWorker mirrors ledger events into a spreadsheet.
type ExportWorker struct {
	writer   sheets.RecordWriter
	logger   *slog.Logger
	exported atomic.Int64
	dropped  atomic.Int64
}

func NewExportWorker(writer sheets.RecordWriter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{
		writer: writer,
		logger: logger.With(applog.FieldComponent, applog.ComponentWorker),
	}
}

// HandleLedgerEvent appends the event's record to the sheet. A malformed
// event is logged and dropped; a write failure is returned so the delivery
// is retried.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	rec, err := msg.Record()
	if err != nil {
		w.dropped.Add(1)
		w.logger.WarnContext(ctx, "Dropping malformed ledger event",
			applog.FieldSessionID, msg.SessionID,
			applog.FieldError, err)
		return nil
	}

	actx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	ref, err := w.writer.AppendRecord(actx, msg.SessionID, rec)
	if err != nil {
		return fmt.Errorf("export %s record: %w", rec.Kind, err)
	}
	w.exported.Add(1)

	w.logger.InfoContext(ctx, "Ledger record exported",
		applog.FieldSessionID, msg.SessionID,
		applog.FieldKind, string(rec.Kind),
		applog.FieldAmountCents, rec.Amount.Cents,
		applog.FieldRowRef, ref)
	return nil
}

// Stats returns how many events were exported and dropped so far.
func (w *ExportWorker) Stats() (exported, dropped int64) {
	return w.exported.Load(), w.dropped.Load()
}
