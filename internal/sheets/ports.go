package sheets

import (
	"context"

	"banchi/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordWriter mirrors admitted ledger rows into an external sheet.
	RecordWriter interface {
		AppendRecord(ctx context.Context, sessionID string, rec core.TaggedRecord) (rowRef string, err error)
	}
)
