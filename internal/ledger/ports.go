package ledger

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordStore is the read/write contract a storage backend must satisfy.
	// Append returns the store-assigned identifier (or append position for
	// stores that issue none). Delete returns core.ErrNotFound for an
	// unknown id. List returns records in insertion order.
	RecordStore interface {
		Append(ctx context.Context, r core.Record) (int64, error)
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]core.Record, error)
	}

	// SyncPublisher publishes record mutations for the spreadsheet mirror.
	SyncPublisher interface {
		PublishRecordSync(ctx context.Context, id int64, op string) error
	}
)
