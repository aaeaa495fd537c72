// Package worker pushes locally saved records to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/storage/sqlite"
)

// Mirror is the destination for mirrored records.
type Mirror interface {
	AppendRecord(ctx context.Context, r core.Record) error
}

// SyncWorker consumes record-sync messages and keeps a periodic catch-up
// scan for rows that never got a message through.
type SyncWorker struct {
	storage   *sqlite.Repository
	mirror    Mirror
	batchSize int
}

func NewSyncWorker(storage *sqlite.Repository, mirror Mirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one queue message. Deletes are acknowledged
// without sheet work: the mirror is append-only and the row is already gone
// locally.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	if msg.Op == amqp.OpDelete {
		slog.InfoContext(ctx, "Record deleted locally, mirror keeps its row", "id", msg.ID)
		return nil
	}

	record, err := w.storage.Get(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; nothing to mirror.
		slog.WarnContext(ctx, "Record gone before mirror push", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}

	if err := w.mirror.AppendRecord(ctx, record); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, msg.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("mirror record: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// RunCatchUp scans for pending rows on the given interval until the context
// is cancelled. It covers messages lost while the broker or worker was down.
func (w *SyncWorker) RunCatchUp(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.syncPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Catch-up scan failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Catch-up scan found pending records", "count", len(pending))

	for _, p := range pending {
		msg := amqp.NewRecordSyncMessage(p.ID, amqp.OpAdd)
		if err := w.HandleSyncMessage(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending record", "id", p.ID, "error", err)
		}
	}
	return nil
}
