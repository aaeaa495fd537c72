// Package ledger orchestrates expense operations over a storage backend:
// derivation of reimbursed amounts at write time, deletes, ordered listing,
// budget summaries and the two export views.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// ErrNotFound is returned by Delete for an unknown record id.
var ErrNotFound = core.ErrNotFound

// Ledger applies the active reimbursement rule and persists records through
// the store. Each mutation is a single synchronous store call; there is no
// batching.
type Ledger struct {
	store     RecordStore
	publisher SyncPublisher // optional
	rule      core.Rule
	budget    decimal.Decimal
}

// New creates a Ledger. The publisher may be nil when no mirror is
// configured.
func New(store RecordStore, publisher SyncPublisher, rule core.Rule, budgetTotal decimal.Decimal) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		rule:      rule,
		budget:    budgetTotal,
	}
}

// Rule returns the active reimbursement rule.
func (l *Ledger) Rule() core.Rule {
	return l.rule
}

// BudgetTotal returns the configured budget total.
func (l *Ledger) BudgetTotal() decimal.Decimal {
	return l.budget
}

// Add validates the draft, derives its reimbursed amount and appends it to
// the store. Returns the store-assigned id.
func (l *Ledger) Add(ctx context.Context, r core.Record) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	r.Reimbursed = l.rule.Derive(r.Charged, r.OutOfPocket)

	id, err := l.store.Append(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("append record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"id", id,
		"vendor", r.Vendor,
		"charged", r.Charged.String(),
		"reimbursed", r.Reimbursed.String(),
		"out_of_pocket", r.OutOfPocket)

	l.publish(ctx, id, "add")
	return id, nil
}

// Delete removes the record matching id. An unknown id yields ErrNotFound,
// which callers may treat as a no-op.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	if err := l.store.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete record: %w", err)
	}

	slog.InfoContext(ctx, "Record deleted", "id", id)
	l.publish(ctx, id, "delete")
	return nil
}

// List returns all records in insertion order.
func (l *Ledger) List(ctx context.Context) ([]core.Record, error) {
	records, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Summary computes the budget position over the full record set.
func (l *Ledger) Summary(ctx context.Context) (core.Summary, error) {
	records, err := l.List(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(records, l.budget), nil
}

// ExportView returns the subset for one of the two spreadsheet downloads.
func (l *Ledger) ExportView(ctx context.Context, outOfPocket bool) ([]core.Record, error) {
	records, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterByPocketFlag(records, outOfPocket), nil
}

// publish sends a mirror sync message. Failures are logged and never fail
// the user request; the record is already persisted locally.
func (l *Ledger) publish(ctx context.Context, id int64, op string) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishRecordSync(ctx, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "op", op, "error", err)
	}
}
