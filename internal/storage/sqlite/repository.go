// Package sqlite provides the SQLite record store. The reimbursed amount is
// never stored; it is recomputed from the charged amount and the
// out-of-pocket flag on every read. Rows carry a sync status for the
// spreadsheet mirror pipeline.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"budget/internal/core"
)

type Repository struct {
	db   *sql.DB
	rule core.Rule
}

// SyncRecord is the minimal row state the mirror worker needs.
type SyncRecord struct {
	ID         int64
	SyncStatus string
}

func NewRepository(dbPath string, rule core.Rule) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, rule: rule}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append inserts the record in its own transaction and returns the new id.
func (r *Repository) Append(ctx context.Context, rec core.Record) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (date, vendor, description, location, recovery_type,
			charged_amount, invoice, chq_req, out_of_pocket)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date.String(), rec.Vendor, rec.Description, rec.Location,
		rec.RecoveryType, rec.Charged.String(), rec.Invoice, rec.ChqReq,
		rec.OutOfPocket)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite", "id", id, "vendor", rec.Vendor)
	return id, nil
}

// Delete removes the row in its own transaction. Unknown ids yield
// core.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	return tx.Commit()
}

// List returns all records ordered by id ascending, re-deriving the
// reimbursed amount with the active rule.
func (r *Repository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, vendor, description, location, recovery_type,
			charged_amount, invoice, chq_req, out_of_pocket
		FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id int64) (core.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, vendor, description, location, recovery_type,
			charged_amount, invoice, chq_req, out_of_pocket
		FROM expenses WHERE id = ?`, id)

	rec, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

// ListPendingSync returns up to limit ids awaiting a mirror push.
func (r *Repository) ListPendingSync(ctx context.Context, limit int) ([]SyncRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sync_status FROM expenses
		WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync: %w", err)
	}
	defer rows.Close()

	var out []SyncRecord
	for rows.Next() {
		var sr SyncRecord
		if err := rows.Scan(&sr.ID, &sr.SyncStatus); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// MarkSynced marks a row as mirrored.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// MarkSyncError marks a row as having failed a mirror push.
func (r *Repository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scan(row scanner) (core.Record, error) {
	var (
		rec        core.Record
		dateStr    string
		chargedStr string
	)
	if err := row.Scan(&rec.ID, &dateStr, &rec.Vendor, &rec.Description,
		&rec.Location, &rec.RecoveryType, &chargedStr, &rec.Invoice,
		&rec.ChqReq, &rec.OutOfPocket); err != nil {
		return core.Record{}, err
	}

	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	rec.Date = date
	// Damaged amounts coerce to zero; reads never fail on a bad row.
	rec.Charged = core.CoerceAmount(chargedStr)
	rec.Reimbursed = r.rule.Derive(rec.Charged, rec.OutOfPocket)
	return rec, nil
}
