// Package postgres provides the Postgres record store, matching the
// relational contract of the original deployment: a pooled connection,
// one transaction per mutation, reimbursed amounts recomputed on read.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"budget/internal/core"
)

type Store struct {
	db   *sql.DB
	rule core.Rule
}

const schema = `
CREATE TABLE IF NOT EXISTS expenses (
    id SERIAL PRIMARY KEY,
    date DATE NOT NULL,
    vendor TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    recovery_type TEXT NOT NULL DEFAULT '',
    charged_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
    invoice TEXT NOT NULL DEFAULT '',
    chq_req TEXT NOT NULL DEFAULT '',
    out_of_pocket BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Open connects to Postgres, verifies the connection and bootstraps the
// expenses table.
func Open(url string, rule core.Rule) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create expenses table: %w", err)
	}

	return &Store{db: db, rule: rule}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts the record in its own transaction and returns the new id.
func (s *Store) Append(ctx context.Context, rec core.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO expenses (date, vendor, description, location, recovery_type,
			charged_amount, invoice, chq_req, out_of_pocket)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		rec.Date.Time, rec.Vendor, rec.Description, rec.Location,
		rec.RecoveryType, rec.Charged.String(), rec.Invoice, rec.ChqReq,
		rec.OutOfPocket).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return id, nil
}

// Delete removes the row in its own transaction. Unknown ids yield
// core.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
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

// List returns all records ordered by id, re-deriving reimbursed amounts.
func (s *Store) List(ctx context.Context) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, vendor, description, location, recovery_type,
			charged_amount, invoice, chq_req, out_of_pocket
		FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			rec        core.Record
			date       time.Time
			chargedStr string
		)
		if err := rows.Scan(&rec.ID, &date, &rec.Vendor, &rec.Description,
			&rec.Location, &rec.RecoveryType, &chargedStr, &rec.Invoice,
			&rec.ChqReq, &rec.OutOfPocket); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		rec.Date = core.Date{Time: date}
		rec.Charged = core.CoerceAmount(chargedStr)
		rec.Reimbursed = s.rule.Derive(rec.Charged, rec.OutOfPocket)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, id int64) (core.Record, error) {
	var (
		rec        core.Record
		date       time.Time
		chargedStr string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, vendor, description, location, recovery_type,
			charged_amount, invoice, chq_req, out_of_pocket
		FROM expenses WHERE id = $1`, id).
		Scan(&rec.ID, &date, &rec.Vendor, &rec.Description, &rec.Location,
			&rec.RecoveryType, &chargedStr, &rec.Invoice, &rec.ChqReq,
			&rec.OutOfPocket)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get expense: %w", err)
	}

	rec.Date = core.Date{Time: date}
	rec.Charged = core.CoerceAmount(chargedStr)
	rec.Reimbursed = s.rule.Derive(rec.Charged, rec.OutOfPocket)
	return rec, nil
}
