// Package csvfile provides a flat-file record store. The whole ledger is
// loaded into a process cache at startup and flushed back to the file after
// every mutation. Reimbursed amounts are the values stored at insert time;
// this backend never recomputes them.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"budget/internal/core"
)

// Header is the fixed column set of the backing file.
var Header = []string{
	"Date", "Vendor", "Description", "Location", "Recovery Type",
	"Charged Amount", "Reimbursed Amount", "Invoice #", "CHQ REQ #",
	"Out of Pocket?",
}

// Store caches the file contents and rewrites the file on every mutation.
// The file issues no identifiers, so ids are 1-based append positions,
// re-issued on load.
type Store struct {
	mu      sync.Mutex
	path    string
	nextID  int64
	records []core.Record
}

// Open loads the ledger from path, creating an empty file (with header) if
// none exists. A damaged row degrades: malformed amounts coerce to zero and
// unparseable dates leave the row out.
func Open(path string) (*Store, error) {
	s := &Store{path: path, nextID: 1}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if err := s.flush(); err != nil {
			return nil, fmt.Errorf("create ledger file: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	for i, row := range rows {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		rec, ok := parseRow(row)
		if !ok {
			slog.Warn("Skipping damaged ledger row", "file", path, "line", i+1)
			continue
		}
		rec.ID = s.nextID
		s.nextID++
		s.records = append(s.records, rec)
	}

	return s, nil
}

// Append stores the record and flushes the file. The returned id is the
// record's append position.
func (s *Store) Append(_ context.Context, r core.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.records = append(s.records, r)
	if err := s.flush(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return 0, fmt.Errorf("flush ledger file: %w", err)
	}
	s.nextID++
	return r.ID, nil
}

// Delete removes the record with the given id and flushes the file.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			removed := r
			s.records = append(s.records[:i], s.records[i+1:]...)
			if err := s.flush(); err != nil {
				// Restore the cache so it still matches the file.
				s.records = append(s.records[:i], append([]core.Record{removed}, s.records[i:]...)...)
				return fmt.Errorf("flush ledger file: %w", err)
			}
			return nil
		}
	}
	return core.ErrNotFound
}

// List returns a copy of the cached records in append order.
func (s *Store) List(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) flush() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return err
	}
	for _, r := range s.records {
		if err := w.Write(formatRow(r)); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func formatRow(r core.Record) []string {
	oop := "No"
	if r.OutOfPocket {
		oop = "Yes"
	}
	return []string{
		r.Date.String(),
		r.Vendor,
		r.Description,
		r.Location,
		r.RecoveryType,
		r.Charged.String(),
		r.Reimbursed.String(),
		r.Invoice,
		r.ChqReq,
		oop,
	}
}

func parseRow(row []string) (core.Record, bool) {
	if len(row) < len(Header) {
		return core.Record{}, false
	}
	date, err := core.ParseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return core.Record{}, false
	}
	return core.Record{
		Date:         date,
		Vendor:       row[1],
		Description:  row[2],
		Location:     row[3],
		RecoveryType: row[4],
		Charged:      core.CoerceAmount(row[5]),
		Reimbursed:   core.CoerceAmount(row[6]),
		Invoice:      row[7],
		ChqReq:       row[8],
		OutOfPocket:  parseFlag(row[9]),
	}, true
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

func looksLikeHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date")
}
