package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

func record(vendor, charged string, oop bool) core.Record {
	c := decimal.RequireFromString(charged)
	return core.Record{
		Date:         core.NewDate(2025, 7, 4),
		Vendor:       vendor,
		Description:  "desc",
		Location:     "HQ",
		RecoveryType: "travel",
		Charged:      c,
		Invoice:      "INV-1",
		ChqReq:       "CHQ-1",
		OutOfPocket:  oop,
		Reimbursed:   core.OutOfPocketRule.Derive(c, oop),
	}
}

func TestOpenCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if _, err := Open(path); err != nil {
		t.Fatalf("open: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(data), "Date,Vendor,Description") {
		t.Fatalf("missing header: %q", string(data))
	}
}

func TestAppendFlushesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	in := record("Acme", "123.45", false)
	id, err := s.Append(ctx, in)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected position 1, got %d", id)
	}

	// A fresh store loads the same ledger from the flushed file.
	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reloaded.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if !got[0].Equal(in) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", in, got[0])
	}
	if got[0].ID != 1 {
		t.Fatalf("expected re-issued position 1, got %d", got[0].ID)
	}
}

func TestDeleteFlushesAndPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	ctx := context.Background()

	s, _ := Open(path)
	for _, v := range []string{"a", "b", "c"} {
		if _, err := s.Append(ctx, record(v, "1", false)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := s.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, 2); err != core.ErrNotFound {
		t.Fatalf("second delete expected ErrNotFound, got %v", err)
	}

	reloaded, _ := Open(path)
	got, _ := reloaded.List(ctx)
	if len(got) != 2 || got[0].Vendor != "a" || got[1].Vendor != "c" {
		t.Fatalf("unexpected records after delete: %+v", got)
	}
}

func TestDamagedRowsDegrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	content := strings.Join([]string{
		strings.Join(Header, ","),
		"2025-01-02,Acme,ok,HQ,travel,not-a-number,also-bad,INV,CHQ,Yes",
		"not-a-date,Bad,row,HQ,travel,1,1,INV,CHQ,No",
		"2025-01-03,Beta,ok,HQ,travel,9.99,9.99,INV,CHQ,No",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := s.List(context.Background())

	// The unparseable date drops its row; malformed amounts coerce to zero.
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].Charged.IsZero() || !got[0].Reimbursed.IsZero() {
		t.Fatalf("malformed amounts should coerce to zero: %+v", got[0])
	}
	if !got[0].OutOfPocket {
		t.Fatalf("expected Yes flag to parse true")
	}
	if !got[1].Charged.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("intact row mangled: %+v", got[1])
	}
}
