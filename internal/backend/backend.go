// Package backend wires a storage backend (and its optional sync publisher)
// from configuration.
package backend

import (
	"budget/internal/ledger"
)

// Type selects the storage backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	CSVBackend      Type = "csv"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, CSVBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a wired backend. Publisher is nil unless the backend
// participates in the spreadsheet mirror pipeline.
type Result struct {
	Store     ledger.RecordStore
	Publisher ledger.SyncPublisher
	Cleanup   CleanupFunc
}
