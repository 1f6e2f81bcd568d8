// Package store provides the in-memory acta ledger shared by all request
// handlers. The store is the only shared mutable state in the service.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ofsdigital/acta-scanner/internal/acta"
)

// DefaultMaxRecords caps the ledger size when no explicit limit is configured.
const DefaultMaxRecords = 10000

// ErrNoIdentity rejects records carrying neither a Folio nor a CURP: without
// an identity the duplicate check cannot work.
var ErrNoIdentity = errors.New("record has neither Folio nor CURP")

// DuplicateError reports an insert that collided with a stored record.
type DuplicateError struct {
	Field string // "Folio" or "CURP"
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record: %s %s already registered", e.Field, e.Value)
}

// CapacityError reports an insert rejected because the ledger is full.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("record limit reached (%d records); export and clear before continuing", e.Limit)
}

// Store is the concurrency-safe ledger of scanned actas. Records are kept in
// insertion order; ordering for display is applied at read time. A single
// mutex covers every operation so the duplicate scan and the append happen as
// one atomic unit.
type Store struct {
	mu         sync.Mutex
	records    []acta.Record
	maxRecords int
}

// New creates an empty store holding at most maxRecords entries. A
// non-positive limit falls back to DefaultMaxRecords.
func New(maxRecords int) *Store {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Store{maxRecords: maxRecords}
}

// Insert appends a record unless it lacks an identity, duplicates a stored
// record, or the store is at capacity. On success it returns the name of the
// field that identified the record ("Folio" or "CURP").
//
// The duplicate check runs on both axes independently: a candidate matching a
// stored Folio or a stored CURP is a duplicate even when the other field
// differs.
func (s *Store) Insert(rec acta.Record) (string, error) {
	if rec.Key() == "" {
		return "", ErrNoIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) >= s.maxRecords {
		return "", &CapacityError{Limit: s.maxRecords}
	}

	for _, r := range s.records {
		if rec.Folio != "" && r.Folio == rec.Folio {
			return "", &DuplicateError{Field: "Folio", Value: rec.Folio}
		}
		if rec.CURP != "" && r.CURP == rec.CURP {
			return "", &DuplicateError{Field: "CURP", Value: rec.CURP}
		}
	}

	s.records = append(s.records, rec)

	if rec.Folio != "" {
		return "Folio", nil
	}
	return "CURP", nil
}

// List returns a snapshot of all records sorted by FechaEscaneo descending
// (most recent scan first). The snapshot is a copy; callers cannot mutate
// stored state through it.
func (s *Store) List() []acta.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]acta.Record, len(s.records))
	copy(out, s.records)

	// The timestamp layout sorts lexicographically in chronological order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FechaEscaneo > out[j].FechaEscaneo
	})
	return out
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear empties the store and returns how many records were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.records)
	s.records = nil
	return removed
}
