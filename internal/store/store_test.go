package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofsdigital/acta-scanner/internal/acta"
)

func rec(folio, curp, scanned string) acta.Record {
	return acta.Record{Folio: folio, CURP: curp, FechaEscaneo: scanned}
}

func TestInsertAndCount(t *testing.T) {
	s := New(0)

	field, err := s.Insert(rec("123", "", "2025-01-01 10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "Folio", field)

	field, err = s.Insert(rec("", "PELJ900201HTLRPN04", "2025-01-01 10:00:01"))
	require.NoError(t, err)
	assert.Equal(t, "CURP", field)

	assert.Equal(t, 2, s.Count())
}

func TestInsertRejectsMissingIdentity(t *testing.T) {
	s := New(0)

	_, err := s.Insert(rec("", "", "2025-01-01 10:00:00"))
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Equal(t, 0, s.Count())
}

func TestInsertRejectsDuplicateFolio(t *testing.T) {
	s := New(0)

	_, err := s.Insert(rec("123", "AAAA000000HTLXXX01", "2025-01-01 10:00:00"))
	require.NoError(t, err)

	// Same Folio, different CURP: still a duplicate.
	_, err = s.Insert(rec("123", "BBBB000000HTLXXX02", "2025-01-01 10:00:01"))

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Folio", dup.Field)
	assert.Equal(t, "123", dup.Value)
	assert.Equal(t, 1, s.Count())
}

func TestInsertRejectsDuplicateCURP(t *testing.T) {
	s := New(0)

	_, err := s.Insert(rec("1", "AAAA000000HTLXXX01", "2025-01-01 10:00:00"))
	require.NoError(t, err)

	_, err = s.Insert(rec("2", "AAAA000000HTLXXX01", "2025-01-01 10:00:01"))

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "CURP", dup.Field)
	assert.Equal(t, 1, s.Count())
}

func TestDedupInvariant(t *testing.T) {
	s := New(0)

	inserts := []acta.Record{
		rec("1", "", "2025-01-01 10:00:00"),
		rec("1", "", "2025-01-01 10:00:01"),
		rec("", "CCCC000000HTLXXX03", "2025-01-01 10:00:02"),
		rec("2", "CCCC000000HTLXXX03", "2025-01-01 10:00:03"),
		rec("2", "", "2025-01-01 10:00:04"),
		rec("2", "", "2025-01-01 10:00:05"),
	}
	for _, r := range inserts {
		_, _ = s.Insert(r)
	}

	folios := map[string]int{}
	curps := map[string]int{}
	for _, r := range s.List() {
		if r.Folio != "" {
			folios[r.Folio]++
		}
		if r.CURP != "" {
			curps[r.CURP]++
		}
	}
	for f, n := range folios {
		assert.Equal(t, 1, n, "folio %s stored %d times", f, n)
	}
	for c, n := range curps {
		assert.Equal(t, 1, n, "curp %s stored %d times", c, n)
	}
}

func TestCapacityLimit(t *testing.T) {
	s := New(3)

	for i := 0; i < 3; i++ {
		_, err := s.Insert(rec(fmt.Sprintf("f%d", i), "", "2025-01-01 10:00:00"))
		require.NoError(t, err)
	}

	_, err := s.Insert(rec("f3", "", "2025-01-01 10:00:01"))

	var full *CapacityError
	require.ErrorAs(t, err, &full)
	assert.Equal(t, 3, full.Limit)
	assert.Equal(t, 3, s.Count())
}

func TestListOrderedByScanTimeDescending(t *testing.T) {
	s := New(0)

	_, _ = s.Insert(rec("a", "", "2025-01-01 10:00:05"))
	_, _ = s.Insert(rec("b", "", "2025-01-03 08:00:00"))
	_, _ = s.Insert(rec("c", "", "2025-01-02 23:59:59"))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].Folio)
	assert.Equal(t, "c", list[1].Folio)
	assert.Equal(t, "a", list[2].Folio)
}

func TestListRoundTripAllFields(t *testing.T) {
	s := New(0)

	in := acta.Record{
		Tomo: "1", Libro: "2", Foja: "3", Acta: "4",
		Entidad: "TLAXCALA", Municipio: "APIZACO",
		CURP: "PELJ900201HTLRPN04", Registrado: "JUAN PEREZ LOPEZ",
		Padre: "JOSE", Madre: "ANA",
		FechaNacimiento: "1990-02-01", Sexo: "H",
		FechaRegistro: "2010-06-15", Oficial: "01",
		Folio: "123456789", FechaEscaneo: "2025-01-01 10:00:00",
	}
	_, err := s.Insert(in)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, in, list[0])
}

func TestListSnapshotDoesNotAliasStorage(t *testing.T) {
	s := New(0)
	_, _ = s.Insert(rec("1", "", "2025-01-01 10:00:00"))

	list := s.List()
	list[0].Folio = "mutated"

	assert.Equal(t, "1", s.List()[0].Folio)
}

func TestClear(t *testing.T) {
	s := New(0)
	for i := 0; i < 5; i++ {
		_, err := s.Insert(rec(fmt.Sprintf("f%d", i), "", "2025-01-01 10:00:00"))
		require.NoError(t, err)
	}

	assert.Equal(t, 5, s.Clear())
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List())

	// The store remains usable after a clear.
	_, err := s.Insert(rec("again", "", "2025-01-01 11:00:00"))
	assert.NoError(t, err)
}

func TestConcurrentInsertsSameIdentity(t *testing.T) {
	// Two racing inserts with the same Folio must never both pass the
	// duplicate check: the scan and the append form one critical section.
	for round := 0; round < 50; round++ {
		s := New(0)
		var wg sync.WaitGroup
		var successes, duplicates int32
		var mu sync.Mutex

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Insert(rec("same", "", "2025-01-01 10:00:00"))
				mu.Lock()
				defer mu.Unlock()
				var dup *DuplicateError
				switch {
				case err == nil:
					successes++
				case errors.As(err, &dup):
					duplicates++
				}
			}()
		}
		wg.Wait()

		require.EqualValues(t, 1, successes)
		require.EqualValues(t, 7, duplicates)
		require.Equal(t, 1, s.Count())
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	s := New(0)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Insert(rec(fmt.Sprintf("f%d", i), "", "2025-01-01 10:00:00"))
			_ = s.Count()
			_ = s.List()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Count())
}
