package store

import (
	"sync"
	"testing"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
)

func testTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.Load([]byte("timestamp,rider,distance_km\n2024-01-01,Alice,10\n"), "text/csv", nil)
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return tbl
}

func TestStoreEmpty(t *testing.T) {
	s := New()
	if tbl, ok := s.Current(); ok || tbl != nil {
		t.Errorf("empty store returned (%v, %v), want (nil, false)", tbl, ok)
	}
}

func TestStoreReplaceAndCurrent(t *testing.T) {
	s := New()
	tbl := testTable(t)

	s.Replace(tbl)
	got, ok := s.Current()
	if !ok || got != tbl {
		t.Errorf("Current() = (%v, %v), want stored table", got, ok)
	}
}

func TestStoreClear(t *testing.T) {
	s := New()
	s.Replace(testTable(t))
	s.Clear()
	if _, ok := s.Current(); ok {
		t.Error("store still holds a table after Clear")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New()
	tbl := testTable(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Replace(tbl)
		}()
		go func() {
			defer wg.Done()
			if got, ok := s.Current(); ok && got == nil {
				t.Error("Current returned ok with a nil table")
			}
		}()
	}
	wg.Wait()
}
