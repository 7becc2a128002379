// Package store holds the currently loaded dataset for the web front end.
// It replaces an implicit global slot with an explicit owner whose behavior
// under concurrent uploads and reads is defined: readers see either the old
// or the new table, never a torn value.
package store

import (
	"sync"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
)

// Store is a single mutable slot for the current dataset.
type Store struct {
	mu  sync.RWMutex
	cur *dataset.Table
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Replace swaps in a new current dataset.
func (s *Store) Replace(t *dataset.Table) {
	s.mu.Lock()
	s.cur = t
	s.mu.Unlock()
}

// Current returns the current dataset, or false when nothing has been
// loaded yet.
func (s *Store) Current() (*dataset.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur, s.cur != nil
}

// Clear empties the slot.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
}
