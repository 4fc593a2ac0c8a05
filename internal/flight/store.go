package flight

import (
	"sync"
	"time"

	"airtracker/panel/internal/document"
)

// Invalidator is told when a redraw is needed.
type Invalidator interface {
	Mark()
}

// Store owns the process-wide State. The ingestion worker is its only writer; the
// renderer and the status API read copies through Snapshot.
type Store struct {
	mu    sync.RWMutex
	state State

	loc   *time.Location
	dirty Invalidator
	now   func() time.Time

	applied uint64
	changed uint64
}

// NewStore creates a store holding Defaults. loc is the time zone used for the ETA.
func NewStore(loc *time.Location, dirty Invalidator) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		state: Defaults(),
		loc:   loc,
		dirty: dirty,
		now:   time.Now,
	}
}

// SetClock overrides the wall clock used for ETA computation.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Apply merges doc into a scratch copy and publishes it in one step, so readers never
// see a half-applied message. It marks the invalidator only when something changed.
func (s *Store) Apply(doc document.Value) bool {
	s.mu.RLock()
	scratch := s.state
	now := s.now()
	s.mu.RUnlock()

	changed := Apply(doc, &scratch, now, s.loc)

	s.mu.Lock()
	s.applied++
	if changed {
		s.state = scratch
		s.changed++
	}
	s.mu.Unlock()

	if changed && s.dirty != nil {
		s.dirty.Mark()
	}
	return changed
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Counts returns how many documents were applied and how many changed the state.
func (s *Store) Counts() (applied, changed uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied, s.changed
}

// Location returns the time zone used for ETA formatting.
func (s *Store) Location() *time.Location {
	return s.loc
}
