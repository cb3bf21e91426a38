package retention

import (
	"github.com/icinga/icinga-livestatus/pkg/core"
	"maps"
	"slices"
	"sync"
)

// Comments maps comment IDs to comments.
type Comments map[uint64]*core.Comment

// Downtimes maps downtime IDs to downtimes.
type Downtimes map[uint64]*core.Downtime

// Store holds the comments and downtimes of the monitoring core.
// Readers may run concurrently with one another and with replacements of the whole collections,
// which the retention loader performs on its own schedule.
// Stored values must not be mutated once they have been handed to the Store.
type Store struct {
	mu        sync.RWMutex
	comments  Comments
	downtimes Downtimes
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{comments: Comments{}, downtimes: Downtimes{}}
}

// ReplaceComments replaces all comments with c.
func (s *Store) ReplaceComments(c Comments) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments = c
}

// ReplaceDowntimes replaces all downtimes with d.
func (s *Store) ReplaceDowntimes(d Downtimes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downtimes = d
}

// AllComments calls pred for every comment in ascending ID order
// and returns false as soon as pred does, true otherwise.
func (s *Store) AllComments(pred func(*core.Comment) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return allOf(s.comments, pred)
}

// AllDowntimes calls pred for every downtime in ascending ID order
// and returns false as soon as pred does, true otherwise.
func (s *Store) AllDowntimes(pred func(*core.Downtime) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return allOf(s.downtimes, pred)
}

// NumComments returns the number of comments.
func (s *Store) NumComments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.comments)
}

// NumDowntimes returns the number of downtimes.
func (s *Store) NumDowntimes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.downtimes)
}

func allOf[V any](m map[uint64]V, pred func(V) bool) bool {
	for _, id := range slices.Sorted(maps.Keys(m)) {
		if !pred(m[id]) {
			return false
		}
	}

	return true
}
