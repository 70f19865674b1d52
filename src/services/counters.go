package services

import (
	"sync"
	"time"

	"keytally/src/models"
)

// CounterStore holds the per-input counts for the running session. Every
// vocabulary member always has an entry; unknown identifiers are never stored.
type CounterStore struct {
	vocab *Vocabulary

	mu          sync.Mutex
	counts      map[models.InputID]int64
	lastUpdated time.Time
}

func NewCounterStore(vocab *Vocabulary) *CounterStore {
	counts := make(map[models.InputID]int64, vocab.Len())
	for _, id := range vocab.IDs() {
		counts[id] = 0
	}
	return &CounterStore{vocab: vocab, counts: counts}
}

// Increment adds one to id. It returns ErrUnknownInput, leaving the table
// untouched, when id is not in the vocabulary.
func (s *CounterStore) Increment(id models.InputID) error {
	if !s.vocab.Contains(id) {
		return ErrUnknownInput
	}
	s.mu.Lock()
	s.counts[id]++
	s.mu.Unlock()
	return nil
}

// Snapshot returns a point-in-time copy of every count.
func (s *CounterStore) Snapshot() map[models.InputID]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[models.InputID]int64, len(s.counts))
	for k, v := range s.counts {
		cp[k] = v
	}
	return cp
}

// Merge overwrites counts with previously persisted values. Identifiers
// outside the vocabulary and negative counts are ignored.
func (s *CounterStore) Merge(prior map[models.InputID]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, count := range prior {
		if !s.vocab.Contains(id) || count < 0 {
			continue
		}
		s.counts[id] = count
	}
}

// Count returns the current count for id.
func (s *CounterStore) Count(id models.InputID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[id]
}

// MarkFlushed records the time of a successful flush. Older stamps are
// ignored so racing flushes never move the timestamp backwards.
func (s *CounterStore) MarkFlushed(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.After(s.lastUpdated) {
		s.lastUpdated = at
	}
}

func (s *CounterStore) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// Summarize reports mouse clicks per button and the total of all key presses.
func (s *CounterStore) Summarize() models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := models.Summary{
		LeftClicks:   s.counts[MouseLeft],
		RightClicks:  s.counts[MouseRight],
		MiddleClicks: s.counts[MouseMiddle],
		LastUpdated:  s.lastUpdated,
	}
	for id, count := range s.counts {
		if kind, _ := s.vocab.Kind(id); kind == models.KindMouseButton {
			continue
		}
		summary.TotalKeyPresses += count
	}
	return summary
}
