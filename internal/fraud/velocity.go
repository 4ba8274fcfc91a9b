package fraud

import (
	"context"
	"sync"
	"time"

	"github.com/skillrise/payment-security/internal/models"
)

// MemoryVelocityStore keeps per-user windows in process memory.
// Calls for the same user are serialized by that user's lock; different users
// only contend briefly on the map lock.
type MemoryVelocityStore struct {
	mu        sync.Mutex
	users     map[string]*userWindow
	retention time.Duration
}

type userWindow struct {
	mu       sync.Mutex
	entries  []models.VelocityEntry
	lastSeen time.Time
	evicted  bool
}

func NewMemoryVelocityStore(retention time.Duration) *MemoryVelocityStore {
	return &MemoryVelocityStore{
		users:     make(map[string]*userWindow),
		retention: retention,
	}
}

func (s *MemoryVelocityStore) window(userID string) *userWindow {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.users[userID]
	if !ok {
		w = &userWindow{}
		s.users[userID] = w
	}
	return w
}

func (s *MemoryVelocityStore) Record(_ context.Context, userID string, entry models.VelocityEntry) ([]models.VelocityEntry, error) {
	for {
		w := s.window(userID)
		w.mu.Lock()
		if w.evicted {
			// lost a race with EvictIdle; the map now holds a fresh window
			w.mu.Unlock()
			continue
		}

		cutoff := entry.Timestamp.Add(-s.retention)
		kept := w.entries[:0]
		for _, e := range w.entries {
			if !e.Timestamp.Before(cutoff) {
				kept = append(kept, e)
			}
		}

		prior := make([]models.VelocityEntry, len(kept))
		copy(prior, kept)

		// appends stay in non-decreasing timestamp order even if the caller's clock lagged
		if n := len(kept); n > 0 && entry.Timestamp.Before(kept[n-1].Timestamp) {
			entry.Timestamp = kept[n-1].Timestamp
		}
		w.entries = append(kept, entry)
		w.lastSeen = entry.Timestamp
		w.mu.Unlock()

		return prior, nil
	}
}

// EvictIdle drops users with no activity inside the retention window and
// returns how many were removed.
func (s *MemoryVelocityStore) EvictIdle(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, w := range s.users {
		w.mu.Lock()
		if w.lastSeen.Before(cutoff) {
			w.evicted = true
			delete(s.users, userID)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// Users reports how many users currently have a window.
func (s *MemoryVelocityStore) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Entries returns a copy of a user's current window.
func (s *MemoryVelocityStore) Entries(userID string) []models.VelocityEntry {
	s.mu.Lock()
	w, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.VelocityEntry, len(w.entries))
	copy(out, w.entries)
	return out
}
