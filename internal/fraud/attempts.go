package fraud

import (
	"sync"
	"time"
)

// MemoryAttemptLimiter locks a user out after too many failed payments inside
// the lockout window. A successful payment clears the counter.
type MemoryAttemptLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	failures    map[string][]time.Time
}

func NewMemoryAttemptLimiter(maxAttempts int, window time.Duration) *MemoryAttemptLimiter {
	return &MemoryAttemptLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		failures:    make(map[string][]time.Time),
	}
}

func (l *MemoryAttemptLimiter) Locked(userID string, now time.Time) bool {
	if l.maxAttempts <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(userID, now)
	return len(recent) >= l.maxAttempts
}

func (l *MemoryAttemptLimiter) RecordFailure(userID string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[userID] = append(l.prune(userID, now), now)
}

func (l *MemoryAttemptLimiter) Reset(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.failures, userID)
}

// EvictIdle forgets users whose failures have all aged out.
func (l *MemoryAttemptLimiter) EvictIdle(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for userID := range l.failures {
		if len(l.prune(userID, now)) == 0 {
			delete(l.failures, userID)
			removed++
		}
	}
	return removed
}

// prune must be called with mu held.
func (l *MemoryAttemptLimiter) prune(userID string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	times := l.failures[userID]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, userID)
		return nil
	}
	l.failures[userID] = kept
	return kept
}
