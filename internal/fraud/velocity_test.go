package fraud

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skillrise/payment-security/internal/models"
)

func entryAt(t time.Time, amount int64) models.VelocityEntry {
	return models.VelocityEntry{Amount: decimal.NewFromInt(amount), Timestamp: t}
}

func TestMemoryVelocityStoreReturnsPriorEntries(t *testing.T) {
	s := NewMemoryVelocityStore(24 * time.Hour)
	ctx := context.Background()
	base := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	prior, err := s.Record(ctx, "u1", entryAt(base, 10))
	if err != nil || len(prior) != 0 {
		t.Fatalf("first Record() = %v, %v; want empty history", prior, err)
	}

	prior, _ = s.Record(ctx, "u1", entryAt(base.Add(time.Minute), 20))
	if len(prior) != 1 || !prior[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("second Record() history = %v", prior)
	}
	if got := len(s.Entries("u1")); got != 2 {
		t.Errorf("window holds %d entries, want 2", got)
	}
}

func TestMemoryVelocityStorePrunesOutsideRetention(t *testing.T) {
	s := NewMemoryVelocityStore(24 * time.Hour)
	ctx := context.Background()
	base := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	s.Record(ctx, "u1", entryAt(base, 10))
	s.Record(ctx, "u1", entryAt(base.Add(2*time.Hour), 10))

	prior, _ := s.Record(ctx, "u1", entryAt(base.Add(25*time.Hour), 10))
	if len(prior) != 1 {
		t.Fatalf("history after 25h = %d entries, want 1", len(prior))
	}

	for _, e := range s.Entries("u1") {
		if e.Timestamp.Before(base.Add(time.Hour)) {
			t.Errorf("entry at %v survived pruning", e.Timestamp)
		}
	}
}

func TestMemoryVelocityStoreKeepsTimestampOrder(t *testing.T) {
	s := NewMemoryVelocityStore(time.Hour)
	ctx := context.Background()
	base := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	s.Record(ctx, "u1", entryAt(base, 1))
	s.Record(ctx, "u1", entryAt(base.Add(-time.Second), 2))

	entries := s.Entries("u1")
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[1].Timestamp.Before(entries[0].Timestamp) {
		t.Errorf("entries out of order: %v then %v", entries[0].Timestamp, entries[1].Timestamp)
	}
}

func TestMemoryVelocityStoreConcurrentSameUser(t *testing.T) {
	s := NewMemoryVelocityStore(time.Hour)
	ctx := context.Background()
	now := time.Now()

	const workers = 50
	sizes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			prior, err := s.Record(ctx, "shared", entryAt(now, 1))
			if err != nil {
				t.Error(err)
				return
			}
			sizes[i] = len(prior)
		}(i)
	}
	wg.Wait()

	// serialized updates mean every caller saw a different history length
	sort.Ints(sizes)
	for i, n := range sizes {
		if n != i {
			t.Fatalf("history sizes = %v, want 0..%d", sizes, workers-1)
		}
	}
	if got := len(s.Entries("shared")); got != workers {
		t.Errorf("window holds %d entries, want %d", got, workers)
	}
}

func TestMemoryVelocityStoreConcurrentUsers(t *testing.T) {
	s := NewMemoryVelocityStore(time.Hour)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for u := 0; u < 20; u++ {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				s.Record(ctx, user, entryAt(now, 1))
			}(fmt.Sprintf("user-%d", u))
		}
	}
	wg.Wait()

	if got := s.Users(); got != 20 {
		t.Fatalf("Users() = %d, want 20", got)
	}
	for u := 0; u < 20; u++ {
		if got := len(s.Entries(fmt.Sprintf("user-%d", u))); got != 5 {
			t.Errorf("user-%d has %d entries, want 5", u, got)
		}
	}
}

func TestMemoryVelocityStoreEvictIdle(t *testing.T) {
	s := NewMemoryVelocityStore(24 * time.Hour)
	ctx := context.Background()
	base := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	s.Record(ctx, "idle", entryAt(base, 1))
	s.Record(ctx, "active", entryAt(base.Add(20*time.Hour), 1))

	if removed := s.EvictIdle(base.Add(25 * time.Hour)); removed != 1 {
		t.Errorf("EvictIdle() removed %d, want 1", removed)
	}
	if s.Users() != 1 || len(s.Entries("idle")) != 0 {
		t.Errorf("idle user still present")
	}

	// an evicted user starts over with an empty window
	prior, _ := s.Record(ctx, "idle", entryAt(base.Add(26*time.Hour), 1))
	if len(prior) != 0 {
		t.Errorf("evicted user history = %v", prior)
	}
}
