package fraud

import (
	"testing"
	"time"
)

func TestMemoryAttemptLimiter(t *testing.T) {
	base := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	l := NewMemoryAttemptLimiter(3, 24*time.Hour)

	for i := 0; i < 2; i++ {
		l.RecordFailure("u1", base.Add(time.Duration(i)*time.Minute))
	}
	if l.Locked("u1", base.Add(5*time.Minute)) {
		t.Fatal("locked after two failures")
	}

	l.RecordFailure("u1", base.Add(3*time.Minute))
	if !l.Locked("u1", base.Add(5*time.Minute)) {
		t.Fatal("not locked after three failures")
	}
	if l.Locked("u2", base.Add(5*time.Minute)) {
		t.Error("lockout leaked to another user")
	}

	if l.Locked("u1", base.Add(25*time.Hour)) {
		t.Error("still locked after failures aged out")
	}
}

func TestMemoryAttemptLimiterReset(t *testing.T) {
	now := time.Now()
	l := NewMemoryAttemptLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		l.RecordFailure("u1", now)
	}
	l.Reset("u1")
	if l.Locked("u1", now) {
		t.Error("locked after reset")
	}
}

func TestMemoryAttemptLimiterDisabled(t *testing.T) {
	now := time.Now()
	l := NewMemoryAttemptLimiter(0, time.Hour)

	for i := 0; i < 10; i++ {
		l.RecordFailure("u1", now)
	}
	if l.Locked("u1", now) {
		t.Error("limit of zero should never lock")
	}
}

func TestMemoryAttemptLimiterEvictIdle(t *testing.T) {
	base := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	l := NewMemoryAttemptLimiter(3, time.Hour)

	l.RecordFailure("old", base)
	l.RecordFailure("new", base.Add(50*time.Minute))

	if removed := l.EvictIdle(base.Add(90 * time.Minute)); removed != 1 {
		t.Errorf("EvictIdle() removed %d, want 1", removed)
	}
}
