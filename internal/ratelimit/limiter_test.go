package ratelimit

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLimiter(opts Options) (*Limiter, *time.Time) {
	l := New(opts, zerolog.Nop())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.dayStart = dayOf(now)
	return l, &now
}

func TestAcquireWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(Options{CallsPerWindow: 5, Window: time.Second})

	for i := 0; i < 5; i++ {
		if wait := l.Acquire(); wait != 0 {
			t.Fatalf("call %d should proceed immediately, got wait %v", i+1, wait)
		}
		l.Record()
	}
}

func TestSixthCallWithinSecondWaits(t *testing.T) {
	l, now := newTestLimiter(Options{CallsPerWindow: 5, Window: time.Second})

	for i := 0; i < 5; i++ {
		l.Record()
		*now = now.Add(100 * time.Millisecond)
	}

	wait := l.Acquire()
	if wait <= 0 {
		t.Fatal("sixth call inside the window should wait")
	}
	// Oldest stamp is 500ms old, so at least half the window remains.
	if wait < 500*time.Millisecond {
		t.Fatalf("wait %v shorter than remaining window", wait)
	}
}

func TestWindowSlides(t *testing.T) {
	l, now := newTestLimiter(Options{CallsPerWindow: 2, Window: time.Second})

	l.Record()
	l.Record()
	if wait := l.Acquire(); wait == 0 {
		t.Fatal("budget should be exhausted")
	}

	*now = now.Add(1100 * time.Millisecond)
	if wait := l.Acquire(); wait != 0 {
		t.Fatalf("stamps older than the window must not count, got wait %v", wait)
	}
}

func TestDailyCap(t *testing.T) {
	l, now := newTestLimiter(Options{CallsPerWindow: 100, Window: time.Second, CallsPerDay: 3})

	for i := 0; i < 3; i++ {
		l.Record()
		*now = now.Add(2 * time.Second)
	}

	wait := l.Acquire()
	if wait <= 0 {
		t.Fatal("daily cap should force a wait")
	}
	if wait > 24*time.Hour {
		t.Fatalf("wait %v exceeds a day", wait)
	}

	*now = now.Add(wait + time.Minute)
	if got := l.Acquire(); got != 0 {
		t.Fatalf("new day should reset the daily counter, got wait %v", got)
	}
}

func TestPenaltyDoublesAndCaps(t *testing.T) {
	l, _ := newTestLimiter(Options{
		CallsPerWindow: 100,
		Window:         time.Second,
		PenaltyBase:    10 * time.Second,
		PenaltyMax:     30 * time.Second,
	})

	if got := l.Penalize(); got != 10*time.Second {
		t.Fatalf("first penalty = %v, want 10s", got)
	}
	if got := l.Penalize(); got != 20*time.Second {
		t.Fatalf("second penalty = %v, want 20s", got)
	}
	if got := l.Penalize(); got != 30*time.Second {
		t.Fatalf("third penalty should cap at 30s, got %v", got)
	}

	if wait := l.Acquire(); wait <= 0 {
		t.Fatal("penalty should force a wait")
	}

	l.Reset()
	if wait := l.Acquire(); wait != 0 {
		t.Fatalf("reset should clear the penalty, got wait %v", wait)
	}

	// After a reset the next penalty starts from the base again.
	if got := l.Penalize(); got != 10*time.Second {
		t.Fatalf("penalty after reset = %v, want 10s", got)
	}
}
