package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options tune the rolling-window call budget.
type Options struct {
	// CallsPerWindow is the number of calls allowed inside Window.
	CallsPerWindow int
	Window         time.Duration
	// CallsPerDay caps total calls per calendar day (UTC). Zero
	// disables the daily cap.
	CallsPerDay int
	// PenaltyBase seeds the backoff applied after a provider 429.
	PenaltyBase time.Duration
	// PenaltyMax caps the doubled penalty.
	PenaltyMax time.Duration
}

func (o Options) withDefaults() Options {
	if o.CallsPerWindow <= 0 {
		o.CallsPerWindow = 5
	}
	if o.Window <= 0 {
		o.Window = time.Minute
	}
	if o.PenaltyBase <= 0 {
		o.PenaltyBase = 12 * time.Second
	}
	if o.PenaltyMax <= 0 {
		o.PenaltyMax = 5 * time.Minute
	}
	return o
}

// Limiter tracks the remote API call budget over a rolling window plus
// an optional daily cap. It is mutex-guarded so a concurrent
// orchestrator can share one instance, though the default fetch path
// is sequential.
type Limiter struct {
	mu       sync.Mutex
	opts     Options
	logger   zerolog.Logger
	stamps   []time.Time
	dayStart time.Time
	dayCount int

	penalty      time.Duration
	penaltyUntil time.Time

	now func() time.Time
}

// New constructs a Limiter.
func New(opts Options, logger zerolog.Logger) *Limiter {
	l := &Limiter{
		opts:   opts.withDefaults(),
		logger: logger.With().Str("component", "ratelimit").Logger(),
		now:    time.Now,
	}
	l.dayStart = dayOf(l.now())
	return l
}

// Acquire reports how long the caller must wait before the next call
// may proceed. Zero means proceed now. Acquire does not consume
// budget; call Record once the request has actually been issued.
func (l *Limiter) Acquire() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.roll(now)

	if wait := l.penaltyUntil.Sub(now); wait > 0 {
		return wait
	}
	if l.opts.CallsPerDay > 0 && l.dayCount >= l.opts.CallsPerDay {
		// Budget exhausted until the UTC day rolls over.
		return l.dayStart.Add(24 * time.Hour).Sub(now)
	}
	if len(l.stamps) >= l.opts.CallsPerWindow {
		oldest := l.stamps[0]
		return l.opts.Window - now.Sub(oldest)
	}
	return 0
}

// Record consumes one unit of budget for a call that was just issued.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.roll(now)
	l.stamps = append(l.stamps, now)
	l.dayCount++
}

// Penalize extends the window defensively after an explicit
// rate-limit signal from the provider. Each consecutive penalty
// doubles, capped at PenaltyMax. Returns the wait now in force.
func (l *Limiter) Penalize() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.penalty == 0 {
		l.penalty = l.opts.PenaltyBase
	} else {
		l.penalty *= 2
	}
	if l.penalty > l.opts.PenaltyMax {
		l.penalty = l.opts.PenaltyMax
	}
	l.penaltyUntil = l.now().Add(l.penalty)
	l.logger.Warn().Dur("penalty", l.penalty).Msg("provider rate limit hit, extending window")
	return l.penalty
}

// Reset clears the backoff penalty after the first successful call.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.penalty = 0
	l.penaltyUntil = time.Time{}
}

// roll drops stamps that left the window and resets the daily counter
// when the UTC day changes. Caller holds the mutex.
func (l *Limiter) roll(now time.Time) {
	cutoff := now.Add(-l.opts.Window)
	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.stamps = kept

	if day := dayOf(now); day.After(l.dayStart) {
		l.dayStart = day
		l.dayCount = 0
	}
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
