// Package cooldown keeps per-symbol failure and attempt bookkeeping for the quote fetcher.
//
// The tracker never sleeps. It only answers whether a symbol is cooling down and how long the
// caller has to wait before the next attempt.
package cooldown

import (
	"sync"
	"time"
)

const (
	DefaultCooldown   = 5 * time.Minute
	DefaultMinSpacing = 30 * time.Second
)

type failure struct {
	failedAt time.Time
	until    time.Time
}

// Tracker holds failure records and last attempt times per symbol.
type Tracker struct {
	mu          sync.Mutex
	failures    map[string]failure
	lastAttempt map[string]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		failures:    make(map[string]failure),
		lastAttempt: make(map[string]time.Time),
	}
}

// ShouldSkip reports whether symbol is inside its cooldown window. Expired records are removed.
func (t *Tracker) ShouldSkip(symbol string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.failures[symbol]
	if !ok {
		return false
	}
	if now.Before(f.until) {
		return true
	}
	if now.After(f.until) {
		delete(t.failures, symbol)
	}
	return false
}

// RecordFailure starts (or restarts) the cooldown window for symbol.
func (t *Tracker) RecordFailure(symbol string, now time.Time, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures[symbol] = failure{failedAt: now, until: now.Add(d)}
}

// Clear removes the failure record of symbol.
func (t *Tracker) Clear(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.failures, symbol)
}

// Throttle returns how long the caller must wait so that two attempts for symbol are at least
// minSpacing apart. The attempt is recorded at now+wait.
func (t *Tracker) Throttle(symbol string, now time.Time, minSpacing time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	var wait time.Duration
	if last, ok := t.lastAttempt[symbol]; ok {
		if elapsed := now.Sub(last); elapsed < minSpacing {
			wait = minSpacing - elapsed
		}
	}
	t.lastAttempt[symbol] = now.Add(wait)

	return wait
}

// FailedAt returns the time of the last total failure of symbol, if a record exists.
func (t *Tracker) FailedAt(symbol string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.failures[symbol]
	return f.failedAt, ok
}

// FailingCount returns the number of symbols that are cooling down at now.
func (t *Tracker) FailingCount(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, f := range t.failures {
		if now.Before(f.until) {
			n++
		}
	}
	return n
}

// Sweep drops expired failure records and returns how many were removed.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for s, f := range t.failures {
		if now.After(f.until) {
			delete(t.failures, s)
			removed++
		}
	}
	return removed
}
