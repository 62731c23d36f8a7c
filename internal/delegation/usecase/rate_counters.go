package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// rateKey scopes a counter to one policy's (from, to, action) tuple within
// one fixed window.
type rateKey struct {
	policyID    uuid.UUID
	fromDID     string
	toDID       string
	action      string
	windowStart int64
}

// rateEntry is one live counter. expiresAt marks the end of its window for
// cleanup.
type rateEntry struct {
	count     int
	expiresAt time.Time
}

// rateCounters holds the fixed-window delegation counters. The mutex
// serializes increment-and-check: under a limit of N, concurrent checks can
// never all observe capacity and overshoot. Counters are memory-only;
// losing them on restart recounts from zero, which only ever denies less
// within the restarted window, never allows beyond a live policy.
type rateCounters struct {
	mu     sync.Mutex
	counts map[rateKey]*rateEntry
}

func newRateCounters() *rateCounters {
	return &rateCounters{counts: make(map[rateKey]*rateEntry)}
}

// allow atomically counts one delegation against the window and reports
// whether it fits the limit. A denied attempt is not counted.
func (r *rateCounters) allow(
	policyID uuid.UUID,
	fromDID, toDID, action string,
	limit int,
	window time.Duration,
	now time.Time,
) bool {
	windowStart := now.Truncate(window)
	key := rateKey{
		policyID:    policyID,
		fromDID:     fromDID,
		toDID:       toDID,
		action:      action,
		windowStart: windowStart.Unix(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.counts[key]
	if !ok {
		entry = &rateEntry{expiresAt: windowStart.Add(window)}
		r.counts[key] = entry
	}
	if entry.count >= limit {
		return false
	}
	entry.count++
	return true
}

// cleanup drops counters whose window has ended.
func (r *rateCounters) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.counts {
		if now.After(entry.expiresAt) {
			delete(r.counts, key)
		}
	}
}

// StartCounterCleanup prunes stale rate counters on the given interval
// until ctx is cancelled.
func StartCounterCleanup(ctx context.Context, useCase UseCase, interval time.Duration) {
	engine, ok := useCase.(*delegationUseCase)
	if !ok {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				engine.counters.cleanup(engine.clock())
			}
		}
	}()
}
