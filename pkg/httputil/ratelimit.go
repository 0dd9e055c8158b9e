package httputil

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces out requests to a shared upstream. Callers pass through
// [Limiter.Wait] before every outbound request; no two callers are released
// closer together than the configured minimum interval, process-wide.
//
// Admission is serialized by a single mutex. The mutex is deliberately held
// across the sleep so waiting callers queue up in roughly arrival order;
// strict fairness is not guaranteed, only the spacing invariant.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewLimiter creates a limiter that allows at most requestsPerMinute
// admissions per minute. A non-positive value disables limiting.
func NewLimiter(requestsPerMinute int) *Limiter {
	l := &Limiter{}
	if requestsPerMinute > 0 {
		l.interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return l
}

// Wait blocks until the caller may issue the next request, then records the
// release time. Returns ctx.Err() if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if wait := l.interval - time.Since(l.last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	l.last = time.Now()
	return nil
}

// Interval returns the minimum spacing between admissions.
// Zero means limiting is disabled.
func (l *Limiter) Interval() time.Duration { return l.interval }
