package geocoding

import (
	"context"
	"sync"
	"time"
)

// throttle spaces dispatches to one backend at least minInterval apart. A
// waiter reserves the slot after the previous one before sleeping, so
// concurrent callers queue up instead of bursting when an interval elapses.
type throttle struct {
	mu           sync.Mutex
	minInterval  time.Duration
	nextDispatch time.Time
}

func newThrottle(minInterval time.Duration) *throttle {
	return &throttle{minInterval: minInterval}
}

// wait blocks until the caller may dispatch, or until ctx is done
func (t *throttle) wait(ctx context.Context) error {
	if t.minInterval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	dispatch := t.nextDispatch
	if dispatch.Before(now) {
		dispatch = now
	}
	t.nextDispatch = dispatch.Add(t.minInterval)
	t.mu.Unlock()

	delay := time.Until(dispatch)
	if delay <= 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
