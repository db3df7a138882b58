package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

var _ Limiter = (*FixedWindow)(nil)

// FixedWindow is a process-local fixed-window limiter. Each channel has its
// own counter and lock, so concurrent sends on one channel cannot both pass
// a near-capacity check. Counters are not persisted across restarts.
type FixedWindow struct {
	window  time.Duration
	now     func() time.Time
	buckets map[domain.Channel]*bucket
}

type bucket struct {
	mu          sync.Mutex
	limit       int
	count       int
	windowStart time.Time
}

func NewFixedWindow(limits Limits, window time.Duration) *FixedWindow {
	return newFixedWindow(limits, window, time.Now)
}

func newFixedWindow(limits Limits, window time.Duration, nowFn func() time.Time) *FixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if nowFn == nil {
		nowFn = time.Now
	}

	buckets := make(map[domain.Channel]*bucket, len(limits))
	for ch, limit := range limits {
		buckets[ch] = &bucket{limit: limit}
	}

	return &FixedWindow{
		window:  window,
		now:     nowFn,
		buckets: buckets,
	}
}

func (f *FixedWindow) Allow(_ context.Context, channel domain.Channel) (bool, error) {
	b, ok := f.buckets[channel]
	if !ok {
		return true, nil
	}

	now := f.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= f.window {
		b.windowStart = now
		b.count = 0
	}
	if b.count >= b.limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// Release returns a slot to the channel's current window. It is a no-op when
// the window has rolled over since the slot was reserved.
func (f *FixedWindow) Release(_ context.Context, channel domain.Channel) error {
	b, ok := f.buckets[channel]
	if !ok {
		return nil
	}

	now := f.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= f.window {
		return nil
	}
	if b.count > 0 {
		b.count--
	}
	return nil
}

// Remaining reports how many sends the channel has left in its current window.
// Unlimited channels report -1.
func (f *FixedWindow) Remaining(channel domain.Channel) int {
	b, ok := f.buckets[channel]
	if !ok {
		return -1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowStart.IsZero() || f.now().Sub(b.windowStart) >= f.window {
		return b.limit
	}
	if b.count >= b.limit {
		return 0
	}
	return b.limit - b.count
}
