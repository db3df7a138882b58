package ratelimit

import (
	"context"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

const DefaultWindow = time.Hour

// Limiter reserves send capacity per channel. Allow returns false when the
// channel's current window is at capacity; a true result reserves one slot.
// Release hands a reserved slot back when the send it was reserved for did
// not go out, so only delivered sends count against the window.
type Limiter interface {
	Allow(ctx context.Context, channel domain.Channel) (bool, error)
	Release(ctx context.Context, channel domain.Channel) error
}

// Limits maps a channel to its maximum sends per window. Channels missing
// from the map are not limited.
type Limits map[domain.Channel]int
