package delivery

import (
	"context"
	"errors"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrEmailNotConfigured = errors.New("email sender credentials are not configured")
	ErrPushNotInitialized = errors.New("push backend is not initialized")
	ErrUnsupportedChannel = errors.New("unsupported channel")
	ErrMissingRecipient   = errors.New("recipient is required")
)

// Sender is the outbound transport for one channel.
type Sender interface {
	Channel() domain.Channel
	// Ready reports whether the transport can send at all. A non-nil result
	// fails the send without consuming rate limit capacity.
	Ready() error
	// Send delivers n and returns the transport's message id, if any.
	Send(ctx context.Context, n *domain.Notification) (string, error)
}

// Reason maps a send error to a short metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, ErrEmailNotConfigured), errors.Is(err, ErrPushNotInitialized):
		return "not_configured"
	case errors.Is(err, ErrUnsupportedChannel):
		return "unsupported_channel"
	case errors.Is(err, ErrMissingRecipient):
		return "missing_recipient"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "transport_error"
}
