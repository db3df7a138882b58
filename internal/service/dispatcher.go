package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/fare-alert-engine/internal/delivery"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/observability"
	"github.com/kursadbilgin/fare-alert-engine/internal/ratelimit"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSendTimeout    = 10 * time.Second
	persistOutcomeTimeout = 5 * time.Second
)

// Dispatcher sends one PENDING notification and moves it to SENT or FAILED.
// Every error, panics included, is recorded on the notification and never
// escapes Dispatch.
type Dispatcher struct {
	notifications repository.NotificationRepository
	attempts      repository.AttemptRepository
	limiter       ratelimit.Limiter
	senders       map[domain.Channel]delivery.Sender
	sendTimeout   time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

func NewDispatcher(
	notifications repository.NotificationRepository,
	attempts repository.AttemptRepository,
	limiter ratelimit.Limiter,
	senders []delivery.Sender,
	sendTimeout time.Duration,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byChannel := make(map[domain.Channel]delivery.Sender, len(senders))
	for _, s := range senders {
		if s != nil {
			byChannel[s.Channel()] = s
		}
	}

	return &Dispatcher{
		notifications: notifications,
		attempts:      attempts,
		limiter:       limiter,
		senders:       byChannel,
		sendTimeout:   sendTimeout,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Dispatch reports true only on a confirmed send. A canceled ctx leaves the
// notification PENDING for the stale sweeper.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.Notification) (sent bool) {
	if n == nil {
		return false
	}
	if _, ok := observability.AlertIDFromContext(ctx); !ok {
		ctx = observability.WithAlertID(ctx, n.AlertID)
	}
	logger := observability.WithContextLogger(d.logger, ctx).With(
		zap.String("notificationId", n.ID),
		zap.String("channel", n.Channel.String()),
	)

	if n.Status != domain.StatusPending {
		logger.Warn("notification is not pending, skipping dispatch", zap.String("status", n.Status.String()))
		return false
	}
	if ctx.Err() != nil {
		logger.Info("dispatch abandoned, context done")
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("dispatch panicked", zap.Any("panic", r))
			d.finish(ctx, logger, n, "", fmt.Errorf("panic during dispatch: %v", r))
			sent = false
		}
	}()

	messageID, sendErr := d.send(ctx, n)
	d.finish(ctx, logger, n, messageID, sendErr)
	return sendErr == nil
}

func (d *Dispatcher) send(ctx context.Context, n *domain.Notification) (string, error) {
	sender, err := d.senderFor(n.Channel)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(n.Recipient) == "" {
		return "", delivery.ErrMissingRecipient
	}
	if err := sender.Ready(); err != nil {
		return "", err
	}

	allowed, err := d.limiter.Allow(ctx, n.Channel)
	if err != nil {
		return "", fmt.Errorf("rate limiter unavailable: %w", err)
	}
	if !allowed {
		return "", delivery.ErrRateLimitExceeded
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := d.now()
	messageID, err := sender.Send(sendCtx, n)
	d.metrics.ObserveNotificationSendDuration(n.Channel.Label(), d.now().Sub(start))
	if err != nil {
		d.releaseSlot(ctx, n)
	}
	return messageID, err
}

// releaseSlot returns the reserved slot after a failed send. A release
// failure only leaves the window one slot tighter, so it is logged.
func (d *Dispatcher) releaseSlot(ctx context.Context, n *domain.Notification) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistOutcomeTimeout)
	defer cancel()

	if err := d.limiter.Release(releaseCtx, n.Channel); err != nil {
		observability.WithContextLogger(d.logger, ctx).Warn("rate limit slot release failed",
			zap.String("notificationId", n.ID),
			zap.String("channel", n.Channel.Label()),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) senderFor(ch domain.Channel) (delivery.Sender, error) {
	switch ch {
	case domain.ChannelEmail:
		if s, ok := d.senders[ch]; ok {
			return s, nil
		}
		return nil, delivery.ErrEmailNotConfigured
	case domain.ChannelPush:
		if s, ok := d.senders[ch]; ok {
			return s, nil
		}
		return nil, delivery.ErrPushNotInitialized
	case domain.ChannelSMS:
		return nil, fmt.Errorf("%w: sms is reserved", delivery.ErrUnsupportedChannel)
	}
	return nil, fmt.Errorf("%w: %q", delivery.ErrUnsupportedChannel, ch)
}

// finish applies the outcome and persists it with the attempt row. Writes
// use a context detached from ctx so a send that raced shutdown is still
// recorded.
func (d *Dispatcher) finish(ctx context.Context, logger *zap.Logger, n *domain.Notification, messageID string, sendErr error) {
	now := d.now().UTC()
	attemptNumber := n.Attempts + 1

	attempt := &domain.DeliveryAttempt{
		ID:             uuid.NewString(),
		NotificationID: n.ID,
		AttemptNumber:  attemptNumber,
		Channel:        n.Channel,
		CreatedAt:      now,
	}

	channel := n.Channel.Label()
	if sendErr == nil {
		n.MarkSent(now)
		if messageID != "" {
			attempt.ProviderMessageID = &messageID
		}
		d.metrics.IncNotificationSent(channel)
		logger.Info("notification sent", zap.String("providerMessageId", messageID))
	} else {
		n.MarkFailed(sendErr.Error(), now)
		attempt.Error = n.LastError
		d.metrics.IncNotificationFailed(channel, delivery.Reason(sendErr))
		logger.Warn("notification failed",
			zap.Int("attempts", n.Attempts),
			zap.String("reason", delivery.Reason(sendErr)),
			zap.Error(sendErr),
		)
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistOutcomeTimeout)
	defer cancel()

	if err := d.attempts.Create(persistCtx, attempt); err != nil {
		logger.Error("failed to record delivery attempt", zap.Error(err))
	}
	if err := d.notifications.UpdateOutcome(persistCtx, n); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logger.Warn("notification left pending state before outcome was stored")
			return
		}
		logger.Error("failed to store notification outcome", zap.Error(err))
	}
}
