package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/observability"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultStaleSweepInterval = 5 * time.Minute
	defaultStalePendingAfter  = 30 * time.Minute

	staleReason = "abandoned before dispatch"
)

// StaleSweeper fails notifications left PENDING longer than a cutoff, which
// happens when the process stops between creating and dispatching them.
type StaleSweeper struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
	metrics       *observability.Metrics
	interval      time.Duration
	after         time.Duration
	now           func() time.Time
}

func NewStaleSweeper(
	notifications repository.NotificationRepository,
	interval time.Duration,
	after time.Duration,
	logger *zap.Logger,
) (*StaleSweeper, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if interval <= 0 {
		interval = defaultStaleSweepInterval
	}
	if after <= 0 {
		after = defaultStalePendingAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StaleSweeper{
		notifications: notifications,
		logger:        logger,
		interval:      interval,
		after:         after,
		now:           time.Now,
	}, nil
}

func (s *StaleSweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *StaleSweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("stale sweeper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("stale sweeper sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *StaleSweeper) sweep(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	swept, err := s.notifications.FailStalePending(ctx, now.Add(-s.after), staleReason, now)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale pending notifications: %w", err)
	}

	if swept > 0 {
		s.metrics.AddStaleSwept(int(swept))
		s.logger.Warn("failed stale pending notifications", zap.Int64("count", swept))
	}
	return swept, nil
}
