package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
)

// NotificationDetail is a notification with its delivery attempts.
type NotificationDetail struct {
	Notification *domain.Notification
	Attempts     []domain.DeliveryAttempt
}

// HistoryService is the read side used by the ops endpoints.
type HistoryService struct {
	runs          repository.JobRunRepository
	priceChecks   repository.PriceCheckRepository
	notifications repository.NotificationRepository
	attempts      repository.AttemptRepository
}

func NewHistoryService(
	runs repository.JobRunRepository,
	priceChecks repository.PriceCheckRepository,
	notifications repository.NotificationRepository,
	attempts repository.AttemptRepository,
) (*HistoryService, error) {
	switch {
	case runs == nil:
		return nil, fmt.Errorf("job run repository is required")
	case priceChecks == nil:
		return nil, fmt.Errorf("price check repository is required")
	case notifications == nil:
		return nil, fmt.Errorf("notification repository is required")
	case attempts == nil:
		return nil, fmt.Errorf("attempt repository is required")
	}

	return &HistoryService{
		runs:          runs,
		priceChecks:   priceChecks,
		notifications: notifications,
		attempts:      attempts,
	}, nil
}

func (s *HistoryService) ListRuns(ctx context.Context, limit int) ([]domain.JobRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	return runs, nil
}

func (s *HistoryService) ListPriceChecks(ctx context.Context, alertID string, limit int) ([]domain.PriceCheck, error) {
	if strings.TrimSpace(alertID) == "" {
		return nil, fmt.Errorf("%w: alert id is required", domain.ErrValidation)
	}
	checks, err := s.priceChecks.ListByAlert(ctx, alertID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list price checks: %w", err)
	}
	return checks, nil
}

func (s *HistoryService) GetNotification(ctx context.Context, id string) (*NotificationDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByNotificationID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery attempts: %w", err)
	}
	return &NotificationDetail{Notification: n, Attempts: attempts}, nil
}
