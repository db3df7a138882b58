package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"gorm.io/gorm"
)

// AttemptRepository is the append-only delivery audit. Rows are never
// updated or deleted.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *domain.DeliveryAttempt) error
	ListByNotificationID(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error)
}

type GormAttemptRepo struct {
	db *gorm.DB
}

func NewGormAttemptRepo(db *gorm.DB) *GormAttemptRepo {
	return &GormAttemptRepo{db: db}
}

func (r *GormAttemptRepo) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	if attempt == nil {
		return fmt.Errorf("%w: attempt is required", domain.ErrValidation)
	}
	if strings.TrimSpace(attempt.NotificationID) == "" {
		return fmt.Errorf("%w: attempt notification id is required", domain.ErrValidation)
	}
	if attempt.AttemptNumber < 1 {
		return fmt.Errorf("%w: attempt number must be >= 1, got %d", domain.ErrValidation, attempt.AttemptNumber)
	}

	model := attemptModelFromDomain(attempt)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert delivery attempt: %w", err)
	}
	*attempt = *attemptModelToDomain(model)
	return nil
}

func (r *GormAttemptRepo) ListByNotificationID(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	var models []DeliveryAttemptModel
	err := r.db.WithContext(ctx).
		Where("notification_id = ?", notificationID).
		Order("attempt_number ASC").
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery attempts: %w", err)
	}

	attempts := make([]domain.DeliveryAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *attemptModelToDomain(&models[i]))
	}
	return attempts, nil
}
