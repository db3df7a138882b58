package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	UpdateOutcome(ctx context.Context, n *domain.Notification) error
	FailStalePending(ctx context.Context, createdBefore time.Time, reason string, at time.Time) (int64, error)
}

type GormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

// UpdateOutcome persists the terminal state of a dispatch. Only PENDING rows
// transition; anything else is ErrConflict.
func (r *GormNotificationRepo) UpdateOutcome(ctx context.Context, n *domain.Notification) error {
	if !n.Status.IsTerminal() {
		return domain.ErrValidation
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status = ?", n.ID, domain.StatusPending).
		Updates(map[string]any{
			"status":     n.Status,
			"attempts":   n.Attempts,
			"last_error": n.LastError,
			"sent_at":    n.SentAt,
			"updated_at": n.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// FailStalePending moves PENDING rows created before createdBefore to FAILED.
// The rows are not resubmitted.
func (r *GormNotificationRepo) FailStalePending(ctx context.Context, createdBefore time.Time, reason string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("status = ? AND created_at < ?", domain.StatusPending, createdBefore).
		Updates(map[string]any{
			"status":     domain.StatusFailed,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
