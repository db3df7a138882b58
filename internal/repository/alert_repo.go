package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"gorm.io/gorm"
)

// AlertRepository is the monitor's view of alerts. Alert CRUD belongs to the
// owning API; the monitor only reads them and touches its own columns.
type AlertRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	ListActive(ctx context.Context) ([]domain.Alert, error)
	FlagForReview(ctx context.Context, id string, reason string) error
	MarkNotified(ctx context.Context, id string, at time.Time) error
}

type GormAlertRepo struct {
	db *gorm.DB
}

func NewGormAlertRepo(db *gorm.DB) *GormAlertRepo {
	return &GormAlertRepo{db: db}
}

func (r *GormAlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	model := alertModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *alertModelToDomain(model)
	}
	return nil
}

func (r *GormAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	var model AlertModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return alertModelToDomain(&model), nil
}

func (r *GormAlertRepo) ListActive(ctx context.Context) ([]domain.Alert, error) {
	var models []AlertModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(models))
	for i := range models {
		alerts = append(alerts, *alertModelToDomain(&models[i]))
	}
	return alerts, nil
}

// FlagForReview marks the alert for operator attention. The alert stays active.
func (r *GormAlertRepo) FlagForReview(ctx context.Context, id string, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&AlertModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"needs_review":  true,
			"review_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormAlertRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&AlertModel{}).
		Where("id = ?", id).
		Update("last_notified_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
