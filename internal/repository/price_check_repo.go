package repository

import (
	"context"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type PriceCheckRepository interface {
	RecordCheck(ctx context.Context, check *domain.PriceCheck) error
	ListByAlert(ctx context.Context, alertID string, limit int) ([]domain.PriceCheck, error)
}

type GormPriceCheckRepo struct {
	db *gorm.DB
}

func NewGormPriceCheckRepo(db *gorm.DB) *GormPriceCheckRepo {
	return &GormPriceCheckRepo{db: db}
}

// RecordCheck appends the job log row and moves the alert's last_checked_at
// in one transaction. Both are committed before any notification exists.
func (r *GormPriceCheckRepo) RecordCheck(ctx context.Context, check *domain.PriceCheck) error {
	model := priceCheckModelFromDomain(check)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}

		result := tx.Model(&AlertModel{}).
			Where("id = ?", model.AlertID).
			Update("last_checked_at", model.CheckedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *GormPriceCheckRepo) ListByAlert(ctx context.Context, alertID string, limit int) ([]domain.PriceCheck, error) {
	var models []PriceCheckModel
	err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("checked_at DESC").
		Limit(clampLimit(limit)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	checks := make([]domain.PriceCheck, 0, len(models))
	for i := range models {
		checks = append(checks, *priceCheckModelToDomain(&models[i]))
	}
	return checks, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
