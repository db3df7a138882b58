package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"gorm.io/gorm"
)

type OwnerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Owner, error)
	LatestDeviceToken(ctx context.Context, ownerID string) (*domain.DeviceToken, error)
}

type GormOwnerRepo struct {
	db *gorm.DB
}

func NewGormOwnerRepo(db *gorm.DB) *GormOwnerRepo {
	return &GormOwnerRepo{db: db}
}

func (r *GormOwnerRepo) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	var model OwnerModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ownerModelToDomain(&model), nil
}

// LatestDeviceToken returns the owner's most recently used token. Tokens that
// were never used rank after used ones, newest registration first.
func (r *GormOwnerRepo) LatestDeviceToken(ctx context.Context, ownerID string) (*domain.DeviceToken, error) {
	var model DeviceTokenModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND token <> ''", ownerID).
		Order("last_used_at DESC NULLS LAST").
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return deviceTokenModelToDomain(&model), nil
}
