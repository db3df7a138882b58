package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"gorm.io/gorm"
)

func createOwnersTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_owners",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OwnerModel{}, &repository.DeviceTokenModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_device_tokens_owner_last_used ON device_tokens (owner_id, last_used_at)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeviceTokenModel{}, &repository.OwnerModel{})
		},
	}
}
