package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"gorm.io/gorm"
)

func createAlertsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_alerts",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.AlertModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (created_at) WHERE active = true`,
				`CREATE INDEX IF NOT EXISTS idx_alerts_owner_id ON alerts (owner_id)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.AlertModel{})
		},
	}
}
