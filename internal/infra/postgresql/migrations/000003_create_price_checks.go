package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"gorm.io/gorm"
)

func createPriceChecksTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_price_checks",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PriceCheckModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_price_checks_alert_checked ON price_checks (alert_id, checked_at)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PriceCheckModel{})
		},
	}
}
