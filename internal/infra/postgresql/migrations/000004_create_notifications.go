package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"gorm.io/gorm"
)

func createNotificationsTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_notifications",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.NotificationModel{}, &repository.DeliveryAttemptModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_notifications_alert_id ON notifications (alert_id)`,
				`CREATE INDEX IF NOT EXISTS idx_notifications_pending_created ON notifications (created_at) WHERE status = 'PENDING'`,
				`CREATE INDEX IF NOT EXISTS idx_delivery_attempts_notification_id ON delivery_attempts (notification_id)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryAttemptModel{}, &repository.NotificationModel{})
		},
	}
}
