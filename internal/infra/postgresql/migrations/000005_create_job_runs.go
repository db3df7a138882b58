package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"gorm.io/gorm"
)

func createJobRunsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_job_runs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.JobRunModel{}); err != nil {
				return err
			}
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_job_runs_started_at ON job_runs (started_at)`,
			})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.JobRunModel{})
		},
	}
}
