package repository

import (
	"context"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"gorm.io/gorm"
)

type JobRunRepository interface {
	Create(ctx context.Context, run *domain.JobRun) error
	Finish(ctx context.Context, run *domain.JobRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.JobRun, error)
}

type GormJobRunRepo struct {
	db *gorm.DB
}

func NewGormJobRunRepo(db *gorm.DB) *GormJobRunRepo {
	return &GormJobRunRepo{db: db}
}

func (r *GormJobRunRepo) Create(ctx context.Context, run *domain.JobRun) error {
	model := jobRunModelFromDomain(run)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if run != nil {
		*run = *jobRunModelToDomain(model)
	}
	return nil
}

func (r *GormJobRunRepo) Finish(ctx context.Context, run *domain.JobRun) error {
	result := r.db.WithContext(ctx).
		Model(&JobRunModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"finished_at":  run.FinishedAt,
			"status":       run.Status,
			"alerts_total": run.AlertsTotal,
			"checked":      run.Checked,
			"matched":      run.Matched,
			"notified":     run.Notified,
			"send_failed":  run.SendFailed,
			"skipped":      run.Skipped,
			"errors":       run.Errors,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormJobRunRepo) ListRecent(ctx context.Context, limit int) ([]domain.JobRun, error) {
	var models []JobRunModel
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(clampLimit(limit)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	runs := make([]domain.JobRun, 0, len(models))
	for i := range models {
		runs = append(runs, *jobRunModelToDomain(&models[i]))
	}
	return runs, nil
}
