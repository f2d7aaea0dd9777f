package repository

import (
	"context"
	"time"

	"golang-backtest/internal/model"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
)

type JobRunRepository interface {
	Create(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error
	Update(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error
	GetRecent(ctx context.Context, jobName string, limit int, opts ...utils.DBOption) ([]model.JobRun, error)
	DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type jobRunRepository struct {
	db *gorm.DB
}

func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

func (r *jobRunRepository) Create(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(run).Error
}

func (r *jobRunRepository) Update(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Updates(run).Error
}

func (r *jobRunRepository) GetRecent(ctx context.Context, jobName string, limit int, opts ...utils.DBOption) ([]model.JobRun, error) {
	var runs []model.JobRun
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if jobName != "" {
		db = db.Where("job_name = ?", jobName)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Order("started_at DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *jobRunRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	res := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("created_at < ?", date).Delete(&model.JobRun{})
	return res.RowsAffected, res.Error
}
