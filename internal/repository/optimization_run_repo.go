package repository

import (
	"context"
	"errors"

	"golang-backtest/internal/model"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
)

type OptimizationRunRepository interface {
	Create(ctx context.Context, run *model.OptimizationRun, opts ...utils.DBOption) error
	Update(ctx context.Context, run *model.OptimizationRun, opts ...utils.DBOption) error
	FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.OptimizationRun, error)
	// GetLatestCompleted returns the most recent completed run of strategy.
	GetLatestCompleted(ctx context.Context, strategy string, opts ...utils.DBOption) (*model.OptimizationRun, error)
}

type optimizationRunRepository struct {
	db *gorm.DB
}

func NewOptimizationRunRepository(db *gorm.DB) OptimizationRunRepository {
	return &optimizationRunRepository{db: db}
}

func (r *optimizationRunRepository) Create(ctx context.Context, run *model.OptimizationRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(run).Error
}

func (r *optimizationRunRepository) Update(ctx context.Context, run *model.OptimizationRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Save(run).Error
}

func (r *optimizationRunRepository) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.OptimizationRun, error) {
	var run model.OptimizationRun
	if err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&run, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (r *optimizationRunRepository) GetLatestCompleted(ctx context.Context, strategy string, opts ...utils.DBOption) (*model.OptimizationRun, error) {
	var run model.OptimizationRun
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("strategy = ? AND status = ?", strategy, model.StatusCompleted).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}
