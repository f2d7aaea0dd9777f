package repository

import (
	"context"

	"golang-backtest/internal/model"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EarningsRepository interface {
	// Upsert refreshes estimates and actuals of already known events.
	Upsert(ctx context.Context, events []model.EarningsEvent, opts ...utils.DBOption) error
	GetByTickers(ctx context.Context, tickers []string, opts ...utils.DBOption) ([]model.EarningsEvent, error)
}

type earningsRepository struct {
	db *gorm.DB
}

func NewEarningsRepository(db *gorm.DB) EarningsRepository {
	return &earningsRepository{db: db}
}

func (r *earningsRepository) Upsert(ctx context.Context, events []model.EarningsEvent, opts ...utils.DBOption) error {
	if len(events) == 0 {
		return nil
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}, {Name: "event_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"company_name", "eps_estimate", "eps_actual", "surprise_percent", "updated_at"}),
		}).
		CreateInBatches(events, batchSize).Error
}

func (r *earningsRepository) GetByTickers(ctx context.Context, tickers []string, opts ...utils.DBOption) ([]model.EarningsEvent, error) {
	var events []model.EarningsEvent
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if len(tickers) > 0 {
		db = db.Where("ticker IN ?", tickers)
	}
	if err := db.Order("ticker ASC, event_date ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
