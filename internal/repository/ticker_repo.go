package repository

import (
	"context"

	"golang-backtest/internal/model"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TickerRepository interface {
	Upsert(ctx context.Context, tickers []model.Ticker, opts ...utils.DBOption) error
	// GetRanked returns active tickers ranked by market capitalization,
	// ranks rankStart..rankEnd inclusive (0 is the largest).
	GetRanked(ctx context.Context, rankStart, rankEnd int, opts ...utils.DBOption) ([]model.Ticker, error)
	GetByTickers(ctx context.Context, tickers []string, opts ...utils.DBOption) ([]model.Ticker, error)
	GetActive(ctx context.Context, opts ...utils.DBOption) ([]model.Ticker, error)
}

type tickerRepository struct {
	db *gorm.DB
}

func NewTickerRepository(db *gorm.DB) TickerRepository {
	return &tickerRepository{db: db}
}

func (r *tickerRepository) Upsert(ctx context.Context, tickers []model.Ticker, opts ...utils.DBOption) error {
	if len(tickers) == 0 {
		return nil
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}},
			DoUpdates: clause.AssignmentColumns([]string{"company_name", "exchange", "market_cap", "is_active", "updated_at"}),
		}).
		CreateInBatches(tickers, batchSize).Error
}

func (r *tickerRepository) GetRanked(ctx context.Context, rankStart, rankEnd int, opts ...utils.DBOption) ([]model.Ticker, error) {
	var tickers []model.Ticker
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("is_active = ?", true).
		Order("market_cap DESC, ticker ASC").
		Offset(rankStart).
		Limit(rankEnd - rankStart + 1).
		Find(&tickers).Error
	if err != nil {
		return nil, err
	}
	return tickers, nil
}

func (r *tickerRepository) GetByTickers(ctx context.Context, tickers []string, opts ...utils.DBOption) ([]model.Ticker, error) {
	var result []model.Ticker
	if err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("ticker IN ?", tickers).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *tickerRepository) GetActive(ctx context.Context, opts ...utils.DBOption) ([]model.Ticker, error) {
	var result []model.Ticker
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("is_active = ?", true).
		Order("ticker ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}
