package repository

import (
	"context"

	"golang-backtest/internal/model"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BarRepository interface {
	// CreateBulk inserts bars, keeping the stored row on (ticker, date) conflict.
	CreateBulk(ctx context.Context, bars []model.Bar, opts ...utils.DBOption) error
	Get(ctx context.Context, param model.GetBarsParam, opts ...utils.DBOption) ([]model.Bar, error)
	GetLastDates(ctx context.Context, tickers []string, opts ...utils.DBOption) ([]model.LastBarDate, error)
	DeleteByTicker(ctx context.Context, ticker string, opts ...utils.DBOption) (int64, error)
}

type barRepository struct {
	db *gorm.DB
}

func NewBarRepository(db *gorm.DB) BarRepository {
	return &barRepository{db: db}
}

func (r *barRepository) CreateBulk(ctx context.Context, bars []model.Bar, opts ...utils.DBOption) error {
	if len(bars) == 0 {
		return nil
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
			DoNothing: true,
		}).
		CreateInBatches(bars, batchSize).Error
}

func (r *barRepository) Get(ctx context.Context, param model.GetBarsParam, opts ...utils.DBOption) ([]model.Bar, error) {
	var bars []model.Bar
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.Bar{})
	if len(param.Tickers) > 0 {
		db = db.Where("ticker IN ?", param.Tickers)
	}
	if !param.From.IsZero() {
		db = db.Where("date >= ?", param.From)
	}
	if !param.To.IsZero() {
		db = db.Where("date <= ?", param.To)
	}
	if err := db.Order("ticker ASC, date ASC").Find(&bars).Error; err != nil {
		return nil, err
	}
	return bars, nil
}

func (r *barRepository) GetLastDates(ctx context.Context, tickers []string, opts ...utils.DBOption) ([]model.LastBarDate, error) {
	var result []model.LastBarDate
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.Bar{}).
		Select("ticker, MAX(date) AS date")
	if len(tickers) > 0 {
		db = db.Where("ticker IN ?", tickers)
	}
	if err := db.Group("ticker").Order("ticker").Scan(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *barRepository) DeleteByTicker(ctx context.Context, ticker string, opts ...utils.DBOption) (int64, error) {
	res := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Where("ticker = ?", ticker).Delete(&model.Bar{})
	return res.RowsAffected, res.Error
}
