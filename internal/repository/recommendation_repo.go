package repository

import (
	"context"

	"golang-backtest/internal/model"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationRepository interface {
	Upsert(ctx context.Context, recs []model.TradeRecommendation, opts ...utils.DBOption) error
	Get(ctx context.Context, param model.GetRecommendationsParam, opts ...utils.DBOption) ([]model.TradeRecommendation, error)
}

type recommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) Upsert(ctx context.Context, recs []model.TradeRecommendation, opts ...utils.DBOption) error {
	if len(recs) == 0 {
		return nil
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "strategy"}, {Name: "ticker"}, {Name: "signal_date"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"close", "entry_date", "exit_price", "exit_reason", "win_percent",
				"week_previous_entries", "company_name", "last_surprise_percent", "hints",
			}),
		}).
		CreateInBatches(recs, batchSize).Error
}

func (r *recommendationRepository) Get(ctx context.Context, param model.GetRecommendationsParam, opts ...utils.DBOption) ([]model.TradeRecommendation, error) {
	var recs []model.TradeRecommendation
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if param.Strategy != "" {
		db = db.Where("strategy = ?", param.Strategy)
	}
	if param.Kind != "" {
		db = db.Where("kind = ?", param.Kind)
	}
	if !param.From.IsZero() {
		db = db.Where("signal_date >= ?", param.From)
	}
	if !param.To.IsZero() {
		db = db.Where("signal_date <= ?", param.To)
	}
	if param.Limit > 0 {
		db = db.Limit(param.Limit)
	}
	if err := db.Order("signal_date DESC, ticker ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
