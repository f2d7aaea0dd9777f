package repository

import (
	"errors"

	"golang-backtest/config"
	"golang-backtest/pkg/logger"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

const batchSize = 100

type Repository struct {
	BarRepo             BarRepository
	EarningsRepo        EarningsRepository
	TickerRepo          TickerRepository
	RecommendationRepo  RecommendationRepository
	OptimizationRunRepo OptimizationRunRepository
	JobRunRepo          JobRunRepository
	YahooFinanceRepo    YahooFinanceRepository
	UnitOfWork          UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		BarRepo:             NewBarRepository(db),
		EarningsRepo:        NewEarningsRepository(db),
		TickerRepo:          NewTickerRepository(db),
		RecommendationRepo:  NewRecommendationRepository(db),
		OptimizationRunRepo: NewOptimizationRunRepository(db),
		JobRunRepo:          NewJobRunRepository(db),
		YahooFinanceRepo:    NewYahooFinanceRepository(cfg, log),
		UnitOfWork:          NewUnitOfWork(db),
	}
}
