package service

import (
	"golang-backtest/config"
	"golang-backtest/internal/optimizer"
	"golang-backtest/internal/repository"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/telegram"
)

type Service struct {
	MarketDataService MarketDataService
	BacktestService   BacktestService
	SignalService     SignalService
	OptimizerService  OptimizerService
	SchedulerService  SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	notifier telegram.Notifier,
	optimizerProgress func(optimizer.Progress),
) *Service {
	marketDataService := NewMarketDataService(cfg, log, inmemoryCache, repo.BarRepo, repo.EarningsRepo, repo.TickerRepo, repo.YahooFinanceRepo, repo.UnitOfWork)
	backtestService := NewBacktestService(cfg, log, marketDataService)
	signalService := NewSignalService(cfg, log, marketDataService, repo.RecommendationRepo, notifier)

	var optimizerOpts []OptimizerOption
	if optimizerProgress != nil {
		optimizerOpts = append(optimizerOpts, WithOptimizerProgress(optimizerProgress))
	}
	optimizerService := NewOptimizerService(cfg, log, marketDataService, repo.OptimizationRunRepo, notifier, optimizerOpts...)
	schedulerService := NewSchedulerService(cfg, log, repo.JobRunRepo, signalService)

	return &Service{
		MarketDataService: marketDataService,
		BacktestService:   backtestService,
		SignalService:     signalService,
		OptimizerService:  optimizerService,
		SchedulerService:  schedulerService,
	}
}
