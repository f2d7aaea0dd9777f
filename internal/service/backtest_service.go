package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/internal/simulator"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"github.com/shopspring/decimal"
)

// ErrInvalidRequest marks errors caused by the caller input.
var ErrInvalidRequest = errors.New("invalid request")

type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error)
}

type backtestService struct {
	cfg        *config.Config
	log        *logger.Logger
	marketData MarketDataService
}

func NewBacktestService(cfg *config.Config, log *logger.Logger, marketData MarketDataService) BacktestService {
	return &backtestService{
		cfg:        cfg,
		log:        log,
		marketData: marketData,
	}
}

func runnerConfig(cfg *config.Config) backtest.Config {
	return backtest.Config{
		Workers: cfg.Backtest.Workers,
		Filter: backtest.Filter{
			PriceFloor:       cfg.Backtest.PriceFloor,
			VolumeFloor:      cfg.Backtest.VolumeFloor,
			MaxAbsWinPercent: cfg.Backtest.MaxAbsWinPercent,
		},
		MinWeekPreviousEntries: cfg.Backtest.MinWeekPreviousEntries,
		Sampler: backtest.Sampler{
			PerInstrument: cfg.Backtest.SamplesPerInstrument,
			Seed:          cfg.Backtest.SampleSeed,
		},
	}
}

func simulatorConfig(cfg *config.Config) simulator.Config {
	return simulator.Config{
		TotalAmount:    decimal.NewFromFloat(cfg.Simulation.TotalAmount),
		TransactionMin: decimal.NewFromFloat(cfg.Simulation.TransactionMin),
		TransactionMax: decimal.NewFromFloat(cfg.Simulation.TransactionMax),
		MaxTradesByDay: cfg.Simulation.MaxTradesByDay,
		Fee:            decimal.NewFromFloat(cfg.Simulation.Fee),
	}
}

// strategyOptions loads what a kind needs besides its parameters.
func strategyOptions(ctx context.Context, marketData MarketDataService, kind strategy.Kind, universe []string) ([]strategy.Option, error) {
	if kind != strategy.KindEarnings {
		return nil, nil
	}
	events, err := marketData.GetEarningsEvents(ctx, universe)
	if err != nil {
		return nil, err
	}
	return []strategy.Option{strategy.WithEarnings(market.NewEarningsCalendar(events))}, nil
}

func buildStrategy(kind strategy.Kind, params []int, opts []strategy.Option) (strategy.Strategy, error) {
	if len(params) == 0 {
		return strategy.Default(kind, opts...)
	}
	return strategy.New(kind, params, opts...)
}

// since drops the bars dated before from, from is optional.
func since(data market.Dataset, from string) (market.Dataset, error) {
	if from == "" {
		return data, nil
	}
	start, err := utils.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("%w: from: %v", ErrInvalidRequest, err)
	}
	out := make(market.Dataset, len(data))
	for t, s := range data {
		out[t] = s.Tail(start)
	}
	return out, nil
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error) {
	kind, err := strategy.ParseKind(req.Strategy)
	if err != nil {
		return nil, err
	}

	universe, err := s.marketData.ResolveUniverse(ctx, req.UniverseRequest)
	if err != nil {
		return nil, err
	}
	data, err := s.marketData.GetInstrumentSeries(ctx, universe)
	if err != nil {
		return nil, err
	}
	if data, err = since(data, req.From); err != nil {
		return nil, err
	}

	opts, err := strategyOptions(ctx, s.marketData, kind, universe)
	if err != nil {
		return nil, err
	}
	strat, err := buildStrategy(kind, req.Parameters, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := backtest.NewRunner(s.log, runnerConfig(s.cfg)).Run(ctx, strat, data)
	if err != nil {
		s.log.ErrorContext(ctx, "Backtest failed", logger.ErrorField(err), logger.StringField("strategy", string(kind)))
		return nil, err
	}

	result := &dto.BacktestResult{
		Strategy:    string(kind),
		Parameters:  strategy.Named(kind, strat.Parameters()),
		Instruments: res.Instruments,
		Unresolved:  res.Unresolved,
		Failures:    dto.ErrorStrings(res.Failures),
		Metrics:     dto.NewMetricsResponse(res.Metrics),
		RawTrades:   res.Trades,
	}
	if req.Worst > 0 {
		result.Worst = dto.NewTradeResponses(backtest.Worst(res.Trades, req.Worst))
	}
	if req.IncludeTrades {
		result.Trades = dto.NewTradeResponses(res.Trades)
	}

	if req.Simulate && len(res.Trades) > 0 {
		simCfg := simulatorConfig(s.cfg)
		simCfg.Until = data.LastDate()
		sim, err := simulator.Simulate(res.Trades, simCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to simulate: %w", err)
		}
		result.Simulation = dto.NewSimulationResponse(sim)
	}

	s.log.InfoContext(ctx, "Backtest completed",
		logger.StringField("strategy", string(kind)),
		logger.IntField("trades", res.Metrics.TotalTrades),
		logger.StringField("mean_win", utils.FormatPercentage(res.Metrics.MeanWinPercent)),
		logger.DurationField("elapsed", time.Since(start)),
	)
	return result, nil
}
