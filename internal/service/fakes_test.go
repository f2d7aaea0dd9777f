package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/internal/model"
	"golang-backtest/internal/repository"
	"golang-backtest/pkg/utils"

	"gorm.io/gorm"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Cache:      config.Cache{DefaultExpiration: time.Hour, CleanupInterval: time.Hour},
		MarketData: config.MarketData{StartDate: "2024-01-01", FreshLookbackDays: 30, MaxConcurrency: 2},
		Backtest: config.Backtest{
			Workers:                2,
			PriceFloor:             2,
			VolumeFloor:            100_000,
			MaxAbsWinPercent:       50,
			MinWeekPreviousEntries: 1,
		},
		Simulation: config.Simulation{
			TotalAmount:    30000,
			TransactionMin: 1800,
			TransactionMax: 2500,
			MaxTradesByDay: 3,
			Fee:            2,
		},
		Optimizer: config.Optimizer{Workers: 2, Objective: "mean_win", RankEnd: 10},
		Scheduler: config.Scheduler{TimeZone: "UTC"},
	}
}

func risingSeries(ticker string, n int) market.Series {
	bars := make([]market.Bar, n)
	for i := range bars {
		c := 20 + 0.5*float64(i)
		bars[i] = market.Bar{
			Ticker: ticker,
			Date:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.2,
			Low:    c - 0.2,
			Close:  c,
			Volume: 500_000,
		}
	}
	return market.Series{Ticker: ticker, Bars: bars}
}

// fakeMarketData serves a fixed dataset. Methods not overridden panic.
type fakeMarketData struct {
	MarketDataService
	data   market.Dataset
	events []market.EarningsEvent
}

func (f *fakeMarketData) ResolveUniverse(_ context.Context, req dto.UniverseRequest) ([]string, error) {
	if len(req.Tickers) == 0 {
		return nil, ErrEmptyUniverse
	}
	return req.Tickers, nil
}

func (f *fakeMarketData) GetInstrumentSeries(_ context.Context, universe []string) (market.Dataset, error) {
	return f.data.Subset(universe), nil
}

func (f *fakeMarketData) GetFreshSeries(_ context.Context, universe []string, _ int) (market.Dataset, error) {
	return f.data.Subset(universe), nil
}

func (f *fakeMarketData) GetEarningsEvents(context.Context, []string) ([]market.EarningsEvent, error) {
	return f.events, nil
}

func (f *fakeMarketData) GetCompanyNames(_ context.Context, tickers []string) (map[string]string, error) {
	out := make(map[string]string, len(tickers))
	for _, t := range tickers {
		out[t] = t + " Inc"
	}
	return out, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) SendMessage(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.err
}

func (f *fakeNotifier) SendAlert(context.Context, string) error { return nil }

type fakeRunRepo struct {
	repository.OptimizationRunRepository
	created int
	updates []model.OptimizationRun
}

func (f *fakeRunRepo) Create(_ context.Context, run *model.OptimizationRun, _ ...utils.DBOption) error {
	f.created++
	run.ID = 7
	return nil
}

func (f *fakeRunRepo) Update(_ context.Context, run *model.OptimizationRun, _ ...utils.DBOption) error {
	f.updates = append(f.updates, *run)
	return nil
}

type fakeRecommendationRepo struct {
	repository.RecommendationRepository
	stored []model.TradeRecommendation
}

func (f *fakeRecommendationRepo) Upsert(_ context.Context, recs []model.TradeRecommendation, _ ...utils.DBOption) error {
	f.stored = append(f.stored, recs...)
	return nil
}

type fakeJobRunRepo struct {
	repository.JobRunRepository
	created []model.JobRun
	updated []model.JobRun
	err     error
}

func (f *fakeJobRunRepo) Create(_ context.Context, run *model.JobRun, _ ...utils.DBOption) error {
	if f.err != nil {
		return f.err
	}
	run.ID = uint(len(f.created) + 1)
	f.created = append(f.created, *run)
	return nil
}

func (f *fakeJobRunRepo) Update(_ context.Context, run *model.JobRun, _ ...utils.DBOption) error {
	f.updated = append(f.updated, *run)
	return nil
}

type fakeBarRepo struct {
	repository.BarRepository
	mu        sync.Mutex
	lastDates []model.LastBarDate
	stored    []model.Bar
}

func (f *fakeBarRepo) GetLastDates(context.Context, []string, ...utils.DBOption) ([]model.LastBarDate, error) {
	return f.lastDates, nil
}

func (f *fakeBarRepo) CreateBulk(_ context.Context, bars []model.Bar, _ ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, bars...)
	return nil
}

type fakeTickerRepo struct {
	repository.TickerRepository
	mu          sync.Mutex
	ranked      []model.Ticker
	rankedCalls int
	upserted    []model.Ticker
}

func (f *fakeTickerRepo) GetRanked(_ context.Context, rankStart, rankEnd int, _ ...utils.DBOption) ([]model.Ticker, error) {
	f.rankedCalls++
	if rankStart >= len(f.ranked) {
		return nil, nil
	}
	end := rankEnd + 1
	if end > len(f.ranked) {
		end = len(f.ranked)
	}
	return f.ranked[rankStart:end], nil
}

func (f *fakeTickerRepo) Upsert(_ context.Context, tickers []model.Ticker, _ ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, tickers...)
	return nil
}

type fakeEarningsRepo struct {
	repository.EarningsRepository
	mu       sync.Mutex
	upserted []model.EarningsEvent
	opts     int
}

func (f *fakeEarningsRepo) Upsert(_ context.Context, events []model.EarningsEvent, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, events...)
	f.opts += len(opts)
	return nil
}

// fakeUnitOfWork runs fn without a transaction.
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Run(_ context.Context, fn func(opts ...utils.DBOption) error) error {
	return fn(func(db *gorm.DB) *gorm.DB { return db })
}

var errYahooDown = errors.New("yahoo is down")

// fakeYahoo returns one bar dated from for every ticker except BAD.
type fakeYahoo struct {
	repository.YahooFinanceRepository
	mu        sync.Mutex
	requested map[string][2]time.Time
}

func (f *fakeYahoo) GetDailyBars(_ context.Context, ticker string, from, to time.Time) ([]market.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requested == nil {
		f.requested = make(map[string][2]time.Time)
	}
	f.requested[ticker] = [2]time.Time{from, to}
	if ticker == "BAD" {
		return nil, errYahooDown
	}
	return []market.Bar{{Ticker: ticker, Date: from, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1000}}, nil
}

func (f *fakeYahoo) GetEarnings(_ context.Context, ticker string) (*dto.CompanyProfile, []market.EarningsEvent, error) {
	if ticker == "BAD" {
		return nil, nil, errYahooDown
	}
	surprise := 5.0
	events := []market.EarningsEvent{
		{Ticker: ticker, EventDate: time.Date(2023, 10, 26, 0, 0, 0, 0, time.UTC), SurprisePct: &surprise},
		{Ticker: ticker, EventDate: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)},
	}
	return &dto.CompanyProfile{CompanyName: ticker + " Inc", Exchange: "NMS"}, events, nil
}
