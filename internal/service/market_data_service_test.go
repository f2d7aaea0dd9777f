package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang-backtest/internal/dto"
	"golang-backtest/internal/model"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDates(t *testing.T) {
	d := func(offset int) time.Time { return day0.AddDate(0, 0, offset) }

	t.Run("clean history", func(t *testing.T) {
		assert.Empty(t, CheckDates("AAA", []time.Time{d(0), d(1), d(4), d(5)}))
	})

	t.Run("duplicates and max gap", func(t *testing.T) {
		issues := CheckDates("AAA", []time.Time{d(0), d(1), d(1), d(10)})
		require.Len(t, issues, 3)
		assert.Equal(t, "duplicate dates", issues[0].Check)
		assert.Equal(t, "rows_number = 4, dates_number = 3", issues[0].Observed)
		assert.Equal(t, "max gap", issues[1].Check)
		assert.Equal(t, "9 days before 2024-01-11", issues[1].Observed)
		assert.Equal(t, "min gap", issues[2].Check)
	})

	t.Run("single bar", func(t *testing.T) {
		assert.Empty(t, CheckDates("AAA", []time.Time{d(0)}))
	})
}

func TestParseUniverseCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"Symbol,Name,Exchange,Market Capitalization",
		"aapl,Apple Inc,NASDAQ,2.5e12",
		"MSFT,Microsoft,NASDAQ,2000000000000",
		",Empty,NYSE,1",
		"AAPL,Apple,NASDAQ,3000000000000",
	}, "\n")

	rows, err := ParseUniverseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, dto.UniverseRow{Ticker: "AAPL", CompanyName: "Apple", Exchange: "NASDAQ", MarketCap: 3_000_000_000_000}, rows[0])
	assert.Equal(t, "MSFT", rows[1].Ticker)

	_, err = ParseUniverseCSV(strings.NewReader("Name,Exchange\nApple,NASDAQ\n"))
	assert.Error(t, err)

	_, err = ParseUniverseCSV(strings.NewReader("Ticker,Market Cap\nAAPL,lots\n"))
	assert.NoError(t, err, "unknown columns are ignored")

	_, err = ParseUniverseCSV(strings.NewReader("Ticker,market_cap\nAAPL,lots\n"))
	assert.Error(t, err)
}

func newTestMarketData(bars *fakeBarRepo, tickers *fakeTickerRepo, yahoo *fakeYahoo, c cache.Cache) *marketDataService {
	svc := NewMarketDataService(testConfig(), logger.NewNop(), c, bars, nil, tickers, yahoo, fakeUnitOfWork{}).(*marketDataService)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) }
	return svc
}

func TestMarketDataService_UpdateHistory(t *testing.T) {
	bars := &fakeBarRepo{lastDates: []model.LastBarDate{
		{Ticker: "AAA", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Ticker: "CCC", Date: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)},
	}}
	yahoo := &fakeYahoo{}
	c := cache.NewCache(time.Hour, time.Hour)
	c.Set("dataset:x", "stale", time.Hour)

	svc := newTestMarketData(bars, &fakeTickerRepo{}, yahoo, c)
	report, err := svc.UpdateHistory(context.Background(), []string{"AAA", "BBB", "CCC", "BAD"})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Requested)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 2, report.Rows)
	require.Contains(t, report.Failed, "BAD")
	assert.Contains(t, report.Failed["BAD"], errYahooDown.Error())

	end := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, [2]time.Time{time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), end}, yahoo.requested["AAA"])
	assert.Equal(t, [2]time.Time{day0, end}, yahoo.requested["BBB"])
	assert.NotContains(t, yahoo.requested, "CCC", "up to date ticker is not fetched")
	assert.Len(t, bars.stored, 2)

	_, found := c.Get("dataset:x")
	assert.False(t, found, "cache is flushed after new rows")
}

func TestMarketDataService_UpdateEarnings(t *testing.T) {
	earnings := &fakeEarningsRepo{}
	tickers := &fakeTickerRepo{}
	svc := newTestMarketData(&fakeBarRepo{}, tickers, &fakeYahoo{}, cache.NewCache(time.Hour, time.Hour))
	svc.earningsRepo = earnings

	report, err := svc.UpdateEarnings(context.Background(), []string{"AAA", "BAD"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Rows)
	assert.Contains(t, report.Failed, "BAD")
	assert.Len(t, earnings.upserted, 2)
	assert.Equal(t, 1, earnings.opts, "earnings are written inside the unit of work")
	require.Len(t, tickers.upserted, 1)
	assert.Equal(t, "AAA Inc", tickers.upserted[0].CompanyName)
	assert.True(t, tickers.upserted[0].IsActive)
}

func TestMarketDataService_ResolveUniverse(t *testing.T) {
	tickers := &fakeTickerRepo{ranked: []model.Ticker{{Ticker: "BIG"}, {Ticker: "MID"}, {Ticker: "SMALL"}}}
	svc := newTestMarketData(&fakeBarRepo{}, tickers, &fakeYahoo{}, cache.NewCache(time.Hour, time.Hour))
	ctx := context.Background()

	got, err := svc.ResolveUniverse(ctx, dto.UniverseRequest{Tickers: []string{" aapl", "AAPL", "msft", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)

	got, err = svc.ResolveUniverse(ctx, dto.UniverseRequest{RankStart: 0, RankEnd: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"BIG", "MID"}, got)

	_, err = svc.ResolveUniverse(ctx, dto.UniverseRequest{RankStart: 0, RankEnd: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, tickers.rankedCalls, "ranked universe is cached")

	_, err = svc.ResolveUniverse(ctx, dto.UniverseRequest{RankStart: 5, RankEnd: 9})
	assert.ErrorIs(t, err, ErrEmptyUniverse)
}

func TestMarketDataService_ImportUniverse(t *testing.T) {
	tickers := &fakeTickerRepo{}
	svc := newTestMarketData(&fakeBarRepo{}, tickers, &fakeYahoo{}, cache.NewCache(time.Hour, time.Hour))

	n, err := svc.ImportUniverse(context.Background(), strings.NewReader("Ticker,Name\nAAPL,Apple\nMSFT,Microsoft\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, tickers.upserted, 2)
	assert.True(t, tickers.upserted[0].IsActive)
	assert.Equal(t, "Apple", tickers.upserted[0].CompanyName)
}
