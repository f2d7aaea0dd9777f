package service

import (
	"context"
	"testing"
	"time"

	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/internal/model"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFilterEntries(t *testing.T) {
	on := date("2024-03-10")
	entries := []backtest.Entry{
		{Ticker: "DDD", Date: on, Close: 40, WeekPreviousEntries: 2},
		{Ticker: "AAA", Date: on, Close: 10},
		{Ticker: "BBB", Date: on, Close: 20},
		{Ticker: "CCC", Date: on, Close: 30},
	}
	calendar := market.NewEarningsCalendar([]market.EarningsEvent{
		{Ticker: "AAA", EventDate: date("2024-03-01"), SurprisePct: utils.ToPointer(5.0)},
		{Ticker: "AAA", EventDate: date("2024-03-20")},
		{Ticker: "BBB", EventDate: date("2024-03-12")},
		{Ticker: "DDD", CompanyName: "Delta", EventDate: date("2024-02-01"), SurprisePct: utils.ToPointer(-3.0)},
		{Ticker: "DDD", EventDate: date("2024-04-20")},
	})
	req := dto.SignalRequest{DaysToNextResult: 5, DaysSinceLastResult: 10}

	got := filterEntries(entries, calendar, map[string]string{"CCC": "Charlie"}, req)
	require.Len(t, got, 2)

	assert.Equal(t, "CCC", got[0].Ticker)
	assert.Equal(t, "Charlie", got[0].CompanyName)
	assert.Nil(t, got[0].DaysToNextResult)
	assert.Nil(t, got[0].DaysSinceLastResult)

	assert.Equal(t, "DDD", got[1].Ticker)
	assert.Equal(t, "Delta", got[1].CompanyName)
	assert.Equal(t, 38, *got[1].DaysSinceLastResult)
	assert.Equal(t, 41, *got[1].DaysToNextResult)
	assert.Equal(t, -3.0, *got[1].LastSurprisePercent)
	assert.Equal(t, "2024-03-10", got[1].Date)

	// without thresholds only the distances are attached
	assert.Len(t, filterEntries(entries, calendar, nil, dto.SignalRequest{}), 4)
}

func TestFormatSignalMessage(t *testing.T) {
	msg := FormatSignalMessage(&dto.SignalResult{
		Strategy: "record",
		AsOf:     "2024-03-10",
		Entries: []dto.SignalEntry{
			{Ticker: "AAPL", CompanyName: "Apple & Co", Close: 180.5, WeekPreviousEntries: 2},
		},
	})

	assert.Contains(t, msg, "RECORD signals 2024-03-10")
	assert.Contains(t, msg, "AAPL")
	assert.Contains(t, msg, "Apple &amp; Co")
	assert.Contains(t, msg, "No exit today")
	assert.NotContains(t, msg, "No entry today")
}

func TestSignalService_SendTodaySignals(t *testing.T) {
	md := &fakeMarketData{data: market.Dataset{
		"AAA": risingSeries("AAA", 40),
		"BBB": risingSeries("BBB", 40),
	}}
	recs := &fakeRecommendationRepo{}
	notifier := &fakeNotifier{}
	svc := NewSignalService(testConfig(), logger.NewNop(), md, recs, notifier)

	result, err := svc.SendTodaySignals(context.Background(), dto.SignalRequest{
		UniverseRequest:        dto.UniverseRequest{Tickers: []string{"AAA", "BBB"}},
		Strategy:               "record",
		Parameters:             []int{5, 10, 20, 3},
		MinWeekPreviousEntries: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-02-09", result.AsOf)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "AAA", result.Entries[0].Ticker)
	assert.Equal(t, "AAA Inc", result.Entries[0].CompanyName)
	assert.Equal(t, map[string]int{"record_window": 5, "max_lose_percent": 10, "max_win_percent": 20, "max_keep_days": 3}, result.Parameters)

	entries := 0
	for _, r := range recs.stored {
		assert.Equal(t, "record", r.Strategy)
		assert.True(t, r.SignalDate.Equal(date("2024-02-09")))
		if r.Kind == model.RecommendationEntry {
			entries++
		}
	}
	assert.Equal(t, 2, entries)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "RECORD signals 2024-02-09")
}

func TestSignalService_InvalidAsOf(t *testing.T) {
	md := &fakeMarketData{data: market.Dataset{"AAA": risingSeries("AAA", 40)}}
	svc := NewSignalService(testConfig(), logger.NewNop(), md, &fakeRecommendationRepo{}, &fakeNotifier{})

	_, err := svc.GetTodaySignals(context.Background(), dto.SignalRequest{
		UniverseRequest: dto.UniverseRequest{Tickers: []string{"AAA"}},
		Strategy:        "record",
		AsOf:            "10/03/2024",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
