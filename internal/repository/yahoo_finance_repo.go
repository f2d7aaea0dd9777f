package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/market"
	"golang-backtest/pkg/httpclient"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/ratelimit"

	"golang.org/x/time/rate"
)

const (
	limiterChart        = "chart"
	limiterQuoteSummary = "quote_summary"
	quoteSummaryModules = "price,earningsHistory,calendarEvents"
)

type YahooFinanceRepository interface {
	// GetDailyBars returns the daily bars of ticker dated from..to inclusive.
	GetDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]market.Bar, error)
	// GetEarnings returns the company profile with reported and announced
	// earnings events.
	GetEarnings(ctx context.Context, ticker string) (*dto.CompanyProfile, []market.EarningsEvent, error)
}

type yahooFinanceRepository struct {
	chartClient   httpclient.HTTPClient
	summaryClient httpclient.HTTPClient
	cfg           *config.Config
	logger        *logger.Logger
	limiters      *ratelimit.LimiterStore
}

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	every := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)

	return &yahooFinanceRepository{
		chartClient:   httpclient.New(log, cfg.YahooFinance.BaseURL, httpclient.WithTimeout(cfg.YahooFinance.Timeout), httpclient.WithHeaders(yahooHeaders)),
		summaryClient: httpclient.New(log, cfg.YahooFinance.QuoteSummaryURL, httpclient.WithTimeout(cfg.YahooFinance.Timeout), httpclient.WithHeaders(yahooHeaders)),
		cfg:           cfg,
		logger:        log,
		limiters:      ratelimit.NewLimiterStore(rate.Every(every), 1),
	}
}

var yahooHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://finance.yahoo.com/",
}

func (r *yahooFinanceRepository) wait(ctx context.Context, key string) error {
	throttled, err := r.limiters.Wait(ctx, key)
	if throttled {
		r.logger.DebugContext(ctx, "Yahoo Finance request throttled",
			logger.StringField("api", key),
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
	}
	return err
}

func (r *yahooFinanceRepository) GetDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]market.Bar, error) {
	if err := r.wait(ctx, limiterChart); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"period1":        strconv.FormatInt(market.Day(from).Unix(), 10),
		"period2":        strconv.FormatInt(market.Day(to).AddDate(0, 0, 1).Unix(), 10),
		"interval":       "1d",
		"includePrePost": "false",
		"events":         "div,split",
	}

	var chartResp dto.YahooChartResponse
	resp, err := r.chartClient.Get(ctx, "/"+ticker, queryParams, &chartResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart from yahoo finance: %w", err)
	}
	if err := resp.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.StringField("ticker", ticker),
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("yahoo finance chart: %w", err)
	}
	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance api error: %s: %s", chartResp.Chart.Error.Code, chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol: %s", ticker)
	}

	result := chartResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		// range tanpa trading day
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	bars := make([]market.Bar, 0, len(result.Timestamp))
	seen := make(map[time.Time]bool, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		// timestamp adalah jam buka bursa, tanggal diambil di timezone bursa
		date := market.Day(time.Unix(ts+result.Meta.GmtOffset, 0).UTC())
		if seen[date] || date.Before(market.Day(from)) || date.After(market.Day(to)) {
			continue
		}
		seen[date] = true

		bars = append(bars, market.Bar{
			Ticker: ticker,
			Date:   date,
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: *quote.Volume[i],
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (r *yahooFinanceRepository) GetEarnings(ctx context.Context, ticker string) (*dto.CompanyProfile, []market.EarningsEvent, error) {
	if err := r.wait(ctx, limiterQuoteSummary); err != nil {
		return nil, nil, err
	}

	var summaryResp dto.YahooQuoteSummaryResponse
	resp, err := r.summaryClient.Get(ctx, "/"+ticker, map[string]string{"modules": quoteSummaryModules}, &summaryResp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch quote summary from yahoo finance: %w", err)
	}
	if err := resp.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.StringField("ticker", ticker),
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, nil, fmt.Errorf("yahoo finance quote summary: %w", err)
	}
	if summaryResp.QuoteSummary.Error != nil {
		return nil, nil, fmt.Errorf("yahoo finance api error: %s: %s", summaryResp.QuoteSummary.Error.Code, summaryResp.QuoteSummary.Error.Description)
	}
	if len(summaryResp.QuoteSummary.Result) == 0 {
		return nil, nil, fmt.Errorf("no quote summary returned for symbol: %s", ticker)
	}

	result := summaryResp.QuoteSummary.Result[0]
	profile := &dto.CompanyProfile{
		Ticker:      ticker,
		CompanyName: result.Price.ShortName,
		Exchange:    result.Price.Exchange,
	}
	if profile.CompanyName == "" {
		profile.CompanyName = result.Price.LongName
	}
	if result.Price.MarketCap.Raw != nil {
		profile.MarketCap = int64(*result.Price.MarketCap.Raw)
	}

	var events []market.EarningsEvent
	seen := make(map[time.Time]bool)
	for _, h := range result.EarningsHistory.History {
		if h.Quarter.Raw == nil {
			continue
		}
		date := market.Day(time.Unix(int64(*h.Quarter.Raw), 0).UTC())
		if seen[date] {
			continue
		}
		seen[date] = true

		event := market.EarningsEvent{
			Ticker:      ticker,
			CompanyName: profile.CompanyName,
			EventDate:   date,
			Estimate:    h.EpsEstimate.Raw,
			Actual:      h.EpsActual.Raw,
		}
		if h.SurprisePercent.Raw != nil {
			// yahoo mengirim rasio, disimpan sebagai persen
			pct := *h.SurprisePercent.Raw * 100
			event.SurprisePct = &pct
		}
		events = append(events, event)
	}

	// earningsDate bisa berisi window [start, end], ambil start saja
	if next := result.CalendarEvents.Earnings.EarningsDate; len(next) > 0 && next[0].Raw != nil {
		date := market.Day(time.Unix(int64(*next[0].Raw), 0).UTC())
		if !seen[date] {
			events = append(events, market.EarningsEvent{
				Ticker:      ticker,
				CompanyName: profile.CompanyName,
				EventDate:   date,
				Estimate:    result.CalendarEvents.Earnings.EarningsAverage.Raw,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].EventDate.Before(events[j].EventDate) })
	return profile, events, nil
}
