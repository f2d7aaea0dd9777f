package contract

import (
	"context"

	"golang-backtest/internal/market"
)

// SeriesProvider supplies daily bar histories keyed by ticker.
type SeriesProvider interface {
	GetInstrumentSeries(ctx context.Context, universe []string) (market.Dataset, error)
	// GetFreshSeries returns only the last lookbackDays calendar days,
	// refreshed from the market data source first.
	GetFreshSeries(ctx context.Context, universe []string, lookbackDays int) (market.Dataset, error)
}

type EarningsProvider interface {
	GetEarningsEvents(ctx context.Context, universe []string) ([]market.EarningsEvent, error)
}

// UniverseProvider ranks tickers by market capitalization, ranks
// rankStart..rankEnd inclusive.
type UniverseProvider interface {
	GetRankedUniverse(ctx context.Context, rankStart, rankEnd int) ([]string, error)
}

// CompanyDirectory resolves display names for reports.
type CompanyDirectory interface {
	GetCompanyNames(ctx context.Context, tickers []string) (map[string]string, error)
}
