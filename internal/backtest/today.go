package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang-backtest/internal/market"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Entry is an entry signal that has no resolved exit yet.
type Entry struct {
	Ticker              string
	Date                time.Time
	Close               float64
	Volume              int64
	WeekPreviousEntries int
	Hints               map[string]float64
}

// Today holds the live signals of one trading day.
type Today struct {
	AsOf     time.Time
	Entries  []Entry
	Exits    []market.Trade
	Failures map[string]error
}

// Today returns the entries signalled on asOf and the positions whose exit
// falls on asOf, using only the bars up to asOf. Entries pass the price and
// volume floors and the minimum week previous entries of the runner; exits
// pass the same filter as backtest trades.
func (r *Runner) Today(ctx context.Context, strat strategy.Strategy, data market.Dataset, asOf time.Time) (*Today, error) {
	asOf = market.Day(asOf)
	tickers := data.Tickers()

	type today struct {
		entry *Entry
		exits []market.Trade
		err   error
	}
	results := make([]today, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			series := data[ticker]
			rows, err := strat.ComputeSignals(series)
			if err != nil {
				results[i].err = fmt.Errorf("failed to compute signals for %s: %w", ticker, err)
				return nil
			}
			at, ok := rowAt(rows, asOf)
			if !ok {
				return nil
			}
			// nothing after asOf is known on that day
			rows = rows[:at+1]

			trades, _ := Resolve(rows, strat.ExitRules())
			results[i].entry = r.entryOn(rows, trades)
			for _, t := range trades {
				if t.ExitDate.Equal(asOf) && r.cfg.Filter.Keep(t) {
					results[i].exits = append(results[i].exits, t)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("today signals cancelled: %w", err)
	}

	out := &Today{AsOf: asOf, Failures: make(map[string]error)}
	for i, res := range results {
		if res.err != nil {
			out.Failures[tickers[i]] = res.err
			continue
		}
		if res.entry != nil {
			out.Entries = append(out.Entries, *res.entry)
		}
		out.Exits = append(out.Exits, res.exits...)
	}

	r.log.InfoContext(ctx, "Computed today signals",
		logger.StringField("strategy", string(strat.Kind())),
		logger.StringField("as_of", asOf.Format(market.DateLayout)),
		logger.IntField("entries", len(out.Entries)),
		logger.IntField("exits", len(out.Exits)),
		logger.IntField("failed_instruments", len(out.Failures)),
	)
	return out, nil
}

// rowAt returns the index of the row dated day.
func rowAt(rows []strategy.SignalRow, day time.Time) (int, bool) {
	i := sort.Search(len(rows), func(i int) bool { return !rows[i].Date.Before(day) })
	return i, i < len(rows) && rows[i].Date.Equal(day)
}

// entryOn returns the entry of the last row, if any. Previous entries are
// counted the way Aggregate does: a resolved one must pass the whole filter,
// an open one only the price and volume floors.
func (r *Runner) entryOn(rows []strategy.SignalRow, trades []market.Trade) *Entry {
	if len(rows) == 0 {
		return nil
	}
	last := len(rows) - 1
	row := rows[last]
	if !row.Entry || !r.cfg.Filter.admits(row.Close, row.Volume) {
		return nil
	}

	resolved := make(map[time.Time]market.Trade, len(trades))
	for _, t := range trades {
		resolved[t.EntryDate] = t
	}

	count, seen := 0, 0
	for k := last - 1; k >= 0 && seen < lookbackEntries; k-- {
		prev := rows[k]
		if !prev.Entry {
			continue
		}
		if t, ok := resolved[prev.Date]; ok {
			if !r.cfg.Filter.Keep(t) {
				continue
			}
		} else if !r.cfg.Filter.admits(prev.Close, prev.Volume) {
			continue
		}
		seen++
		if market.DaysBetween(prev.Date, row.Date) < 7 {
			count++
		}
	}
	if count < r.cfg.MinWeekPreviousEntries {
		return nil
	}

	return &Entry{
		Ticker:              row.Ticker,
		Date:                row.Date,
		Close:               row.Close,
		Volume:              row.Volume,
		WeekPreviousEntries: count,
		Hints:               row.Hints,
	}
}
