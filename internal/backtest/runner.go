package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang-backtest/internal/market"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// progressEvery is the number of processed instruments between two progress
// log lines.
const progressEvery = 200

// Config tunes a Runner.
type Config struct {
	Workers                int
	Filter                 Filter
	MinWeekPreviousEntries int
	Sampler                Sampler
}

// DefaultConfig mirrors the historical defaults: default floors and at
// least one entry in the previous week.
func DefaultConfig() Config {
	return Config{
		Workers:                runtime.NumCPU(),
		Filter:                 DefaultFilter(),
		MinWeekPreviousEntries: 1,
	}
}

// Result is the outcome of one backtest over a dataset.
type Result struct {
	Trades      []market.Trade
	Metrics     Metrics
	Instruments int
	Unresolved  int
	Failures    map[string]error
}

// Runner backtests a strategy over every instrument of a dataset.
type Runner struct {
	log *logger.Logger
	cfg Config
}

// NewRunner builds a runner. A non positive worker count uses one worker per
// CPU.
func NewRunner(log *logger.Logger, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Runner{log: log, cfg: cfg}
}

type instrumentResult struct {
	trades     []market.Trade
	unresolved int
	err        error
}

// Run computes signals and exits per instrument in parallel, then aggregates
// and measures the trades. A failing instrument is recorded in
// Result.Failures and does not abort the run. Only cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, strat strategy.Strategy, data market.Dataset) (*Result, error) {
	tickers := data.Tickers()
	results := make([]instrumentResult, len(tickers))
	start := time.Now()

	r.log.InfoContext(ctx, "Running backtest",
		logger.StringField("strategy", string(strat.Kind())),
		logger.IntField("instruments", len(tickers)),
		logger.IntField("workers", r.cfg.Workers),
	)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, ticker := range tickers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runInstrument(strat, data[ticker])

			if n := done.Add(1); n%progressEvery == 0 {
				r.log.InfoContext(ctx, "Backtest in progress",
					logger.IntField("processed", int(n)),
					logger.IntField("instruments", len(tickers)),
					logger.IntField("percent", int(100*n/int64(len(tickers)))),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backtest cancelled: %w", err)
	}

	res := &Result{
		Instruments: len(tickers),
		Failures:    make(map[string]error),
	}
	perInstrument := make([][]market.Trade, 0, len(tickers))
	for i, ir := range results {
		if ir.err != nil {
			res.Failures[tickers[i]] = ir.err
			continue
		}
		res.Unresolved += ir.unresolved
		perInstrument = append(perInstrument, ir.trades)
	}

	trades, err := Aggregate(perInstrument, r.cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trades: %w", err)
	}
	res.Trades = MinWeekPreviousEntries(trades, r.cfg.MinWeekPreviousEntries)
	res.Metrics = ComputeMetrics(res.Trades)

	r.log.InfoContext(ctx, "Backtest completed",
		logger.StringField("strategy", string(strat.Kind())),
		logger.IntField("trades", len(res.Trades)),
		logger.IntField("unresolved", res.Unresolved),
		logger.IntField("failed_instruments", len(res.Failures)),
		logger.DurationField("elapsed", time.Since(start)),
	)
	return res, nil
}

func (r *Runner) runInstrument(strat strategy.Strategy, series market.Series) instrumentResult {
	rows, err := strat.ComputeSignals(series)
	if err != nil {
		return instrumentResult{err: fmt.Errorf("failed to compute signals for %s: %w", series.Ticker, err)}
	}
	trades, unresolved := Resolve(rows, strat.ExitRules())
	if r.cfg.Sampler.Enabled() {
		trades = r.cfg.Sampler.Sample(series.Ticker, trades)
	}
	return instrumentResult{trades: trades, unresolved: unresolved}
}
