package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"

	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/common"
	"golang-backtest/pkg/logger"

	"golang.org/x/sync/errgroup"
)

var ErrNoValidCombination = errors.New("no valid combination")

// Objective names the score maximized by the search.
type Objective string

const (
	ObjectiveMeanWin Objective = common.OBJECTIVE_MEAN_WIN
	ObjectiveWinRate Objective = common.OBJECTIVE_WIN_RATE
	ObjectiveWealth  Objective = common.OBJECTIVE_WEALTH
)

// ParseObjective resolves an objective name. Empty means mean_win.
func ParseObjective(name string) (Objective, error) {
	switch o := Objective(strings.ToLower(strings.TrimSpace(name))); o {
	case "":
		return ObjectiveMeanWin, nil
	case ObjectiveMeanWin, ObjectiveWinRate, ObjectiveWealth:
		return o, nil
	default:
		return "", fmt.Errorf("unknown objective %q", name)
	}
}

// Score is what an evaluation reports about one combination.
type Score struct {
	MeanWinPercent float64 `json:"mean_win_percent"`
	WinRate        float64 `json:"win_rate"`
	Wealth         float64 `json:"wealth"`
	Trades         int     `json:"trades"`
}

// Value returns the field selected by o.
func (s Score) Value(o Objective) float64 {
	switch o {
	case ObjectiveWinRate:
		return s.WinRate
	case ObjectiveWealth:
		return s.Wealth
	default:
		return s.MeanWinPercent
	}
}

// Evaluator scores one strategy instance.
type Evaluator func(ctx context.Context, strat strategy.Strategy) (Score, error)

// Outcome is the evaluation of one combination.
type Outcome struct {
	Combination strategy.Parameters `json:"combination"`
	Score       Score               `json:"score"`
}

// Skip is a combination whose construction or evaluation failed.
type Skip struct {
	Combination strategy.Parameters `json:"combination"`
	Err         error               `json:"-"`
}

// Progress is emitted after every combination, in grid order.
type Progress struct {
	Index       int
	Total       int
	Combination strategy.Parameters
	Value       float64
	Best        strategy.Parameters
	BestValue   float64
}

// Report is the result of a search.
type Report struct {
	Kind      strategy.Kind
	Objective Objective
	Best      strategy.Parameters
	BestScore Score
	BestValue float64
	Outcomes  []Outcome
	Skips     []Skip
	Total     int
}

// Config tunes an Optimizer.
type Config struct {
	Workers   int
	Objective Objective
}

// Optimizer runs grid searches.
type Optimizer struct {
	log        *logger.Logger
	cfg        Config
	onProgress func(Progress)
}

// Option customizes an Optimizer.
type Option func(*Optimizer)

// WithProgress registers fn to receive the running best.
func WithProgress(fn func(Progress)) Option {
	return func(o *Optimizer) {
		o.onProgress = fn
	}
}

func NewOptimizer(log *logger.Logger, cfg Config, opts ...Option) *Optimizer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Objective == "" {
		cfg.Objective = ObjectiveMeanWin
	}
	o := &Optimizer{log: log, cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run searches the default grid of kind.
func (o *Optimizer) Run(ctx context.Context, kind strategy.Kind, evaluate Evaluator, opts ...strategy.Option) (*Report, error) {
	grid, err := strategy.GridFor(kind)
	if err != nil {
		return nil, err
	}
	return o.RunGrid(ctx, kind, grid, evaluate, opts...)
}

type slot struct {
	score Score
	err   error
}

// RunGrid evaluates every combination of grid in parallel. Results are
// reduced in grid order, so ties go to the earliest combination and the
// report does not depend on scheduling. A NaN objective never wins.
func (o *Optimizer) RunGrid(ctx context.Context, kind strategy.Kind, grid strategy.Grid, evaluate Evaluator, opts ...strategy.Option) (*Report, error) {
	space := Expand(grid)
	report := &Report{Kind: kind, Objective: o.cfg.Objective, Total: len(space), BestValue: math.Inf(-1)}
	if len(space) == 0 {
		return report, fmt.Errorf("%w: empty search space for %s", ErrNoValidCombination, kind)
	}

	o.log.InfoContext(ctx, "Starting grid search",
		logger.StringField("strategy", string(kind)),
		logger.StringField("objective", string(o.cfg.Objective)),
		logger.IntField("combinations", len(space)),
	)

	slots := make([]slot, len(space))
	completed := make(chan int, len(space))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	go func() {
		for i, params := range space {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				defer func() { completed <- i }()
				if err := gctx.Err(); err != nil {
					slots[i].err = err
					return err
				}
				strat, err := strategy.New(kind, params, opts...)
				if err != nil {
					slots[i].err = err
					return nil
				}
				slots[i].score, slots[i].err = evaluate(gctx, strat)
				return nil
			})
		}
		_ = g.Wait()
		close(completed)
	}()

	done := make([]bool, len(space))
	next := 0
	for i := range completed {
		done[i] = true
		for next < len(space) && done[next] {
			o.reduce(ctx, report, next, space[next], slots[next])
			next++
		}
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("grid search cancelled: %w", err)
	}

	if report.Best == nil {
		return report, fmt.Errorf("%w: %d of %d combinations failed for %s",
			ErrNoValidCombination, len(report.Skips), len(space), kind)
	}

	o.log.InfoContext(ctx, "Grid search completed",
		logger.StringField("strategy", string(kind)),
		logger.StringField("best_combination", fmt.Sprint(report.Best)),
		logger.Float64Field("best_value", report.BestValue),
		logger.IntField("skipped", len(report.Skips)),
	)
	return report, nil
}

func (o *Optimizer) reduce(ctx context.Context, report *Report, index int, params strategy.Parameters, s slot) {
	value := math.NaN()
	if s.err != nil {
		report.Skips = append(report.Skips, Skip{Combination: params, Err: s.err})
		o.log.WarnContext(ctx, "Skipping combination",
			logger.StringField("combination", fmt.Sprint(params)),
			logger.ErrorField(s.err),
		)
	} else {
		value = s.score.Value(o.cfg.Objective)
		report.Outcomes = append(report.Outcomes, Outcome{Combination: params, Score: s.score})
		if !math.IsNaN(value) && (report.Best == nil || value > report.BestValue) {
			report.Best = params
			report.BestScore = s.score
			report.BestValue = value
		}
	}

	o.log.InfoContext(ctx, "Current best combination",
		logger.IntField("index", index+1),
		logger.IntField("total", report.Total),
		logger.StringField("combination", fmt.Sprint(params)),
		logger.Float64Field("value", value),
		logger.StringField("best_combination", fmt.Sprint(report.Best)),
		logger.Float64Field("best_value", report.BestValue),
	)
	if o.onProgress != nil {
		o.onProgress(Progress{
			Index:       index,
			Total:       report.Total,
			Combination: params,
			Value:       value,
			Best:        report.Best,
			BestValue:   report.BestValue,
		})
	}
}
