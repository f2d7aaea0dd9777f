package optimizer

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	got := Expand(strategy.Grid{{1, 2}, {10, 20}})
	assert.Equal(t, []strategy.Parameters{{1, 10}, {1, 20}, {2, 10}, {2, 20}}, got)

	assert.Len(t, Expand(strategy.Grid{{1, 2, 3}, {4}, {5, 6}}), 6)
	assert.Empty(t, Expand(strategy.Grid{{1, 2}, {}}))
	assert.Empty(t, Expand(nil))
}

func TestExpand_CombinationsDoNotAlias(t *testing.T) {
	got := Expand(strategy.Grid{{1}, {2, 3}, {4, 5}})
	got[0][2] = 99
	assert.Equal(t, strategy.Parameters{1, 2, 5}, got[1])
}

func TestExpand_DefaultGridSizes(t *testing.T) {
	for _, kind := range strategy.Kinds() {
		grid, err := strategy.GridFor(kind)
		require.NoError(t, err)
		want := 1
		for _, values := range grid {
			want *= len(values)
		}
		assert.Len(t, Expand(grid), want, kind)
	}
}

// recordWindowScore makes the record window the objective.
func recordWindowScore(_ context.Context, s strategy.Strategy) (Score, error) {
	p := s.Parameters()
	return Score{MeanWinPercent: float64(p[0]) - float64(p[3]), WinRate: 50, Trades: 1}, nil
}

func TestRunGrid_PicksBestInGridOrder(t *testing.T) {
	var progress []Progress
	var mu sync.Mutex
	opt := NewOptimizer(logger.NewNop(), Config{Workers: 4}, WithProgress(func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, p)
	}))

	report, err := opt.Run(context.Background(), strategy.KindRecord, recordWindowScore)
	require.NoError(t, err)

	assert.Equal(t, strategy.Parameters{60, 10, 15, 7}, report.Best)
	assert.InDelta(t, 53, report.BestValue, 1e-12)
	assert.Len(t, report.Outcomes, 32)
	assert.Empty(t, report.Skips)

	require.Len(t, progress, 32)
	for i, p := range progress {
		assert.Equal(t, i, p.Index)
	}
	assert.Equal(t, strategy.Parameters{30, 10, 15, 7}, progress[0].Best)
}

func TestRunGrid_TiesGoToFirstCombination(t *testing.T) {
	opt := NewOptimizer(logger.NewNop(), Config{Workers: 8, Objective: ObjectiveWinRate})
	report, err := opt.Run(context.Background(), strategy.KindRecord, recordWindowScore)
	require.NoError(t, err)
	assert.Equal(t, strategy.Parameters{30, 10, 15, 7}, report.Best)
}

func TestRunGrid_SkipsAndNaN(t *testing.T) {
	grid := strategy.Grid{{10, 20, 30}, {10}, {15}, {7}}
	evaluate := func(_ context.Context, s strategy.Strategy) (Score, error) {
		switch s.Parameters()[0] {
		case 10:
			return Score{}, errors.New("no data")
		case 30:
			return Score{MeanWinPercent: math.NaN()}, nil
		}
		return Score{MeanWinPercent: -4}, nil
	}

	report, err := NewOptimizer(logger.NewNop(), Config{Workers: 2}).RunGrid(context.Background(), strategy.KindRecord, grid, evaluate)
	require.NoError(t, err)
	assert.Equal(t, strategy.Parameters{20, 10, 15, 7}, report.Best)
	require.Len(t, report.Skips, 1)
	assert.Equal(t, strategy.Parameters{10, 10, 15, 7}, report.Skips[0].Combination)
}

func TestRunGrid_InvalidCombinationIsSkipped(t *testing.T) {
	grid := strategy.Grid{{40}, {15, 50}, {7}, {10}, {15}, {7}}
	report, err := NewOptimizer(logger.NewNop(), Config{}).RunGrid(context.Background(), strategy.KindRecovery, grid,
		func(context.Context, strategy.Strategy) (Score, error) { return Score{MeanWinPercent: 1}, nil })
	require.NoError(t, err)
	require.Len(t, report.Skips, 1)
	assert.ErrorIs(t, report.Skips[0].Err, strategy.ErrInvalidParameters)
}

func TestRunGrid_NoValidCombination(t *testing.T) {
	opt := NewOptimizer(logger.NewNop(), Config{})
	_, err := opt.RunGrid(context.Background(), strategy.KindRecord, strategy.Grid{{10}, {10}, {15}, {7}},
		func(context.Context, strategy.Strategy) (Score, error) { return Score{MeanWinPercent: math.NaN()}, nil })
	assert.ErrorIs(t, err, ErrNoValidCombination)

	_, err = opt.RunGrid(context.Background(), strategy.KindRecord, strategy.Grid{{}, {10}, {15}, {7}}, recordWindowScore)
	assert.ErrorIs(t, err, ErrNoValidCombination)
}

func TestRunGrid_Idempotent(t *testing.T) {
	opt := NewOptimizer(logger.NewNop(), Config{Workers: 3})
	first, err := opt.Run(context.Background(), strategy.KindReverse, func(_ context.Context, s strategy.Strategy) (Score, error) {
		p := s.Parameters()
		return Score{MeanWinPercent: math.Sin(float64(p[0]*p[1] + p[4]))}, nil
	})
	require.NoError(t, err)
	second, err := opt.Run(context.Background(), strategy.KindReverse, func(_ context.Context, s strategy.Strategy) (Score, error) {
		p := s.Parameters()
		return Score{MeanWinPercent: math.Sin(float64(p[0]*p[1] + p[4]))}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.Outcomes, second.Outcomes)
}

func TestRunGrid_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOptimizer(logger.NewNop(), Config{}).Run(ctx, strategy.KindRecord, recordWindowScore)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseObjective(t *testing.T) {
	o, err := ParseObjective("")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveMeanWin, o)

	o, err = ParseObjective("Wealth")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveWealth, o)

	_, err = ParseObjective("sharpe")
	assert.Error(t, err)
}
