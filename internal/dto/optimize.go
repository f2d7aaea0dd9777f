package dto

import (
	"strings"

	"golang-backtest/internal/optimizer"
	"golang-backtest/pkg/utils"
)

type OptimizeRequest struct {
	UniverseRequest
	Strategy  string `json:"strategy" validate:"required,oneof=macd recovery record reverse earnings"`
	Objective string `json:"objective" validate:"omitempty,oneof=mean_win win_rate wealth"`
	From      string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	// Grid overrides the default parameter grid of the strategy.
	Grid [][]int `json:"grid" validate:"omitempty,dive,min=1,dive,gt=0"`
}

type OptimizeOutcome struct {
	Combination    []int    `json:"combination"`
	MeanWinPercent *float64 `json:"mean_win_percent"`
	WinRate        *float64 `json:"win_rate"`
	Wealth         *float64 `json:"wealth"`
	Trades         int      `json:"trades"`
}

type OptimizeSkip struct {
	Combination []int  `json:"combination"`
	Error       string `json:"error"`
}

type OptimizeResult struct {
	RunID        uint              `json:"run_id,omitempty"`
	Strategy     string            `json:"strategy"`
	Objective    string            `json:"objective"`
	Best         map[string]int    `json:"best"`
	BestValue    *float64          `json:"best_value"`
	BestScore    OptimizeOutcome   `json:"best_score"`
	Combinations int               `json:"combinations"`
	Outcomes     []OptimizeOutcome `json:"outcomes"`
	Skips        []OptimizeSkip    `json:"skips,omitempty"`
}

func NewOptimizeOutcome(combination []int, s optimizer.Score) OptimizeOutcome {
	return OptimizeOutcome{
		Combination:    combination,
		MeanWinPercent: utils.FiniteOrNil(s.MeanWinPercent),
		WinRate:        utils.FiniteOrNil(s.WinRate),
		Wealth:         utils.FiniteOrNil(s.Wealth),
		Trades:         s.Trades,
	}
}

func NewOptimizeSkips(skips []optimizer.Skip) []OptimizeSkip {
	out := make([]OptimizeSkip, 0, len(skips))
	for _, s := range skips {
		msg := ""
		if s.Err != nil {
			msg = strings.TrimSpace(s.Err.Error())
		}
		out = append(out, OptimizeSkip{Combination: s.Combination, Error: msg})
	}
	return out
}
