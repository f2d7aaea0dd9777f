package backtest

import (
	"math"
	"sort"

	"golang-backtest/internal/market"
)

// Metrics summarizes an aggregated trade table.
type Metrics struct {
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	WinRate            float64
	MeanWinPercent     float64
	TotalProfitPercent float64
	TotalLossPercent   float64
	ProfitFactor       float64
	MaxDrawdownPercent float64
	AvgHoldingDays     float64
	ExitReasons        map[market.ExitReason]int
}

// ComputeMetrics derives the performance metrics of trades. WinRate and
// MeanWinPercent are NaN when there are no trades.
func ComputeMetrics(trades []market.Trade) Metrics {
	m := Metrics{
		WinRate:        math.NaN(),
		MeanWinPercent: math.NaN(),
		ExitReasons:    make(map[market.ExitReason]int),
	}
	if len(trades) == 0 {
		return m
	}

	var totalWin float64
	var totalHolding int
	for _, t := range trades {
		m.TotalTrades++
		m.ExitReasons[t.ExitReason]++
		totalWin += t.WinPercent
		totalHolding += market.DaysBetween(t.EntryDate, t.ExitDate)

		if t.WinPercent > 0 {
			m.WinningTrades++
			m.TotalProfitPercent += t.WinPercent
		} else {
			m.LosingTrades++
			m.TotalLossPercent += t.WinPercent // Loss is negative
		}
	}

	n := float64(m.TotalTrades)
	m.WinRate = float64(m.WinningTrades) / n * 100
	m.MeanWinPercent = totalWin / n
	m.AvgHoldingDays = float64(totalHolding) / n
	if m.TotalLossPercent != 0 {
		m.ProfitFactor = m.TotalProfitPercent / -m.TotalLossPercent
	}
	m.MaxDrawdownPercent = maxDrawdown(trades)
	return m
}

// maxDrawdown is the largest peak to trough drop of the cumulative win
// percent curve, trades taken in exit order.
func maxDrawdown(trades []market.Trade) float64 {
	ordered := make([]market.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitDate.Before(ordered[j].ExitDate)
	})

	var equity, peak, drawdown float64
	for _, t := range ordered {
		equity += t.WinPercent
		peak = max(peak, equity)
		drawdown = max(drawdown, peak-equity)
	}
	return drawdown
}

// Worst returns the n trades with the lowest win percent, worst first.
func Worst(trades []market.Trade, n int) []market.Trade {
	ordered := make([]market.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].WinPercent < ordered[j].WinPercent
	})
	if n >= 0 && n < len(ordered) {
		ordered = ordered[:n]
	}
	return ordered
}
