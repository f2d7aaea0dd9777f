// Package backtest turns strategy signals into trade outcomes and
// aggregates them across instruments.
package backtest

import (
	"golang-backtest/internal/market"
	"golang-backtest/internal/strategy"
)

// Resolve walks forward from every entry row of one instrument and
// determines its exit. Entries whose forward history ends before an exit is
// decided are not returned; their count is reported as unresolved.
func Resolve(rows []strategy.SignalRow, rules strategy.ExitRules) ([]market.Trade, int) {
	var (
		trades     []market.Trade
		unresolved int
	)
	for i, row := range rows {
		if !row.Entry {
			continue
		}
		trade, ok := resolveOne(rows, i, rules)
		if !ok {
			unresolved++
			continue
		}
		trades = append(trades, trade)
	}
	return trades, unresolved
}

func resolveOne(rows []strategy.SignalRow, i int, rules strategy.ExitRules) (market.Trade, bool) {
	entry := rows[i]
	targetWin := (1 + float64(rules.MaxWinPercent)/100) * entry.Close
	targetLose := (1 - float64(rules.MaxLosePercent)/100) * entry.Close

	for d := 1; d <= rules.MaxKeepDays; d++ {
		if i+d >= len(rows) {
			return market.Trade{}, false
		}
		fwd := rows[i+d]

		var (
			price  float64
			reason market.ExitReason
		)
		switch {
		case fwd.Close >= targetWin:
			price, reason = max(fwd.Open, targetWin), market.ExitMaxWin
		case fwd.Close <= targetLose:
			price, reason = min(fwd.Open, targetLose), market.ExitMaxLose
		case !fwd.GoOn:
			price, reason = fwd.Close, market.ExitGoOnLost
		case d == rules.MaxKeepDays:
			price, reason = fwd.Close, market.ExitEndDays
		default:
			continue
		}
		return newTrade(entry, fwd, d, price, reason), true
	}
	return market.Trade{}, false
}

func newTrade(entry, exit strategy.SignalRow, offset int, price float64, reason market.ExitReason) market.Trade {
	return market.Trade{
		Ticker:        entry.Ticker,
		Entry:         entry.Entry,
		EntryDate:     entry.Date,
		EntryPrice:    entry.Close,
		Volume:        entry.Volume,
		ExitDate:      exit.Date,
		ExitDayOffset: offset,
		ExitPrice:     price,
		ExitReason:    reason,
		WinPercent:    market.WinPercent(entry.Close, price),
		Hints:         entry.Hints,
	}
}
