package backtest

import (
	"fmt"
	"math"
	"sort"

	"golang-backtest/internal/market"
)

// lookbackEntries bounds how many previous entries of the same ticker are
// inspected by CountWeekPreviousEntries.
const lookbackEntries = 4

// Filter holds the quality floors applied to aggregated trades.
type Filter struct {
	PriceFloor       float64
	VolumeFloor      int64
	MaxAbsWinPercent float64
}

// DefaultFilter returns price > 2, volume > 100000 and |win| < 50.
func DefaultFilter() Filter {
	return Filter{PriceFloor: 2, VolumeFloor: 100_000, MaxAbsWinPercent: 50}
}

// Keep reports whether t passes the filter. Bounds are strict.
func (f Filter) Keep(t market.Trade) bool {
	return t.Entry &&
		f.admits(t.EntryPrice, t.Volume) &&
		!math.IsNaN(t.WinPercent) &&
		t.WinPercent < f.MaxAbsWinPercent &&
		t.WinPercent > -f.MaxAbsWinPercent
}

// admits checks the floors known at entry time.
func (f Filter) admits(price float64, volume int64) bool {
	return price > f.PriceFloor && volume > f.VolumeFloor
}

// Clean drops the trades rejected by f.
func Clean(trades []market.Trade, f Filter) []market.Trade {
	out := make([]market.Trade, 0, len(trades))
	for _, t := range trades {
		if f.Keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Aggregate concatenates per instrument trades, cleans them and computes
// the week previous entries of every remaining trade. The result is ordered
// by ticker then entry date.
func Aggregate(perInstrument [][]market.Trade, f Filter) ([]market.Trade, error) {
	var all []market.Trade
	for _, trades := range perInstrument {
		all = append(all, trades...)
	}
	return CountWeekPreviousEntries(Clean(all, f))
}

// CountWeekPreviousEntries sets WeekPreviousEntries to the number of the up to
// lookbackEntries previous entries of the same ticker dated strictly less
// than 7 calendar days earlier. Every input must be an entry and
// (ticker, entry date) must be unique.
func CountWeekPreviousEntries(trades []market.Trade) ([]market.Trade, error) {
	out := make([]market.Trade, len(trades))
	copy(out, trades)
	sortTrades(out)

	for i := range out {
		if !out[i].Entry {
			return nil, &market.DataIntegrityError{
				Ticker:   out[i].Ticker,
				Check:    "entry rows only",
				Observed: fmt.Sprintf("non entry row on %s", out[i].EntryDate.Format(market.DateLayout)),
				Expected: "entry=true",
			}
		}
		if i > 0 && out[i-1].Ticker == out[i].Ticker && out[i-1].EntryDate.Equal(out[i].EntryDate) {
			return nil, &market.DataIntegrityError{
				Ticker:   out[i].Ticker,
				Check:    "unique entry",
				Observed: fmt.Sprintf("two entries on %s", out[i].EntryDate.Format(market.DateLayout)),
				Expected: "one entry per ticker and date",
			}
		}

		count := 0
		for k := 1; k <= lookbackEntries && i-k >= 0; k++ {
			prev := out[i-k]
			if prev.Ticker != out[i].Ticker {
				break
			}
			if market.DaysBetween(prev.EntryDate, out[i].EntryDate) < 7 {
				count++
			}
		}
		out[i].WeekPreviousEntries = count
	}
	return out, nil
}

// MinWeekPreviousEntries keeps the trades with at least threshold previous entries.
func MinWeekPreviousEntries(trades []market.Trade, threshold int) []market.Trade {
	if threshold <= 0 {
		return trades
	}
	out := make([]market.Trade, 0, len(trades))
	for _, t := range trades {
		if t.WeekPreviousEntries >= threshold {
			out = append(out, t)
		}
	}
	return out
}

func sortTrades(trades []market.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Ticker != trades[j].Ticker {
			return trades[i].Ticker < trades[j].Ticker
		}
		return trades[i].EntryDate.Before(trades[j].EntryDate)
	})
}
