package strategy

import (
	"math"

	"golang-backtest/internal/indicator"
	"golang-backtest/internal/market"
)

// flags evaluates pred at every position where c is defined. Undefined
// positions are false.
func flags(c indicator.Column, pred func(float64) bool) []bool {
	out := make([]bool, c.Len())
	for i, v := range c.Values {
		out[i] = !math.IsNaN(v) && pred(v)
	}
	return out
}

func positive(v float64) bool { return v > 0 }

func negative(v float64) bool { return v < 0 }

func and(a, b []bool) []bool {
	out := make([]bool, len(a))
	for i := range a {
		out[i] = a[i] && b[i]
	}
	return out
}

// within is true at i when f holds at any of the positions i-lookback..i.
func within(f []bool, lookback int) []bool {
	out := make([]bool, len(f))
	for i := range f {
		for k := 0; k <= lookback && i-k >= 0; k++ {
			if f[i-k] {
				out[i] = true
				break
			}
		}
	}
	return out
}

func greater(a, b indicator.Column) []bool {
	out := make([]bool, a.Len())
	for i := range out {
		out[i] = a.Defined(i) && b.Defined(i) && a.Values[i] > b.Values[i]
	}
	return out
}

func equal(a, b indicator.Column) []bool {
	out := make([]bool, a.Len())
	for i := range out {
		out[i] = a.Defined(i) && b.Defined(i) && a.Values[i] == b.Values[i]
	}
	return out
}

func always(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// hint turns a boolean condition on c into a report column: NaN where c is
// undefined, otherwise 1 or 0.
func hint(c indicator.Column, pred func(float64) bool) indicator.Column {
	out := make([]float64, c.Len())
	for i, v := range c.Values {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case pred(v):
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return indicator.Column{Name: c.Name, Values: out}
}

// trendOf is the rolling extreme of the one bar change of c.
func trendOf(c indicator.Column, window int, extreme func(indicator.Column, int) indicator.Column) indicator.Column {
	return extreme(indicator.Diff(c, 1), window)
}

// rows assembles signal rows. hints are keyed by report column name.
func rows(s market.Series, entry, goOn []bool, hints map[string]indicator.Column) []SignalRow {
	out := make([]SignalRow, s.Len())
	for i, b := range s.Bars {
		if b.Ticker == "" {
			b.Ticker = s.Ticker
		}
		row := SignalRow{Bar: b, Entry: entry[i], GoOn: goOn[i]}
		if len(hints) > 0 {
			row.Hints = make(map[string]float64, len(hints))
			for name, c := range hints {
				row.Hints[name] = c.At(i)
			}
		}
		out[i] = row
	}
	return out
}
