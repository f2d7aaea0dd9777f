package indicator

import (
	"fmt"
	"math"

	"golang-backtest/internal/market"
)

const rsiEpsilon = 1e-6

// Close returns the close column of a series.
func Close(s market.Series) Column {
	return Column{Name: "close", Values: s.Closes()}
}

// TrueRange is max(high-low, |high-prev close|, |low-prev close|). The first
// bar has no previous close and uses high-low.
func TrueRange(s market.Series) Column {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := s.Bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		out[i] = tr
	}
	return Column{Name: "true_range", Values: out}
}

// ATR is the trailing simple mean of the true range.
func ATR(s market.Series, window int) Column {
	atr := SMA(TrueRange(s), window)
	atr.Name = fmt.Sprintf("atr_%d", window)
	return atr
}

// MACD returns (EMA(fast) - EMA(slow)) minus its EMA(signal).
func MACD(src Column, fast, slow, signal int) Column {
	diff := Sub("macd_diff", EMA(src, fast), EMA(src, slow))
	out := Sub(fmt.Sprintf("%s_macd_%d_%d_%d", src.Name, fast, slow, signal), diff, EMA(diff, signal))
	return out
}

// RSI is 100 - 100/(1 + EMA(gains)/(EMA(losses)+eps)). When smooth > 1 the
// result is smoothed with an SMA of that window.
func RSI(s market.Series, window, smooth int) Column {
	closes := Diff(Close(s), 1)
	gains := make([]float64, closes.Len())
	losses := make([]float64, closes.Len())
	for i, v := range closes.Values {
		if math.IsNaN(v) {
			gains[i], losses[i] = math.NaN(), math.NaN()
			continue
		}
		gains[i] = math.Max(v, 0)
		losses[i] = math.Max(-v, 0)
	}

	up := EMA(Column{Name: "gains", Values: gains}, window)
	down := EMA(Column{Name: "losses", Values: losses}, window)
	out := make([]float64, len(gains))
	for i := range out {
		out[i] = 100 - 100/(1+up.Values[i]/(down.Values[i]+rsiEpsilon))
	}

	rsi := Column{Name: fmt.Sprintf("rsi_%d", window), Values: out}
	if smooth > 1 {
		rsi = SMA(rsi, smooth)
	}
	return rsi
}

// Bands is the output of Bollinger.
type Bands struct {
	Low    Column
	Center Column
	High   Column
}

// Bollinger computes bands around the SMA of the typical price. The half
// width is two population standard deviations of the trailing window of
// center values, recomputed from scratch at every position.
func Bollinger(s market.Series, window int) Bands {
	typical := make([]float64, s.Len())
	for i, b := range s.Bars {
		typical[i] = (b.High + b.Low + b.Close) / 3
	}
	center := SMA(Column{Name: "typical_price", Values: typical}, window)
	sd := rolling(center.Values, window, popStd)

	low := make([]float64, s.Len())
	high := make([]float64, s.Len())
	for i := range low {
		low[i] = center.Values[i] - 2*sd[i]
		high[i] = center.Values[i] + 2*sd[i]
	}
	prefix := fmt.Sprintf("bollinger_%d", window)
	center.Name = prefix + "_center"
	return Bands{
		Low:    Column{Name: prefix + "_low", Values: low},
		Center: center,
		High:   Column{Name: prefix + "_high", Values: high},
	}
}
