package strategy

import (
	"golang-backtest/internal/indicator"
	"golang-backtest/internal/market"
)

// reverseStrategy looks for an RSI divergence: RSI rising while the price
// EMA is falling. It enters once the EMA turns up within 5 bars of such a
// divergence.
type reverseStrategy struct {
	base
	emaWindow       int
	evolutionWindow int
}

func newReverse(b base, _ options) (Strategy, error) {
	return &reverseStrategy{
		base:            b,
		emaWindow:       b.params[0],
		evolutionWindow: b.params[1],
	}, nil
}

func (s *reverseStrategy) ReportColumns() []string {
	return []string{"atr_decreasing", "sma_decreasing"}
}

func (s *reverseStrategy) ComputeSignals(series market.Series) ([]SignalRow, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := indicator.Close(series)
	ema := indicator.SMA(indicator.EMA(closes, s.emaWindow), 3)
	rsi := indicator.SMA(indicator.RSI(series, 14, 3), 3)

	rsiIncreasing := flags(trendOf(rsi, s.evolutionWindow, indicator.RollingMin), positive)
	priceDecreasing := flags(trendOf(ema, s.evolutionWindow, indicator.RollingMax), negative)
	divergence := and(rsiIncreasing, priceDecreasing)

	emaIncreasing := flags(indicator.Diff(ema, 1), positive)
	entry := and(emaIncreasing, within(divergence, 4))

	atr := indicator.SMA(indicator.ATR(series, 14), 5)
	sma := indicator.SMA(closes, 52)
	hints := map[string]indicator.Column{
		"atr_decreasing": hint(trendOf(atr, 5, indicator.RollingMax), negative),
		"sma_decreasing": hint(trendOf(sma, 10, indicator.RollingMax), negative),
	}
	return rows(series, entry, always(series.Len()), hints), nil
}
