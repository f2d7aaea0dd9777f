package strategy

import (
	"golang-backtest/internal/indicator"
	"golang-backtest/internal/market"
)

// macdStrategy enters when the gap between the MACD signal line and the MACD
// line is negative but has been closing on every bar of the search window.
type macdStrategy struct {
	base
	shortWindow     int
	longWindow      int
	macdWindow      int
	emaWindowSearch int
}

func newMACD(b base, _ options) (Strategy, error) {
	s := &macdStrategy{
		base:            b,
		shortWindow:     b.params[0],
		longWindow:      b.params[1],
		macdWindow:      b.params[2],
		emaWindowSearch: b.params[3],
	}
	if s.shortWindow >= s.longWindow {
		return nil, &ConfigError{Kind: b.kind, Reason: "short_window must be lower than long_window"}
	}
	return s, nil
}

func (s *macdStrategy) ReportColumns() []string {
	return []string{"atr_decreasing", "ema_increasing"}
}

func (s *macdStrategy) ComputeSignals(series market.Series) ([]SignalRow, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := indicator.Close(series)

	// signal - macd is the negated histogram
	emasDiff := indicator.Negate("emas_diff", indicator.MACD(closes, s.shortWindow, s.longWindow, s.macdWindow))
	evolution := trendOf(indicator.EMA(emasDiff, 3), s.emaWindowSearch, indicator.RollingMin)

	good := flags(evolution, positive)
	entry := and(good, flags(emasDiff, negative))
	goOn := within(good, 5)

	atr := indicator.SMA(indicator.ATR(series, 14), 3)
	ema21 := indicator.EMA(indicator.EMA(closes, 21), 2)
	hints := map[string]indicator.Column{
		"atr_decreasing": hint(trendOf(atr, 5, indicator.RollingMax), negative),
		"ema_increasing": hint(trendOf(ema21, 5, indicator.RollingMin), positive),
	}
	return rows(series, entry, goOn, hints), nil
}
