package strategy

import (
	"golang-backtest/internal/indicator"
	"golang-backtest/internal/market"
)

// recoveryStrategy enters when the smoothed short EMA makes a 10 bar high
// while both the long and the short EMA sit above the medium EMA.
type recoveryStrategy struct {
	base
	longWindow   int
	mediumWindow int
	shortWindow  int
}

func newRecovery(b base, _ options) (Strategy, error) {
	s := &recoveryStrategy{
		base:         b,
		longWindow:   b.params[0],
		mediumWindow: b.params[1],
		shortWindow:  b.params[2],
	}
	if !(s.shortWindow < s.mediumWindow && s.mediumWindow < s.longWindow) {
		return nil, &ConfigError{Kind: b.kind, Reason: "windows must satisfy short_window < medium_window < long_window"}
	}
	return s, nil
}

func (s *recoveryStrategy) ReportColumns() []string {
	return []string{"ema_gap_percent"}
}

func (s *recoveryStrategy) ComputeSignals(series market.Series) ([]SignalRow, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := indicator.Close(series)
	long := indicator.EMA(closes, s.longWindow)
	medium := indicator.EMA(closes, s.mediumWindow)
	short := indicator.EMA(closes, s.shortWindow)

	smoothed := indicator.SMA(short, 5)
	top := indicator.RollingMax(smoothed, 10)

	shortAbove := greater(short, medium)
	entry := and(and(equal(smoothed, top), greater(long, medium)), shortAbove)

	gap := make([]float64, series.Len())
	for i := range gap {
		gap[i] = 100 * (short.Values[i] - medium.Values[i]) / medium.Values[i]
	}
	hints := map[string]indicator.Column{
		"ema_gap_percent": indicator.NewColumn("ema_gap_percent", gap),
	}
	return rows(series, entry, shortAbove, hints), nil
}
