package strategy

import (
	"golang-backtest/internal/indicator"
	"golang-backtest/internal/market"
)

// recordStrategy follows a stock that closes at a new high of the record
// window.
type recordStrategy struct {
	base
	recordWindow int
}

func newRecord(b base, _ options) (Strategy, error) {
	return &recordStrategy{base: b, recordWindow: b.params[0]}, nil
}

func (s *recordStrategy) ReportColumns() []string {
	return nil
}

func (s *recordStrategy) ComputeSignals(series market.Series) ([]SignalRow, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := indicator.Close(series)
	entry := equal(indicator.RollingMax(closes, s.recordWindow), closes)
	return rows(series, entry, always(series.Len()), nil), nil
}
