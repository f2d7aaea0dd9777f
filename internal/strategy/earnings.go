package strategy

import (
	"math"
	"sort"

	"golang-backtest/internal/indicator"
	"golang-backtest/internal/market"
)

// surpriseLookback is how many bars after an earnings publication the
// surprise still counts as recent.
const surpriseLookback = 3

// earningsStrategy rides the post earnings drift: it enters on a rising
// short EMA when the last publication beat the estimate.
type earningsStrategy struct {
	base
	shortWindow int
	longWindow  int
	calendar    market.EarningsCalendar
}

func newEarnings(b base, o options) (Strategy, error) {
	s := &earningsStrategy{
		base:        b,
		shortWindow: b.params[0],
		longWindow:  b.params[1],
		calendar:    o.earnings,
	}
	if s.shortWindow >= s.longWindow {
		return nil, &ConfigError{Kind: b.kind, Reason: "short_window must be lower than long_window"}
	}
	if s.calendar == nil {
		return nil, &ConfigError{Kind: b.kind, Reason: "earnings calendar is required"}
	}
	return s, nil
}

func (s *earningsStrategy) ReportColumns() []string {
	return []string{"last_surprise", "long_ema_rising"}
}

func (s *earningsStrategy) ComputeSignals(series market.Series) ([]SignalRow, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := indicator.Close(series)
	shortEvolution := indicator.Diff(indicator.EMA(closes, s.shortWindow), 1)
	longEvolution := indicator.Diff(indicator.EMA(closes, s.longWindow), 1)

	surprise := s.lastSurprise(series)
	good := flags(shortEvolution, positive)
	entry := and(good, flags(surprise, positive))

	hints := map[string]indicator.Column{
		"last_surprise":   surprise,
		"long_ema_rising": hint(longEvolution, positive),
	}
	return rows(series, entry, within(good, 5), hints), nil
}

// lastSurprise returns, per bar, the surprise of the most recent reported
// publication within the previous surpriseLookback bars. A publication on a
// non trading day is attributed to the next bar.
func (s *earningsStrategy) lastSurprise(series market.Series) indicator.Column {
	n := series.Len()
	published := make([]float64, n)
	for i := range published {
		published[i] = math.NaN()
	}
	for _, ev := range s.calendar[series.Ticker] {
		if !ev.Reported() {
			continue
		}
		idx := sort.Search(n, func(i int) bool {
			return !series.Bars[i].Date.Before(ev.EventDate)
		})
		if idx < n {
			published[idx] = *ev.SurprisePct
		}
	}

	pub := indicator.NewColumn("published_surprise", published)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	// the nearest publication wins
	for k := 1; k <= surpriseLookback; k++ {
		lagged := indicator.Shift(pub, k)
		for i := range out {
			if math.IsNaN(out[i]) && lagged.Defined(i) {
				out[i] = lagged.Values[i]
			}
		}
	}
	return indicator.NewColumn("last_surprise", out)
}
