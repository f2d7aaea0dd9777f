package backtest

import (
	"testing"
	"time"

	"golang-backtest/internal/market"
	"golang-backtest/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

var rules = strategy.ExitRules{MaxLosePercent: 10, MaxWinPercent: 15, MaxKeepDays: 10}

type bar struct {
	open, close float64
	goOn        bool
}

// signalRows builds an entry at index 0 closing at 100 followed by the
// given forward bars.
func signalRows(fwd ...bar) []strategy.SignalRow {
	rows := []strategy.SignalRow{{
		Bar:   market.Bar{Ticker: "ACME", Date: start, Open: 100, Close: 100, Volume: 200_000},
		Entry: true,
		GoOn:  true,
	}}
	for i, b := range fwd {
		rows = append(rows, strategy.SignalRow{
			Bar:  market.Bar{Ticker: "ACME", Date: start.AddDate(0, 0, i+1), Open: b.open, Close: b.close, Volume: 200_000},
			GoOn: b.goOn,
		})
	}
	return rows
}

func flat(n int) []bar {
	out := make([]bar, n)
	for i := range out {
		out[i] = bar{open: 100, close: 100, goOn: true}
	}
	return out
}

func TestResolve_ExitRules(t *testing.T) {
	tests := []struct {
		name   string
		fwd    []bar
		price  float64
		reason market.ExitReason
		offset int
	}{
		{"max win at target", []bar{{105, 116, true}}, 115, market.ExitMaxWin, 1},
		{"max win gap up exits at open", []bar{{120, 118, true}}, 120, market.ExitMaxWin, 1},
		{"max win beats go-on lost", []bar{{101, 116, false}}, 115, market.ExitMaxWin, 1},
		{"max lose at target", []bar{{95, 89, true}}, 90, market.ExitMaxLose, 1},
		{"max lose gap down exits at open", []bar{{85, 87, true}}, 85, market.ExitMaxLose, 1},
		{"go-on lost exits at close", []bar{{100, 101, true}, {100, 102, false}}, 102, market.ExitGoOnLost, 2},
		{"end days", flat(10), 100, market.ExitEndDays, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, unresolved := Resolve(signalRows(tt.fwd...), rules)
			require.Len(t, trades, 1)
			assert.Zero(t, unresolved)

			tr := trades[0]
			assert.InDelta(t, tt.price, tr.ExitPrice, 1e-9)
			assert.Equal(t, tt.reason, tr.ExitReason)
			assert.Equal(t, tt.offset, tr.ExitDayOffset)
			assert.Equal(t, start.AddDate(0, 0, tt.offset), tr.ExitDate)
			assert.InDelta(t, market.WinPercent(100, tt.price), tr.WinPercent, 1e-9)
			assert.Equal(t, "ACME", tr.Ticker)
			assert.True(t, tr.Entry)
		})
	}
}

func TestResolve_InsufficientForwardHistoryIsUnresolved(t *testing.T) {
	trades, unresolved := Resolve(signalRows(flat(9)...), rules)
	assert.Empty(t, trades)
	assert.Equal(t, 1, unresolved)
}

func TestResolve_EarlyExitNeedsNoFullWindow(t *testing.T) {
	trades, unresolved := Resolve(signalRows(bar{100, 100, true}, bar{100, 80, true}), rules)
	require.Len(t, trades, 1)
	assert.Zero(t, unresolved)
	assert.Equal(t, market.ExitMaxLose, trades[0].ExitReason)
}

func TestResolve_OnlyEntryRows(t *testing.T) {
	rows := signalRows(flat(12)...)
	rows[1].Entry = true

	trades, unresolved := Resolve(rows, rules)
	require.Len(t, trades, 2)
	assert.Zero(t, unresolved)
	assert.Equal(t, start, trades[0].EntryDate)
	assert.Equal(t, start.AddDate(0, 0, 1), trades[1].EntryDate)
}
