// Package simulator replays an aggregated trade table against a finite
// capital with per trade allocation limits and fees.
package simulator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"golang-backtest/internal/market"

	"github.com/shopspring/decimal"
)

// maxOpenPerTicker bounds the concurrent positions held on one ticker.
const maxOpenPerTicker = 2

var ErrInvalidConfig = errors.New("invalid simulation config")

// Config describes the capital and the allocation rules of a run.
type Config struct {
	TotalAmount    decimal.Decimal
	TransactionMin decimal.Decimal
	TransactionMax decimal.Decimal
	MaxTradesByDay int
	Fee            decimal.Decimal
	// Until is the last simulated day. Zero means today.
	Until time.Time
}

// DefaultConfig returns 30000 of capital, 1800 to 2500 per trade, 3 trades
// per day and a fee of 2 per trade.
func DefaultConfig() Config {
	return Config{
		TotalAmount:    decimal.NewFromInt(30000),
		TransactionMin: decimal.NewFromInt(1800),
		TransactionMax: decimal.NewFromInt(2500),
		MaxTradesByDay: 3,
		Fee:            decimal.NewFromInt(2),
	}
}

func (c Config) validate() error {
	switch {
	case !c.TotalAmount.IsPositive():
		return fmt.Errorf("%w: total amount must be positive", ErrInvalidConfig)
	case c.TransactionMin.IsNegative():
		return fmt.Errorf("%w: transaction min must not be negative", ErrInvalidConfig)
	case c.TransactionMax.LessThan(c.TransactionMin):
		return fmt.Errorf("%w: transaction max below transaction min", ErrInvalidConfig)
	case c.MaxTradesByDay <= 0:
		return fmt.Errorf("%w: max trades by day must be positive", ErrInvalidConfig)
	case c.Fee.IsNegative():
		return fmt.Errorf("%w: fee must not be negative", ErrInvalidConfig)
	}
	return nil
}

// RealizedTrade is a trade that received capital.
type RealizedTrade struct {
	Ticker     string          `json:"ticker"`
	EntryDate  time.Time       `json:"entry_date"`
	ExitDate   time.Time       `json:"exit_date"`
	EntryPrice float64         `json:"entry_price"`
	ExitPrice  float64         `json:"exit_price"`
	WinPercent float64         `json:"win_percent"`
	Allocation decimal.Decimal `json:"allocation"`
	Proceeds   decimal.Decimal `json:"proceeds"`
}

// Ledger is the state of one simulation run.
type Ledger struct {
	Cash    decimal.Decimal
	Fees    decimal.Decimal
	Pending map[time.Time]decimal.Decimal
	Trades  []RealizedTrade
}

func newLedger(total decimal.Decimal) *Ledger {
	return &Ledger{
		Cash:    total,
		Fees:    decimal.Zero,
		Pending: make(map[time.Time]decimal.Decimal),
	}
}

// collect moves the proceeds due on day into cash.
func (l *Ledger) collect(day time.Time) {
	if amount, ok := l.Pending[day]; ok {
		l.Cash = l.Cash.Add(amount)
		delete(l.Pending, day)
	}
}

// openOn counts the positions on ticker open on day.
func (l *Ledger) openOn(ticker string, day time.Time) int {
	n := 0
	for _, t := range l.Trades {
		if t.Ticker == ticker && !t.EntryDate.After(day) && day.Before(t.ExitDate) {
			n++
		}
	}
	return n
}

func (l *Ledger) deploy(t market.Trade, allocation, fee decimal.Decimal) {
	proceeds := allocation.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(t.WinPercent).Div(decimal.NewFromInt(100))))
	exit := market.Day(t.ExitDate)

	l.Cash = l.Cash.Sub(allocation).Sub(fee)
	l.Fees = l.Fees.Add(fee)
	l.Pending[exit] = l.Pending[exit].Add(proceeds)
	l.Trades = append(l.Trades, RealizedTrade{
		Ticker:     t.Ticker,
		EntryDate:  market.Day(t.EntryDate),
		ExitDate:   exit,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		WinPercent: t.WinPercent,
		Allocation: allocation,
		Proceeds:   proceeds,
	})
}

func (l *Ledger) pendingTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range l.Pending {
		total = total.Add(v)
	}
	return total
}

// Result is the outcome of a simulation.
type Result struct {
	Wealth  decimal.Decimal `json:"wealth"`
	Cash    decimal.Decimal `json:"cash"`
	Pending decimal.Decimal `json:"pending"`
	Fees    decimal.Decimal `json:"fees"`
	Returns decimal.Decimal `json:"returns"`
	Trades  []RealizedTrade `json:"trades"`
}

// Simulate walks every calendar day from the earliest entry to cfg.Until.
// Each day it first recovers the proceeds due, then spreads the cash over up
// to MaxTradesByDay of the day's trades taken in ticker order.
func Simulate(trades []market.Trade, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	until := cfg.Until
	if until.IsZero() {
		until = time.Now()
	}
	until = market.Day(until)

	byDay := make(map[time.Time][]market.Trade)
	var first time.Time
	for _, t := range trades {
		d := market.Day(t.EntryDate)
		byDay[d] = append(byDay[d], t)
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}

	ledger := newLedger(cfg.TotalAmount)
	if len(trades) > 0 {
		for day := first; !day.After(until); day = day.AddDate(0, 0, 1) {
			ledger.collect(day)
			simulateDay(ledger, byDay[day], day, cfg)
		}
	}

	pending := ledger.pendingTotal()
	returns := decimal.Zero
	for _, t := range ledger.Trades {
		returns = returns.Add(t.Proceeds.Sub(t.Allocation))
	}
	return &Result{
		Wealth:  ledger.Cash.Add(pending),
		Cash:    ledger.Cash,
		Pending: pending,
		Fees:    ledger.Fees,
		Returns: returns,
		Trades:  ledger.Trades,
	}, nil
}

func simulateDay(ledger *Ledger, candidates []market.Trade, day time.Time, cfg Config) {
	n := min(len(candidates), cfg.MaxTradesByDay)
	if n == 0 {
		return
	}
	share := ledger.Cash.Div(decimal.NewFromInt(int64(n)))
	if share.LessThan(cfg.TransactionMin) {
		return
	}
	allocation := decimal.Min(share, cfg.TransactionMax)

	ordered := make([]market.Trade, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ticker < ordered[j].Ticker
	})

	deployed := 0
	for _, t := range ordered {
		if ledger.openOn(t.Ticker, day) >= maxOpenPerTicker {
			continue
		}
		ledger.deploy(t, allocation, cfg.Fee)
		deployed++
		if deployed == n {
			break
		}
	}
}
