package export

import (
	"fmt"
	"math"

	"golang-backtest/internal/market"

	"github.com/parquet-go/parquet-go"
)

// TradeRow is the flat parquet layout of a trade. Dates are YYYY-MM-DD.
type TradeRow struct {
	Ticker              string   `parquet:"ticker"`
	EntryDate           string   `parquet:"entry_date"`
	EntryPrice          float64  `parquet:"entry_price"`
	Volume              int64    `parquet:"volume"`
	ExitDate            string   `parquet:"exit_date"`
	ExitDayOffset       int32    `parquet:"exit_day_offset"`
	ExitPrice           float64  `parquet:"exit_price"`
	ExitReason          string   `parquet:"exit_reason"`
	WinPercent          *float64 `parquet:"win_percent,optional"`
	WeekPreviousEntries int32    `parquet:"week_previous_entries"`
}

func NewTradeRows(trades []market.Trade) []TradeRow {
	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		row := TradeRow{
			Ticker:              t.Ticker,
			EntryDate:           t.EntryDate.Format(market.DateLayout),
			EntryPrice:          t.EntryPrice,
			Volume:              t.Volume,
			ExitDate:            t.ExitDate.Format(market.DateLayout),
			ExitDayOffset:       int32(t.ExitDayOffset),
			ExitPrice:           t.ExitPrice,
			ExitReason:          string(t.ExitReason),
			WeekPreviousEntries: int32(t.WeekPreviousEntries),
		}
		if !math.IsNaN(t.WinPercent) && !math.IsInf(t.WinPercent, 0) {
			win := t.WinPercent
			row.WinPercent = &win
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteTrades writes trades to a parquet file at path.
func WriteTrades(path string, trades []market.Trade) error {
	if err := parquet.WriteFile(path, NewTradeRows(trades)); err != nil {
		return fmt.Errorf("failed to write parquet %s: %w", path, err)
	}
	return nil
}
