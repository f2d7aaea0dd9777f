package market

import "time"

// ExitReason is the condition that closed a position.
type ExitReason string

const (
	ExitMaxWin   ExitReason = "max win"
	ExitMaxLose  ExitReason = "max lose"
	ExitGoOnLost ExitReason = "go-on lost"
	ExitEndDays  ExitReason = "end days"
)

// Trade is a resolved entry signal.
type Trade struct {
	Ticker              string             `json:"ticker"`
	Entry               bool               `json:"entry"`
	EntryDate           time.Time          `json:"entry_date"`
	EntryPrice          float64            `json:"entry_price"`
	Volume              int64              `json:"volume"`
	ExitDate            time.Time          `json:"exit_date"`
	ExitDayOffset       int                `json:"exit_day_offset"`
	ExitPrice           float64            `json:"exit_price"`
	ExitReason          ExitReason         `json:"exit_reason"`
	WinPercent          float64            `json:"win_percent"`
	WeekPreviousEntries int                `json:"week_previous_entries"`
	Hints               map[string]float64 `json:"hints,omitempty"`
}

// WinPercent returns the percentage return from entry to exit.
func WinPercent(entry, exit float64) float64 {
	return 100 * (exit - entry) / entry
}
