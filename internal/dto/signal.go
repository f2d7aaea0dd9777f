package dto

import "golang-backtest/internal/market"

type SignalRequest struct {
	UniverseRequest
	Strategy   string `json:"strategy" query:"strategy" validate:"required,oneof=macd recovery record reverse earnings"`
	Parameters []int  `json:"parameters" query:"parameters" validate:"omitempty,dive,gt=0"`
	AsOf       string `json:"as_of" query:"as_of" validate:"omitempty,datetime=2006-01-02"`

	// Entries are kept when more than DaysToNextResult days remain before
	// the next earnings and more than DaysSinceLastResult days passed since
	// the last one. Unknown distances pass.
	DaysToNextResult       int `json:"days_to_next_result" query:"days_to_next_result" validate:"gte=0"`
	DaysSinceLastResult    int `json:"days_since_last_result" query:"days_since_last_result" validate:"gte=0"`
	MinWeekPreviousEntries int `json:"min_week_previous_entries" query:"min_week_previous_entries" validate:"gte=0,lte=4"`
}

type SignalEntry struct {
	Ticker              string              `json:"ticker"`
	CompanyName         string              `json:"company_name"`
	Date                string              `json:"date"`
	Close               float64             `json:"close"`
	Volume              int64               `json:"volume"`
	WeekPreviousEntries int                 `json:"week_previous_entries"`
	LastSurprisePercent *float64            `json:"last_surprise_percent"`
	DaysToNextResult    *int                `json:"days_to_next_result"`
	DaysSinceLastResult *int                `json:"days_since_last_result"`
	Hints               map[string]*float64 `json:"hints,omitempty"`
}

type SignalExit struct {
	Ticker      string   `json:"ticker"`
	CompanyName string   `json:"company_name"`
	EntryDate   string   `json:"entry_date"`
	ExitDate    string   `json:"exit_date"`
	EntryPrice  float64  `json:"entry_price"`
	ExitPrice   float64  `json:"exit_price"`
	ExitReason  string   `json:"exit_reason"`
	WinPercent  *float64 `json:"win_percent"`
}

type SignalResult struct {
	Strategy   string            `json:"strategy"`
	Parameters map[string]int    `json:"parameters"`
	AsOf       string            `json:"as_of"`
	Entries    []SignalEntry     `json:"entries"`
	Exits      []SignalExit      `json:"exits"`
	Failures   map[string]string `json:"failures,omitempty"`

	// Raw values for persistence.
	RawExits []market.Trade `json:"-"`
}
