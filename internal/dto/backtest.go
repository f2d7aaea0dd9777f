package dto

import (
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/market"
	"golang-backtest/internal/simulator"
	"golang-backtest/pkg/utils"

	"github.com/shopspring/decimal"
)

// UniverseRequest selects tickers explicitly or by market cap rank.
type UniverseRequest struct {
	Tickers   []string `json:"tickers" query:"tickers"`
	RankStart int      `json:"rank_start" query:"rank_start" validate:"gte=0"`
	RankEnd   int      `json:"rank_end" query:"rank_end" validate:"gtefield=RankStart"`
}

type BacktestRequest struct {
	UniverseRequest
	Strategy      string `json:"strategy" validate:"required,oneof=macd recovery record reverse earnings"`
	Parameters    []int  `json:"parameters" validate:"omitempty,dive,gt=0"`
	From          string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	Simulate      bool   `json:"simulate"`
	Worst         int    `json:"worst" validate:"gte=0,lte=1000"`
	IncludeTrades bool   `json:"include_trades"`
}

type TradeResponse struct {
	Ticker              string              `json:"ticker"`
	EntryDate           string              `json:"entry_date"`
	EntryPrice          float64             `json:"entry_price"`
	Volume              int64               `json:"volume"`
	ExitDate            string              `json:"exit_date"`
	ExitDayOffset       int                 `json:"exit_day_offset"`
	ExitPrice           float64             `json:"exit_price"`
	ExitReason          string              `json:"exit_reason"`
	WinPercent          *float64            `json:"win_percent"`
	WeekPreviousEntries int                 `json:"week_previous_entries"`
	Hints               map[string]*float64 `json:"hints,omitempty"`
}

func NewTradeResponse(t market.Trade) TradeResponse {
	return TradeResponse{
		Ticker:              t.Ticker,
		EntryDate:           t.EntryDate.Format(market.DateLayout),
		EntryPrice:          t.EntryPrice,
		Volume:              t.Volume,
		ExitDate:            t.ExitDate.Format(market.DateLayout),
		ExitDayOffset:       t.ExitDayOffset,
		ExitPrice:           t.ExitPrice,
		ExitReason:          string(t.ExitReason),
		WinPercent:          utils.FiniteOrNil(t.WinPercent),
		WeekPreviousEntries: t.WeekPreviousEntries,
		Hints:               NewHints(t.Hints),
	}
}

func NewTradeResponses(trades []market.Trade) []TradeResponse {
	out := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, NewTradeResponse(t))
	}
	return out
}

// NewHints drops NaN values, encoding/json cannot marshal them.
func NewHints(hints map[string]float64) map[string]*float64 {
	if len(hints) == 0 {
		return nil
	}
	out := make(map[string]*float64, len(hints))
	for k, v := range hints {
		out[k] = utils.FiniteOrNil(v)
	}
	return out
}

type MetricsResponse struct {
	TotalTrades        int            `json:"total_trades"`
	WinningTrades      int            `json:"winning_trades"`
	LosingTrades       int            `json:"losing_trades"`
	WinRate            *float64       `json:"win_rate"`
	MeanWinPercent     *float64       `json:"mean_win_percent"`
	TotalProfitPercent float64        `json:"total_profit_percent"`
	TotalLossPercent   float64        `json:"total_loss_percent"`
	ProfitFactor       *float64       `json:"profit_factor"`
	MaxDrawdownPercent float64        `json:"max_drawdown_percent"`
	AvgHoldingDays     *float64       `json:"avg_holding_days"`
	ExitReasons        map[string]int `json:"exit_reasons"`
}

func NewMetricsResponse(m backtest.Metrics) MetricsResponse {
	reasons := make(map[string]int, len(m.ExitReasons))
	for k, v := range m.ExitReasons {
		reasons[string(k)] = v
	}
	return MetricsResponse{
		TotalTrades:        m.TotalTrades,
		WinningTrades:      m.WinningTrades,
		LosingTrades:       m.LosingTrades,
		WinRate:            utils.FiniteOrNil(m.WinRate),
		MeanWinPercent:     utils.FiniteOrNil(m.MeanWinPercent),
		TotalProfitPercent: m.TotalProfitPercent,
		TotalLossPercent:   m.TotalLossPercent,
		ProfitFactor:       utils.FiniteOrNil(m.ProfitFactor),
		MaxDrawdownPercent: m.MaxDrawdownPercent,
		AvgHoldingDays:     utils.FiniteOrNil(m.AvgHoldingDays),
		ExitReasons:        reasons,
	}
}

type SimulationResponse struct {
	Wealth  decimal.Decimal `json:"wealth"`
	Cash    decimal.Decimal `json:"cash"`
	Pending decimal.Decimal `json:"pending"`
	Fees    decimal.Decimal `json:"fees"`
	Returns decimal.Decimal `json:"returns"`
	Trades  int             `json:"trades"`
}

func NewSimulationResponse(r *simulator.Result) *SimulationResponse {
	if r == nil {
		return nil
	}
	return &SimulationResponse{
		Wealth:  r.Wealth,
		Cash:    r.Cash,
		Pending: r.Pending,
		Fees:    r.Fees,
		Returns: r.Returns,
		Trades:  len(r.Trades),
	}
}

type BacktestResult struct {
	Strategy    string              `json:"strategy"`
	Parameters  map[string]int      `json:"parameters"`
	Instruments int                 `json:"instruments"`
	Unresolved  int                 `json:"unresolved"`
	Failures    map[string]string   `json:"failures,omitempty"`
	Metrics     MetricsResponse     `json:"metrics"`
	Simulation  *SimulationResponse `json:"simulation,omitempty"`
	Worst       []TradeResponse     `json:"worst,omitempty"`
	Trades      []TradeResponse     `json:"trades,omitempty"`

	// RawTrades keeps the full table for exports.
	RawTrades []market.Trade `json:"-"`
}

// ErrorStrings flattens per ticker errors for responses.
func ErrorStrings(errs map[string]error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for k, err := range errs {
		out[k] = err.Error()
	}
	return out
}
