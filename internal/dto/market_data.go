package dto

// UpdateReport summarizes a market data refresh. Failed maps ticker to the
// error message.
type UpdateReport struct {
	Requested int               `json:"requested"`
	Updated   int               `json:"updated"`
	Rows      int               `json:"rows"`
	Failed    map[string]string `json:"failed,omitempty"`
}

type UpdateDataRequest struct {
	UniverseRequest
	Earnings bool `json:"earnings"`
}

// IntegrityIssue is one failed history check.
type IntegrityIssue struct {
	Ticker   string `json:"ticker"`
	Check    string `json:"check"`
	Observed string `json:"observed"`
	Expected string `json:"expected"`
}

type IntegrityReport struct {
	Tickers int              `json:"tickers"`
	MinDate string           `json:"min_date"`
	MaxDate string           `json:"max_date"`
	Issues  []IntegrityIssue `json:"issues,omitempty"`
}

// UniverseRow is one line of a ticker list import.
type UniverseRow struct {
	Ticker      string `validate:"required"`
	CompanyName string
	Exchange    string
	MarketCap   int64 `validate:"gte=0"`
}
