package dto

// YahooChartResponse is the v8 chart payload. Quote values are null on
// days without trading.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				GmtOffset          int64   `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooError `json:"error"`
	} `json:"chart"`
}

type YahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooRawValue is the {"raw": 1.2, "fmt": "1.20"} wrapper of quoteSummary.
type YahooRawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// YahooQuoteSummaryResponse holds the price, earningsHistory and
// calendarEvents modules.
type YahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				ShortName string        `json:"shortName"`
				LongName  string        `json:"longName"`
				Exchange  string        `json:"exchangeName"`
				MarketCap YahooRawValue `json:"marketCap"`
			} `json:"price"`
			EarningsHistory struct {
				History []struct {
					Quarter         YahooRawValue `json:"quarter"`
					EpsActual       YahooRawValue `json:"epsActual"`
					EpsEstimate     YahooRawValue `json:"epsEstimate"`
					SurprisePercent YahooRawValue `json:"surprisePercent"`
				} `json:"history"`
			} `json:"earningsHistory"`
			CalendarEvents struct {
				Earnings struct {
					EarningsDate    []YahooRawValue `json:"earningsDate"`
					EarningsAverage YahooRawValue   `json:"earningsAverage"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
		Error *YahooError `json:"error"`
	} `json:"quoteSummary"`
}

// CompanyProfile is the subset of the price module stored with a ticker.
type CompanyProfile struct {
	Ticker      string
	CompanyName string
	Exchange    string
	MarketCap   int64
}
