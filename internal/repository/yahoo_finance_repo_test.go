package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-backtest/config"
	"golang-backtest/pkg/httpclient"
	"golang-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAA","gmtoffset":-18000},
"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"open":[10,11,null],"high":[12,12,null],"low":[9,10,null],"close":[11,11.5,null],"volume":[1000,2000,null]}]}}],"error":null}}`

const summaryBody = `{"quoteSummary":{"result":[{
"price":{"shortName":"Alpha Inc","exchangeName":"NasdaqGS","marketCap":{"raw":123456789}},
"earningsHistory":{"history":[
 {"quarter":{"raw":1696032000},"epsActual":{"raw":1.1},"epsEstimate":{"raw":1.0},"surprisePercent":{"raw":0.1}},
 {"quarter":{"raw":1703980800},"epsActual":{"raw":0.9},"epsEstimate":{"raw":1.0},"surprisePercent":{"raw":-0.1}}]},
"calendarEvents":{"earnings":{"earningsDate":[{"raw":1714521600},{"raw":1714953600}],"earningsAverage":{"raw":1.05}}}
}],"error":null}}`

func newYahooTestRepo(t *testing.T, handler http.HandlerFunc) YahooFinanceRepository {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{YahooFinance: config.YahooFinance{
		BaseURL:             srv.URL + "/chart",
		QuoteSummaryURL:     srv.URL + "/summary",
		Timeout:             5 * time.Second,
		MaxRequestPerMinute: 6000,
	}}
	return NewYahooFinanceRepository(cfg, logger.NewNop())
}

func TestYahooFinanceRepository_GetDailyBars(t *testing.T) {
	repo := newYahooTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chart/AAA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	})

	bars, err := repo.GetDailyBars(context.Background(), "AAA", date("2024-01-01"), date("2024-01-10"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, date("2024-01-02").Equal(bars[0].Date))
	assert.True(t, date("2024-01-03").Equal(bars[1].Date))
	assert.Equal(t, int64(2000), bars[1].Volume)
	assert.Equal(t, "AAA", bars[0].Ticker)
}

func TestYahooFinanceRepository_GetDailyBarsError(t *testing.T) {
	repo := newYahooTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})

	_, err := repo.GetDailyBars(context.Background(), "ZZZ", date("2024-01-01"), date("2024-01-10"))
	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestYahooFinanceRepository_GetEarnings(t *testing.T) {
	repo := newYahooTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summary/AAA", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(summaryBody))
	})

	profile, events, err := repo.GetEarnings(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Inc", profile.CompanyName)
	assert.Equal(t, int64(123456789), profile.MarketCap)

	require.Len(t, events, 3)
	require.NotNil(t, events[0].SurprisePct)
	assert.InDelta(t, 10.0, *events[0].SurprisePct, 1e-9)
	assert.InDelta(t, -10.0, *events[1].SurprisePct, 1e-9)
	assert.False(t, events[2].Reported())
	assert.True(t, date("2024-05-01").Equal(events[2].EventDate))
}
