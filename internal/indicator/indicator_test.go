package indicator

import (
	"math"
	"testing"
	"time"

	"golang-backtest/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(values ...float64) Column {
	return NewColumn("close", values)
}

func makeSeries(closes ...float64) market.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Ticker: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return market.Series{Ticker: "TEST", Bars: bars}
}

func TestSMA(t *testing.T) {
	sma := SMA(col(1, 2, 3, 4, 5), 3)

	assert.Equal(t, "close_sma_3", sma.Name)
	assert.False(t, sma.Defined(0))
	assert.False(t, sma.Defined(1))
	assert.InDelta(t, 2.0, sma.Values[2], 1e-12)
	assert.InDelta(t, 3.0, sma.Values[3], 1e-12)
	assert.InDelta(t, 4.0, sma.Values[4], 1e-12)
}

func TestSMA_NaNInWindowIsUndefined(t *testing.T) {
	sma := SMA(col(math.NaN(), 2, 3, 4), 2)
	assert.False(t, sma.Defined(1))
	assert.InDelta(t, 2.5, sma.Values[2], 1e-12)
}

func TestEMA_ConstantSeriesConverges(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 42
	}
	ema := EMA(col(values...), 12)
	for i := range values {
		assert.InDelta(t, 42.0, ema.Values[i], 1e-9)
	}
}

func TestEMA_AdjustedWeights(t *testing.T) {
	// span 3 -> alpha 0.5; adjusted mean of [1, 2] = (2 + 0.5*1) / 1.5
	ema := EMA(col(1, 2, 3), 3)
	assert.InDelta(t, 1.0, ema.Values[0], 1e-12)
	assert.InDelta(t, 2.5/1.5, ema.Values[1], 1e-12)
	assert.InDelta(t, (3+1+0.25)/1.75, ema.Values[2], 1e-12)
}

func TestEMA_LeadingNaN(t *testing.T) {
	ema := EMA(col(math.NaN(), math.NaN(), 5, 5), 4)
	assert.False(t, ema.Defined(0))
	assert.False(t, ema.Defined(1))
	assert.InDelta(t, 5.0, ema.Values[2], 1e-12)
	assert.InDelta(t, 5.0, ema.Values[3], 1e-12)
}

func TestRollingMaxMin(t *testing.T) {
	c := col(3, 1, 4, 1, 5, 9, 2)
	mx := RollingMax(c, 3)
	mn := RollingMin(c, 3)

	assert.Equal(t, "close_max_3", mx.Name)
	assert.False(t, mx.Defined(1))
	assert.Equal(t, []float64{4, 4, 5, 9, 9}, mx.Values[2:])
	assert.Equal(t, []float64{1, 1, 1, 1, 2}, mn.Values[2:])
}

func TestDiffAndShift(t *testing.T) {
	c := col(1, 4, 9)
	d := Diff(c, 1)
	assert.False(t, d.Defined(0))
	assert.Equal(t, []float64{3, 5}, d.Values[1:])

	s := Shift(c, 2)
	assert.False(t, s.Defined(1))
	assert.Equal(t, 1.0, s.Values[2])
}

func TestTrueRangeAndATR(t *testing.T) {
	s := makeSeries(10, 14, 12)
	tr := TrueRange(s)
	// day 0: high-low; day 1: high 15 vs prev close 10; day 2: low 11 vs prev close 14
	assert.Equal(t, []float64{2, 5, 3}, tr.Values)

	atr := ATR(s, 2)
	assert.Equal(t, "atr_2", atr.Name)
	assert.False(t, atr.Defined(0))
	assert.InDelta(t, 3.5, atr.Values[1], 1e-12)
	assert.InDelta(t, 4.0, atr.Values[2], 1e-12)
}

func TestMACD_ConstantIsZero(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 10
	}
	macd := MACD(col(values...), 12, 26, 9)
	for _, v := range macd.Values {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
	assert.Equal(t, "close_macd_12_26_9", macd.Name)
}

func TestRSI_Bounds(t *testing.T) {
	rising := makeSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
	rsi := RSI(rising, 14, 0)
	assert.False(t, rsi.Defined(0))
	assert.Greater(t, rsi.Values[15], 99.0)

	falling := makeSeries(16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	rsi = RSI(falling, 14, 3)
	assert.Equal(t, "rsi_14_sma_3", rsi.Name)
	assert.Less(t, rsi.Values[15], 1.0)
}

func TestBollinger(t *testing.T) {
	s := makeSeries(10, 10, 10, 10, 10, 10)
	bands := Bollinger(s, 3)

	require.Equal(t, s.Len(), bands.Center.Len())
	assert.False(t, bands.Center.Defined(1))
	// center is defined from index 2; the std needs 3 centers, so from index 4
	assert.False(t, bands.Low.Defined(3))
	assert.InDelta(t, 10.0, bands.Center.Values[4], 1e-12)
	assert.InDelta(t, 10.0, bands.Low.Values[5], 1e-12)
	assert.InDelta(t, 10.0, bands.High.Values[5], 1e-12)
}

func TestBollinger_WidthFromCenterValues(t *testing.T) {
	s := makeSeries(1, 2, 3, 4)
	bands := Bollinger(s, 2)
	// typical == close here, centers: NaN, 1.5, 2.5, 3.5 -> std of (2.5, 3.5) = 0.5
	assert.InDelta(t, 3.5-1, bands.Low.Values[3], 1e-12)
	assert.InDelta(t, 3.5+1, bands.High.Values[3], 1e-12)
}

func TestIndicators_Deterministic(t *testing.T) {
	s := makeSeries(5, 7, 6, 8, 9, 7, 6, 10, 12, 11, 13, 12, 14, 15, 13, 16)
	first := RSI(s, 5, 3)
	second := RSI(s, 5, 3)
	assert.Equal(t, len(first.Values), len(second.Values))
	for i := range first.Values {
		if math.IsNaN(first.Values[i]) {
			assert.True(t, math.IsNaN(second.Values[i]))
			continue
		}
		assert.Equal(t, first.Values[i], second.Values[i])
	}
}
