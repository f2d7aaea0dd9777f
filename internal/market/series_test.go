package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSeries_Validate(t *testing.T) {
	tests := []struct {
		name      string
		bars      []Bar
		wantCheck string
	}{
		{
			name: "ordered",
			bars: []Bar{{Date: day("2024-01-02")}, {Date: day("2024-01-03")}, {Date: day("2024-01-05")}},
		},
		{
			name:      "duplicate date",
			bars:      []Bar{{Date: day("2024-01-02")}, {Date: day("2024-01-02")}},
			wantCheck: "duplicate date",
		},
		{
			name:      "out of order",
			bars:      []Bar{{Date: day("2024-01-03")}, {Date: day("2024-01-02")}},
			wantCheck: "chronological order",
		},
		{
			name:      "foreign ticker",
			bars:      []Bar{{Ticker: "MSFT", Date: day("2024-01-02")}},
			wantCheck: "ticker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Series{Ticker: "AAPL", Bars: tt.bars}.Validate()
			if tt.wantCheck == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataIntegrity))

			var dataErr *DataIntegrityError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, "AAPL", dataErr.Ticker)
			assert.Equal(t, tt.wantCheck, dataErr.Check)
		})
	}
}

func TestNewSeries_SortsByDate(t *testing.T) {
	s := NewSeries("AAPL", []Bar{
		{Date: day("2024-01-04"), Close: 3},
		{Date: day("2024-01-02"), Close: 1},
		{Date: day("2024-01-03"), Close: 2},
	})
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.NoError(t, s.Validate())
}

func TestSeries_Tail(t *testing.T) {
	s := NewSeries("AAPL", []Bar{
		{Date: day("2024-01-02")},
		{Date: day("2024-01-03")},
		{Date: day("2024-01-04")},
	})
	assert.Equal(t, 2, s.Tail(day("2024-01-03")).Len())
	assert.Equal(t, 0, s.Tail(day("2024-02-01")).Len())
}

func TestDataset_TickersAndSubset(t *testing.T) {
	d := Dataset{
		"MSFT": {Ticker: "MSFT", Bars: []Bar{{Date: day("2024-01-05")}}},
		"AAPL": {Ticker: "AAPL", Bars: []Bar{{Date: day("2024-01-03")}}},
	}
	assert.Equal(t, []string{"AAPL", "MSFT"}, d.Tickers())
	assert.Equal(t, []string{"AAPL"}, d.Subset([]string{"AAPL", "TSLA"}).Tickers())
	assert.Equal(t, day("2024-01-05"), d.LastDate())
}

func TestEarningsCalendar_Lookups(t *testing.T) {
	surprise := 4.2
	cal := NewEarningsCalendar([]EarningsEvent{
		{Ticker: "AAPL", EventDate: day("2024-04-30")},
		{Ticker: "AAPL", EventDate: day("2024-01-30"), SurprisePct: &surprise},
	})

	last, ok := cal.Last("AAPL", day("2024-02-15"))
	require.True(t, ok)
	assert.Equal(t, day("2024-01-30"), last.EventDate)
	assert.True(t, last.Reported())

	next, ok := cal.Next("AAPL", day("2024-02-15"))
	require.True(t, ok)
	assert.Equal(t, day("2024-04-30"), next.EventDate)
	assert.False(t, next.Reported())

	_, ok = cal.Last("AAPL", day("2023-12-01"))
	assert.False(t, ok)

	_, ok = cal.On("AAPL", day("2024-01-30"))
	assert.True(t, ok)
}
