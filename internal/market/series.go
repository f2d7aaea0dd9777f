package market

import (
	"fmt"
	"sort"
	"time"
)

// Series is the date ordered bar history of one ticker.
type Series struct {
	Ticker string
	Bars   []Bar
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Closes returns the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Validate checks that every bar belongs to the ticker and that dates are
// strictly increasing.
func (s Series) Validate() error {
	for i, b := range s.Bars {
		if b.Ticker != "" && b.Ticker != s.Ticker {
			return &DataIntegrityError{
				Ticker:   s.Ticker,
				Check:    "ticker",
				Observed: fmt.Sprintf("bar %d belongs to %s", i, b.Ticker),
				Expected: s.Ticker,
			}
		}
		if i == 0 {
			continue
		}
		prev := s.Bars[i-1].Date
		switch {
		case b.Date.Equal(prev):
			return &DataIntegrityError{
				Ticker:   s.Ticker,
				Check:    "duplicate date",
				Observed: fmt.Sprintf("%s at index %d and %d", b.Date.Format(DateLayout), i-1, i),
				Expected: "unique dates",
			}
		case b.Date.Before(prev):
			return &DataIntegrityError{
				Ticker:   s.Ticker,
				Check:    "chronological order",
				Observed: fmt.Sprintf("%s after %s at index %d", b.Date.Format(DateLayout), prev.Format(DateLayout), i),
				Expected: "strictly increasing dates",
			}
		}
	}
	return nil
}

// Tail returns the bars dated on or after from.
func (s Series) Tail(from time.Time) Series {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(from)
	})
	return Series{Ticker: s.Ticker, Bars: s.Bars[idx:]}
}

// NewSeries sorts bars by date and returns a series. Duplicates are kept so
// that Validate can report them.
func NewSeries(ticker string, bars []Bar) Series {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return Series{Ticker: ticker, Bars: sorted}
}

// Dataset maps ticker to series. It is shared read-only between concurrent
// evaluations.
type Dataset map[string]Series

// Tickers returns the dataset tickers in sorted order.
func (d Dataset) Tickers() []string {
	tickers := make([]string, 0, len(d))
	for t := range d {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Subset returns a dataset restricted to the given tickers. Unknown tickers
// are ignored.
func (d Dataset) Subset(tickers []string) Dataset {
	out := make(Dataset, len(tickers))
	for _, t := range tickers {
		if s, ok := d[t]; ok {
			out[t] = s
		}
	}
	return out
}

// LastDate returns the most recent bar date across the dataset.
func (d Dataset) LastDate() time.Time {
	var last time.Time
	for _, s := range d {
		if n := len(s.Bars); n > 0 && s.Bars[n-1].Date.After(last) {
			last = s.Bars[n-1].Date
		}
	}
	return last
}
