package market

import (
	"sort"
	"time"
)

// EarningsEvent is one quarterly earnings publication. Estimate, Actual and
// SurprisePct are nil for announced events that have not been reported yet.
type EarningsEvent struct {
	Ticker      string    `json:"ticker"`
	CompanyName string    `json:"company_name"`
	EventDate   time.Time `json:"event_date"`
	Estimate    *float64  `json:"estimate"`
	Actual      *float64  `json:"actual"`
	SurprisePct *float64  `json:"surprise_pct"`
}

// Reported returns true once the actual figures are known.
func (e EarningsEvent) Reported() bool {
	return e.SurprisePct != nil
}

// EarningsCalendar indexes earnings events by ticker in date order.
type EarningsCalendar map[string][]EarningsEvent

// NewEarningsCalendar groups and sorts events.
func NewEarningsCalendar(events []EarningsEvent) EarningsCalendar {
	cal := make(EarningsCalendar)
	for _, e := range events {
		e.EventDate = Day(e.EventDate)
		cal[e.Ticker] = append(cal[e.Ticker], e)
	}
	for t := range cal {
		evs := cal[t]
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].EventDate.Before(evs[j].EventDate)
		})
	}
	return cal
}

// On returns the event published on date for ticker.
func (c EarningsCalendar) On(ticker string, date time.Time) (EarningsEvent, bool) {
	date = Day(date)
	for _, e := range c[ticker] {
		if e.EventDate.Equal(date) {
			return e, true
		}
	}
	return EarningsEvent{}, false
}

// Last returns the latest event dated on or before date.
func (c EarningsCalendar) Last(ticker string, date time.Time) (EarningsEvent, bool) {
	date = Day(date)
	evs := c[ticker]
	idx := sort.Search(len(evs), func(i int) bool {
		return evs[i].EventDate.After(date)
	})
	if idx == 0 {
		return EarningsEvent{}, false
	}
	return evs[idx-1], true
}

// Next returns the first event strictly after date.
func (c EarningsCalendar) Next(ticker string, date time.Time) (EarningsEvent, bool) {
	date = Day(date)
	evs := c[ticker]
	idx := sort.Search(len(evs), func(i int) bool {
		return evs[i].EventDate.After(date)
	})
	if idx == len(evs) {
		return EarningsEvent{}, false
	}
	return evs[idx], true
}
