package model

import (
	"time"

	"golang-backtest/internal/market"
)

type EarningsEvent struct {
	ID              uint      `gorm:"primaryKey"`
	Ticker          string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_earnings_events_ticker_date"`
	CompanyName     string    `gorm:"type:varchar(255)"`
	EventDate       time.Time `gorm:"type:date;not null;uniqueIndex:idx_earnings_events_ticker_date"`
	EpsEstimate     *float64
	EpsActual       *float64
	SurprisePercent *float64
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (EarningsEvent) TableName() string {
	return "earnings_events"
}

func (e EarningsEvent) ToMarket() market.EarningsEvent {
	return market.EarningsEvent{
		Ticker:      e.Ticker,
		CompanyName: e.CompanyName,
		EventDate:   market.Day(e.EventDate),
		Estimate:    e.EpsEstimate,
		Actual:      e.EpsActual,
		SurprisePct: e.SurprisePercent,
	}
}

func NewEarningsEvent(e market.EarningsEvent) EarningsEvent {
	return EarningsEvent{
		Ticker:          e.Ticker,
		CompanyName:     e.CompanyName,
		EventDate:       market.Day(e.EventDate),
		EpsEstimate:     e.Estimate,
		EpsActual:       e.Actual,
		SurprisePercent: e.SurprisePct,
	}
}
