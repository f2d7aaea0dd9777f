package model

import (
	"time"

	"golang-backtest/internal/market"
)

type Bar struct {
	ID        uint      `gorm:"primaryKey"`
	Ticker    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_daily_bars_ticker_date"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_bars_ticker_date"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
	Volume    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Bar) TableName() string {
	return "daily_bars"
}

func (b Bar) ToMarket() market.Bar {
	return market.Bar{
		Ticker: b.Ticker,
		Date:   market.Day(b.Date),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

func NewBar(b market.Bar) Bar {
	return Bar{
		Ticker: b.Ticker,
		Date:   market.Day(b.Date),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

type GetBarsParam struct {
	Tickers []string
	From    time.Time
	To      time.Time
}

// LastBarDate is the most recent stored date of a ticker.
type LastBarDate struct {
	Ticker string
	Date   time.Time
}
