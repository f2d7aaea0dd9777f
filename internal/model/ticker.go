package model

import "time"

type Ticker struct {
	Ticker      string    `gorm:"primaryKey;type:varchar(20)"`
	CompanyName string    `gorm:"type:varchar(255)"`
	Exchange    string    `gorm:"type:varchar(50)"`
	MarketCap   int64     `gorm:"not null;default:0;index"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Ticker) TableName() string {
	return "tickers"
}
