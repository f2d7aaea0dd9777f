package model

import (
	"time"

	"gorm.io/datatypes"
)

type RecommendationKind string

const (
	RecommendationEntry RecommendationKind = "entry"
	RecommendationExit  RecommendationKind = "exit"
)

type TradeRecommendation struct {
	ID                  uint               `gorm:"primaryKey"`
	Strategy            string             `gorm:"type:varchar(50);not null;uniqueIndex:idx_trade_recommendations_key"`
	Ticker              string             `gorm:"type:varchar(20);not null;uniqueIndex:idx_trade_recommendations_key"`
	SignalDate          time.Time          `gorm:"type:date;not null;uniqueIndex:idx_trade_recommendations_key"`
	Kind                RecommendationKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_trade_recommendations_key"`
	Close               float64            `gorm:"not null"`
	EntryDate           *time.Time         `gorm:"type:date"`
	ExitPrice           *float64
	ExitReason          string `gorm:"type:varchar(20)"`
	WinPercent          *float64
	WeekPreviousEntries int    `gorm:"not null;default:0"`
	CompanyName         string `gorm:"type:varchar(255)"`
	LastSurprisePercent *float64
	Hints               datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
}

func (TradeRecommendation) TableName() string {
	return "trade_recommendations"
}

type GetRecommendationsParam struct {
	Strategy string
	Kind     RecommendationKind
	From     time.Time
	To       time.Time
	Limit    int
}
