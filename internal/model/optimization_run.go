package model

import (
	"database/sql"
	"time"

	"golang-backtest/pkg/common"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RunStatus string

const (
	StatusRunning   RunStatus = common.JOB_STATUS_RUNNING
	StatusCompleted RunStatus = common.JOB_STATUS_COMPLETED
	StatusFailed    RunStatus = common.JOB_STATUS_FAILED
)

type OptimizationRun struct {
	ID             uint           `gorm:"primaryKey"`
	Strategy       string         `gorm:"type:varchar(50);not null;index"`
	Objective      string         `gorm:"type:varchar(20);not null"`
	Status         RunStatus      `gorm:"type:varchar(20);not null"`
	Combinations   int            `gorm:"not null;default:0"`
	Skipped        int            `gorm:"not null;default:0"`
	BestParameters datatypes.JSON `gorm:"type:jsonb"`
	BestValue      *float64
	BestWealth     decimal.NullDecimal `gorm:"type:numeric(20,4)"`
	Outcomes       datatypes.JSON      `gorm:"type:jsonb"`
	StartedAt      time.Time           `gorm:"not null"`
	CompletedAt    sql.NullTime
	ErrorMessage   sql.NullString `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (OptimizationRun) TableName() string {
	return "optimization_runs"
}
