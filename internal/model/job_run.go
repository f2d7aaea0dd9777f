package model

import (
	"database/sql"
	"time"
)

type JobRun struct {
	ID           uint      `gorm:"primaryKey"`
	JobName      string    `gorm:"type:varchar(100);not null;index"`
	Strategy     string    `gorm:"type:varchar(50);not null"`
	StartedAt    time.Time `gorm:"not null"`
	CompletedAt  sql.NullTime
	Status       RunStatus      `gorm:"type:varchar(20);not null"`
	Output       sql.NullString `gorm:"type:text"`
	ErrorMessage sql.NullString `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (JobRun) TableName() string {
	return "job_runs"
}
