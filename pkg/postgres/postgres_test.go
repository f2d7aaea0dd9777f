package postgres

import (
	"testing"

	"golang-backtest/config"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cfg := config.Database{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "backtest", SSLMode: "disable"}

	assert.Equal(t, "host=db user=app password=p@ss dbname=backtest port=5432 sslmode=disable", DSN(cfg))
	assert.Equal(t, "postgres://app:p%40ss@db:5432/backtest?sslmode=disable", URL(cfg))

	cfg.TimeZone = "UTC"
	assert.Contains(t, DSN(cfg), "TimeZone=UTC")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, logLevel("Silent"))
	assert.Equal(t, gormlogger.Info, logLevel("info"))
	assert.Equal(t, gormlogger.Warn, logLevel(""))
}
