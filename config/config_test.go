package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
logger:
  level: debug
  encoding: console
database:
  host: db
  name: signals
backtest:
  workers: 3
  min_week_previous_entries: 2
scheduler:
  time_zone: UTC
  jobs:
    - name: macd-daily
      strategy: macd
      cron: "30 17 * * 1-5"
      rank_end: 300
      days_to_next_result: 5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 3, cfg.Backtest.Workers)
	assert.Equal(t, 2, cfg.Backtest.MinWeekPreviousEntries)
	assert.Equal(t, int64(100000), cfg.Backtest.VolumeFloor)
	assert.Equal(t, 2500.0, cfg.Simulation.TransactionMax)
	assert.Equal(t, 30*time.Second, cfg.YahooFinance.Timeout)

	require.Len(t, cfg.Scheduler.Jobs, 1)
	job := cfg.Scheduler.Jobs[0]
	assert.Equal(t, "macd", job.Strategy)
	assert.Equal(t, 300, job.RankEnd)
	assert.Equal(t, 5, job.DaysToNextResult)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_HOST", "from-env")
	t.Setenv("API_PORT", "9090")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DB.Host)
	assert.Equal(t, 9090, cfg.API.Port)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "optimizer:\n  objective: sharpe\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "scheduler:\n  jobs:\n    - name: x\n      strategy: unknown\n      cron: \"* * * * *\"\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTelegramEnabled(t *testing.T) {
	assert.False(t, TelegramConfig{}.Enabled())
	assert.True(t, TelegramConfig{BotToken: "t", ChatID: 42}.Enabled())
}
