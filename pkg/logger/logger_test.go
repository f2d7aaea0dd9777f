package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLoggerCarriesFields(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	base := &Logger{zap.New(observed)}

	ctx := NewContext(context.Background(), base.With(StringField("job_name", "daily-macd")))
	base.InfoContext(ctx, "Running job")
	base.InfoContext(context.Background(), "No job")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "daily-macd", entries[0].ContextMap()["job_name"])
	assert.NotContains(t, entries[1].ContextMap(), "job_name")
}

func TestNew(t *testing.T) {
	log, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New("warn", "json")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}
