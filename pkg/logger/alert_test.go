package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	messages chan string
}

func (f *fakeSender) SendAlert(_ context.Context, message string) error {
	f.messages <- message
	return nil
}

func TestAlertCore_ForwardsTaggedEntries(t *testing.T) {
	observed, logs := observer.New(zapcore.InfoLevel)
	sender := &fakeSender{messages: make(chan string, 4)}
	log := (&Logger{zap.New(observed)}).WithAlert(sender, zapcore.ErrorLevel)

	log.ErrorContext(context.Background(), "plain error")
	log.ErrorContextWithAlert(context.Background(), "refresh failed", StringField("ticker", "ACME"))

	select {
	case msg := <-sender.messages:
		assert.Contains(t, msg, "refresh failed")
		assert.Contains(t, msg, "ticker: ACME")
		assert.NotContains(t, msg, "send_alert")
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not sent")
	}

	select {
	case msg := <-sender.messages:
		t.Fatalf("unexpected alert %q", msg)
	case <-time.After(50 * time.Millisecond):
	}

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "plain error", logs.All()[0].Message)
}

func TestAlertCore_BelowMinLevelIsNotSent(t *testing.T) {
	sender := &fakeSender{messages: make(chan string, 1)}
	core := NewAlertCore(zapcore.NewNopCore(), sender, zapcore.ErrorLevel)
	err := core.Write(zapcore.Entry{Level: zapcore.WarnLevel, Message: "warn"}, []zapcore.Field{zap.Bool("send_alert", true)})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sender.messages)
}

func TestAlertCore_IncludesBoundFields(t *testing.T) {
	sender := &fakeSender{messages: make(chan string, 1)}
	observed, _ := observer.New(zapcore.InfoLevel)
	log := (&Logger{zap.New(observed)}).WithAlert(sender, zapcore.ErrorLevel).With(StringField("job_name", "daily-macd"))

	log.ErrorContextWithAlert(context.Background(), "job failed", IntField("entries", 0))

	select {
	case msg := <-sender.messages:
		assert.Contains(t, msg, "job_name: daily-macd")
		assert.Contains(t, msg, "entries: 0")
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not sent")
	}
}
