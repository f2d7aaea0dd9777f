package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiterStore_OneLimiterPerKey(t *testing.T) {
	store := NewLimiterStore(rate.Every(time.Hour), 1)
	ctx := context.Background()

	throttled, err := store.Wait(ctx, "chart")
	require.NoError(t, err)
	assert.False(t, throttled)

	throttled, err = store.Wait(ctx, "quote_summary")
	require.NoError(t, err)
	assert.False(t, throttled, "keys do not share tokens")

	assert.Same(t, store.get("chart"), store.get("chart"))
}

func TestLimiterStore_WaitHonoursContext(t *testing.T) {
	store := NewLimiterStore(rate.Every(time.Hour), 1)
	_, err := store.Wait(context.Background(), "chart")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	throttled, err := store.Wait(ctx, "chart")
	assert.True(t, throttled)
	assert.Error(t, err)
}
