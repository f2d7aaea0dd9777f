package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("tickers", []string{"AAA", "BBB"}, 0)

	got, ok := GetFromCache[[]string](c, "tickers")
	assert.True(t, ok)
	assert.Equal(t, []string{"AAA", "BBB"}, got)

	_, ok = GetFromCache[int](c, "tickers")
	assert.False(t, ok)

	c.Delete("tickers")
	_, ok = GetFromCache[[]string](c, "tickers")
	assert.False(t, ok)
}

func TestNewCache_Independent(t *testing.T) {
	a := NewCache(time.Minute, time.Minute)
	b := NewCache(time.Minute, time.Minute)
	a.Set("k", 1, 0)
	_, ok := b.Get("k")
	assert.False(t, ok)
}

func TestRemember(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := Remember(c, "answer", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Remember(c, "answer", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, err = Remember(c, "broken", time.Minute, func() (int, error) { return 0, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, found := c.Get("broken")
	assert.False(t, found, "errors are not cached")

	_, err = Remember[string](c, "answer", time.Minute, func() (string, error) { return "", nil })
	assert.Error(t, err)
}

func TestRemember_SingleLoadForConcurrentCallers(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Remember(c, "slow", time.Minute, func() (string, error) {
				calls.Add(1)
				<-release
				return "done", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "done", v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
