package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_DecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/AAA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price":12.5}`))
	}))
	defer srv.Close()

	client := New(logger.NewNop(), srv.URL, WithTimeout(time.Second), WithHeaders(map[string]string{"User-Agent": "test-agent"}))

	var out struct {
		Price float64 `json:"price"`
	}
	resp, err := client.Get(context.Background(), "/quote/AAA", map[string]string{"interval": "1d"}, &out)
	require.NoError(t, err)
	assert.NoError(t, resp.Err())
	assert.Equal(t, 12.5, out.Price)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := New(logger.NewNop(), srv.URL, WithRetry(2, time.Millisecond, 5*time.Millisecond))
	resp, err := client.Get(context.Background(), "/", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var statusErr *StatusError
	require.True(t, errors.As(resp.Err(), &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}
