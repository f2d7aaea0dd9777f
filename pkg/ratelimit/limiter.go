package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// LimiterStore hands out one limiter per key, all sharing the same rate.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLimiterStore(limit rate.Limit, burst int) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    max(burst, 1),
	}
}

func (s *LimiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, ok := s.limiters[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = limiter
	return limiter
}

// Wait blocks until key may issue a request. throttled reports whether the
// caller had to wait.
func (s *LimiterStore) Wait(ctx context.Context, key string) (throttled bool, err error) {
	limiter := s.get(key)
	if limiter.Allow() {
		return false, nil
	}
	return true, limiter.Wait(ctx)
}
