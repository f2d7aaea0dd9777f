package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// visitorExpiry is how long an idle client keeps its limiter state.
const visitorExpiry = 3 * time.Minute

// errorBody has the same shape as the API base response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRateLimiterMiddleware limits every client IP to r requests per second
// with the given burst. A zero rate disables limiting. Requests whose path
// starts with one of skipPrefixes are never limited.
func NewRateLimiterMiddleware(r float64, burst int, skipPrefixes ...string) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(r),
		Burst:     burst,
		ExpiresIn: visitorExpiry,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			if r <= 0 {
				return true
			}
			path := c.Request().URL.Path
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					return true
				}
			}
			return false
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, errorBody{
				Code:    http.StatusForbidden,
				Message: "rate limiter error",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, errorBody{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests, please try again later",
			})
		},
	})
}
