package middleware

import (
	"time"

	"golang-backtest/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// WithRequestLogger tags every request with an X-Request-ID (kept when the
// caller sends one) and stores a logger carrying it in the request context.
// One line is logged per handled request.
func WithRequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			reqLog := log.With(logger.StringField("request_id", id))
			c.SetRequest(req.WithContext(logger.NewContext(req.Context(), reqLog)))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			reqLog.Info("Request handled",
				logger.StringField("method", req.Method),
				logger.StringField("path", c.Path()),
				logger.IntField("status", c.Response().Status),
				logger.DurationField("elapsed", time.Since(start)),
			)
			return nil
		}
	}
}
