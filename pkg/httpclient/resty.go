package httpclient

import (
	"context"
	"net/http"
	"time"

	"golang-backtest/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const (
	defaultRetryCount   = 2
	defaultRetryWait    = 500 * time.Millisecond
	defaultRetryMaxWait = 5 * time.Second
)

type Option func(*resty.Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *resty.Client) {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
	}
}

// WithHeaders sets headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *resty.Client) {
		c.SetHeaders(headers)
	}
}

// WithRetry overrides the retry policy. count 0 disables retries.
func WithRetry(count int, wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait)
	}
}

type restyClient struct {
	client *resty.Client
}

// New builds a client retrying on transport errors, 429 and 5xx responses.
func New(log *logger.Logger, baseURL string, opts ...Option) HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			log.Warn("Retrying HTTP request",
				logger.StringField("url", r.Request.URL),
				logger.IntField("status_code", r.StatusCode()),
				logger.IntField("attempt", r.Request.Attempt),
			)
		})
	for _, opt := range opts {
		opt(client)
	}

	return &restyClient{client: client}
}

func (rc *restyClient) Get(ctx context.Context, endpoint string, queryParams map[string]string, result interface{}) (*Response, error) {
	req := rc.client.R().SetContext(ctx)
	if result != nil {
		req.SetResult(result)
	}
	if len(queryParams) > 0 {
		req.SetQueryParams(queryParams)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Headers:    resp.Header(),
	}, nil
}
