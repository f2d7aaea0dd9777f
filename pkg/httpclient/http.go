package httpclient

import (
	"context"
	"fmt"
	"net/http"
)

type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// StatusError is returned by Response.Err for non 2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Err returns a *StatusError unless the status is 2xx.
func (r *Response) Err() error {
	if r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	return &StatusError{StatusCode: r.StatusCode, Body: string(r.Body)}
}

type HTTPClient interface {
	// Get decodes a successful JSON body into result.
	Get(ctx context.Context, endpoint string, queryParams map[string]string, result interface{}) (*Response, error)
}
