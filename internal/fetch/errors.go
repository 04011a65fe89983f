package fetch

import (
	"fmt"
	"time"
)

// RateLimitError reports a 403/429/503 response. RetryAfter is zero when
// the server sent no usable hint.
type RateLimitError struct {
	URL        string
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (%d) fetching %s, retry after %s", e.StatusCode, e.URL, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (%d) fetching %s", e.StatusCode, e.URL)
}

// StatusError reports a non-retryable HTTP status (4xx outside the
// rate-limit set).
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// TransportError wraps a network-level failure after retries are exhausted.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
