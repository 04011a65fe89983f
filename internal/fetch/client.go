// Package fetch is the retrying, rate-limit-aware HTTP layer every
// ingestor goes through. It applies jittered exponential backoff, honours
// Retry-After, and keeps per-host token buckets and circuit breakers so a
// misbehaving source cannot burn the whole batch.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/meridianhq/meridian/internal/metrics"
)

const (
	maxAttempts       = 3
	backoffBase       = 2 * time.Second
	backoffMultiplier = 2.0
	backoffCap        = 60 * time.Second
	defaultTimeout    = 15 * time.Second

	defaultUserAgent = "meridian/1.0 (macro intelligence; +https://github.com/meridianhq/meridian)"

	perHostRPS   = 4
	perHostBurst = 8
)

// rateLimitStatuses is the retryable rate-limit set. 403 is included
// because the wire-service feeds answer it for throttling, not auth.
var rateLimitStatuses = map[int]bool{
	http.StatusForbidden:          true,
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

// Client issues GET/POST requests with retries. Safe for concurrent use.
type Client struct {
	http  *http.Client
	cache *Cache

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker

	// Test hooks.
	sleep  func(time.Duration)
	jitter func(d time.Duration) time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 15s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithCache attaches a response cache consulted for GETs.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithTransport overrides the underlying round tripper. Test hook.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// NewClient builds a Client with the default retry policy.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		sleep:    time.Sleep,
		jitter:   applyJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body. Retries per the policy
// in the package comment; returns *RateLimitError, *StatusError, or
// *TransportError on failure.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, rawURL); ok {
			metrics.FetchCacheHits.Inc()
			return body, nil
		}
	}
	body, err := c.do(ctx, http.MethodGet, rawURL, nil, headers)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, rawURL, body)
	}
	return body, nil
}

// PostJSON posts body as JSON and decodes the JSON response into a
// generic map.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, headers map[string]string) (map[string]any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	merged := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	body, err := c.do(ctx, http.MethodPost, rawURL, encoded, merged)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return decoded, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	host := hostOf(rawURL)
	limiter := c.limiterFor(host)
	breaker := c.breakerFor(host)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt, lastErr, c.jitter)
			log.Debug().Str("url", rawURL).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying fetch")
			c.sleep(delay)
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		result, err := breaker.Execute(func() (any, error) {
			return c.roundTrip(ctx, method, rawURL, body, headers)
		})
		if err == nil {
			metrics.FetchRequests.WithLabelValues(host, "ok").Inc()
			return result.([]byte), nil
		}
		lastErr = err
		if !retryable(err) {
			metrics.FetchRequests.WithLabelValues(host, "fatal").Inc()
			return nil, err
		}
		metrics.FetchRetries.WithLabelValues(host).Inc()
	}

	metrics.FetchRequests.WithLabelValues(host, "exhausted").Inc()
	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case rateLimitStatuses[resp.StatusCode]:
		metrics.FetchRateLimited.WithLabelValues(hostOf(rawURL)).Inc()
		return nil, &RateLimitError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("server error %d", resp.StatusCode)}
	default:
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: truncate(string(payload), 512)}
	}
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(perHostRPS), perHostBurst)
		c.limiters[host] = l
	}
	return l
}

func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[host]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("host", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
			},
		})
		c.breakers[host] = b
	}
	return b
}

// retryable reports whether err warrants another attempt: transient
// transport failures (incl. 5xx) and the rate-limit set, but never plain
// 4xx client errors.
func retryable(err error) bool {
	switch err.(type) {
	case *RateLimitError, *TransportError:
		return true
	case *StatusError:
		return false
	}
	// Breaker-open and other wrapped failures count as transient.
	return true
}

// retryDelay computes the backoff before the given attempt (1-based).
// A rate-limit hint from the server overrides the exponential schedule.
func retryDelay(attempt int, lastErr error, jitter func(time.Duration) time.Duration) time.Duration {
	if rl, ok := lastErr.(*RateLimitError); ok && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := time.Duration(float64(backoffBase) * pow(backoffMultiplier, attempt-1))
	if d > backoffCap {
		d = backoffCap
	}
	return jitter(d)
}

// applyJitter spreads d by a uniform ±50%.
func applyJitter(d time.Duration) time.Duration {
	half := float64(d) / 2
	return time.Duration(half + rand.Float64()*float64(d))
}

func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
