package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(opts ...Option) *Client {
	c := NewClient(opts...)
	c.sleep = func(time.Duration) {}
	c.jitter = func(d time.Duration) time.Duration { return d }
	return c
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
}

func TestGetRetriesOn500ThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, 3, calls)
}

func TestGetFailsFastOn404(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, 1, calls, "4xx must not be retried")
}

func TestGetSurfacesRateLimitAfterRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, http.StatusTooManyRequests, rlErr.StatusCode)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
	assert.Equal(t, maxAttempts, calls)
}

func TestGet403IsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, nil)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient().PostJSON(context.Background(), srv.URL,
		map[string]any{"model": "m"}, map[string]string{"Authorization": "Bearer token"})
	require.NoError(t, err)
	assert.Contains(t, resp, "choices")
}

func TestRetryDelaySchedule(t *testing.T) {
	ident := func(d time.Duration) time.Duration { return d }

	assert.Equal(t, 2*time.Second, retryDelay(1, nil, ident))
	assert.Equal(t, 4*time.Second, retryDelay(2, nil, ident))

	// Retry-After hint wins over the exponential schedule.
	hint := &RateLimitError{RetryAfter: 9 * time.Second}
	assert.Equal(t, 9*time.Second, retryDelay(1, hint, ident))
}

func TestRetryDelayCap(t *testing.T) {
	ident := func(d time.Duration) time.Duration { return d }
	assert.Equal(t, backoffCap, retryDelay(10, nil, ident))
}

func TestApplyJitterBounds(t *testing.T) {
	base := 10 * time.Second
	for i := 0; i < 200; i++ {
		d := applyJitter(base)
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.LessOrEqual(t, d, 15*time.Second)
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 50*time.Second)
	assert.LessOrEqual(t, d, time.Minute)
}
