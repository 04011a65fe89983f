package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/ingest/fredapi"
)

func TestFredSyncUpsertsWindowedReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("release_id") {
		case "10": // one date inside the window, one outside
			_, _ = w.Write([]byte(`{"release_dates": [{"date": "2026-08-12"}, {"date": "2026-09-12"}]}`))
		default:
			_, _ = w.Write([]byte(`{"release_dates": []}`))
		}
	}))
	defer server.Close()

	repo := &captureCalendarRepo{}
	s := NewFredSyncer(fredapi.NewClient(fetch.NewClient(), server.URL, "test-key"), repo)
	s.now = func() time.Time { return time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC) }

	upserted, err := s.Sync(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, upserted)

	require.Len(t, repo.upserts, 1)
	cpi := repo.upserts[0]
	assert.Equal(t, "CPI", cpi.EventName)
	assert.Equal(t, "USD", *cpi.Region)
	assert.Equal(t, "high", *cpi.ImpactLevel)
	assert.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), cpi.EventDate)
}
