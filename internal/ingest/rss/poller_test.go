package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>wire</title>
<item>
  <title>  Gold   surges as   dollar weakens  </title>
  <link>https://example.com/gold</link>
  <pubDate>Mon, 10 Aug 2026 09:30:00 GMT</pubDate>
  <description>Gold rallied on a softer dollar.</description>
</item>
<item>
  <title>No link item</title>
  <pubDate>Mon, 10 Aug 2026 09:31:00 GMT</pubDate>
</item>
<item>
  <title>No date item</title>
  <link>https://example.com/nodate</link>
</item>
</channel></rss>`

type captureEventsRepo struct {
	inserted  []models.MacroEvent
	duplicate bool
}

func (c *captureEventsRepo) InsertIgnore(_ context.Context, e models.MacroEvent) (bool, error) {
	c.inserted = append(c.inserted, e)
	return !c.duplicate, nil
}
func (c *captureEventsRepo) ListUnscored(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}
func (c *captureEventsRepo) UpdateScore(context.Context, uuid.UUID, int, map[string]int, bool) error {
	return nil
}
func (c *captureEventsRepo) ListPriorityUnanalyzed(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}
func (c *captureEventsRepo) ListPriority(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}
func (c *captureEventsRepo) GetByID(context.Context, uuid.UUID) (*models.MacroEvent, error) {
	return nil, nil
}
func (c *captureEventsRepo) UpdateAnalysis(context.Context, uuid.UUID, models.MacroEvent, bool) (bool, error) {
	return false, nil
}
func (c *captureEventsRepo) ListPriorityInWindow(context.Context, persistence.TimeRange, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func newTestPoller(t *testing.T, repo persistence.EventsRepo, feeds []Feed) *Poller {
	t.Helper()
	p := NewPoller(fetch.NewClient(), repo, feeds)
	p.sleep = func(time.Duration) {}
	p.randDur = func(time.Duration) time.Duration { return 0 }
	return p
}

func TestPollOnceInsertsValidItemsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	repo := &captureEventsRepo{}
	p := newTestPoller(t, repo, []Feed{{Name: "reuters", URL: server.URL}})

	inserted, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	require.Len(t, repo.inserted, 1)
	event := repo.inserted[0]
	assert.Equal(t, "reuters", event.Source)
	assert.Equal(t, "Gold surges as dollar weakens", event.Headline)
	assert.Equal(t, "https://example.com/gold", *event.URL)
	assert.Equal(t, time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC), *event.PublishedAt)
	require.NotNil(t, event.FullText)
	assert.Equal(t, "Gold rallied on a softer dollar.", *event.FullText)
}

func TestPollOnceCountsOnlyNewRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	repo := &captureEventsRepo{duplicate: true}
	p := newTestPoller(t, repo, []Feed{{Name: "reuters", URL: server.URL}})

	inserted, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Len(t, repo.inserted, 1)
}

func TestPollOnceSurvivesFailingFeed(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	repo := &captureEventsRepo{}
	p := newTestPoller(t, repo, []Feed{
		{Name: "broken", URL: bad.URL},
		{Name: "reuters", URL: good.URL},
	})

	inserted, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestPollOnceErrorsWhenEveryFeedFails(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	repo := &captureEventsRepo{}
	p := newTestPoller(t, repo, []Feed{
		{Name: "broken", URL: bad.URL},
		{Name: "also-broken", URL: bad.URL},
	})

	inserted, err := p.PollOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all feeds failed")
	assert.Zero(t, inserted)
	assert.Empty(t, repo.inserted)
}

func TestDefaultFeedsShape(t *testing.T) {
	require.Len(t, DefaultFeeds, 7)
	names := make(map[string]bool)
	for _, f := range DefaultFeeds {
		names[f.Name] = true
		assert.Contains(t, f.URL, "news.google.com/rss/search")
	}
	for _, want := range []string{"reuters", "ap", "bloomberg", "central_banks", "commodities", "geopolitical", "inflation"} {
		assert.True(t, names[want], want)
	}
}

func TestLoadFeedsFile(t *testing.T) {
	path := t.TempDir() + "/feeds.yaml"
	require.NoError(t, writeFile(path, "- name: custom\n  url: https://example.com/rss\n"))

	feeds, err := LoadFeedsFile(path)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "custom", feeds[0].Name)

	require.NoError(t, writeFile(path, "- name: broken\n"))
	_, err = LoadFeedsFile(path)
	require.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
