package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// ForexFactoryURL serves the current week's calendar as JSON.
const ForexFactoryURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"

// DefaultWindowDays is the sync horizon from today.
const DefaultWindowDays = 7

// ffItem tolerates both field-name dialects the feed has used.
type ffItem struct {
	Title     string `json:"title"`
	EventName string `json:"event_name"`
	Date      string `json:"date"`
	EventDate string `json:"event_date"`
	Impact    string `json:"impact"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	Forecast  string `json:"forecast"`
	Actual    string `json:"actual"`
	Previous  string `json:"previous"`
}

func (i ffItem) name() string { return firstNonEmpty(i.Title, i.EventName) }
func (i ffItem) when() string { return firstNonEmpty(i.Date, i.EventDate) }
func (i ffItem) where() string {
	return strings.ToUpper(strings.TrimSpace(firstNonEmpty(i.Country, i.Region)))
}

// Syncer pulls calendar entries into the store.
type Syncer struct {
	client *fetch.Client
	repo   persistence.CalendarRepo
	url    string

	// now is a test hook.
	now func() time.Time
}

// NewSyncer builds a ForexFactory syncer.
func NewSyncer(client *fetch.Client, repo persistence.CalendarRepo) *Syncer {
	return &Syncer{client: client, repo: repo, url: ForexFactoryURL, now: time.Now}
}

// SyncForexFactory upserts this week's entries that fall inside
// [today 00:00 UTC, today+windowDays). A stale feed whose newest entry
// predates the window writes nothing.
func (s *Syncer) SyncForexFactory(ctx context.Context, windowDays int) (int, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	body, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("fetch calendar feed: %w", err)
	}
	var items []ffItem
	if err := json.Unmarshal(body, &items); err != nil {
		return 0, fmt.Errorf("decode calendar feed: %w", err)
	}
	return s.syncItems(ctx, items, windowDays)
}

// SyncFixture upserts entries from a local feed-format JSON file instead
// of the wire feed.
func (s *Syncer) SyncFixture(ctx context.Context, path string, windowDays int) (int, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read calendar fixture: %w", err)
	}
	var items []ffItem
	if err := json.Unmarshal(body, &items); err != nil {
		return 0, fmt.Errorf("decode calendar fixture %s: %w", path, err)
	}
	return s.syncItems(ctx, items, windowDays)
}

func (s *Syncer) syncItems(ctx context.Context, items []ffItem, windowDays int) (int, error) {
	windowStart := s.now().UTC().Truncate(24 * time.Hour)
	windowEnd := windowStart.AddDate(0, 0, windowDays)

	if stale(items, windowStart) {
		log.Warn().Str("url", s.url).Msg("calendar feed is stale, skipping sync")
		return 0, nil
	}

	upserted := 0
	for _, item := range items {
		event, ok := eventFromItem(item, windowStart, windowEnd)
		if !ok {
			continue
		}
		if err := s.repo.Upsert(ctx, event); err != nil {
			log.Error().Err(err).Str("event", event.EventName).Msg("upsert calendar entry failed")
			continue
		}
		upserted++
		metrics.RowsUpserted.WithLabelValues("economic_events").Inc()
	}
	log.Info().Int("items", len(items)).Int("upserted", upserted).Msg("calendar synced")
	return upserted, nil
}

// stale reports whether every parseable entry predates the window.
func stale(items []ffItem, windowStart time.Time) bool {
	var newest time.Time
	any := false
	for _, item := range items {
		when, err := parseWhen(item.when())
		if err != nil {
			continue
		}
		any = true
		if when.After(newest) {
			newest = when
		}
	}
	return any && newest.Before(windowStart)
}

func eventFromItem(item ffItem, windowStart, windowEnd time.Time) (models.EconomicEvent, bool) {
	name := strings.TrimSpace(item.name())
	if name == "" {
		return models.EconomicEvent{}, false
	}
	when, err := parseWhen(item.when())
	if err != nil {
		return models.EconomicEvent{}, false
	}
	if when.Before(windowStart) || !when.Before(windowEnd) {
		return models.EconomicEvent{}, false
	}

	impact := NormalizeImpact(item.Impact)
	region := item.where()
	event := models.EconomicEvent{
		EventName:     name,
		EventDate:     when,
		Region:        &region,
		ImpactLevel:   &impact,
		ExpectedValue: CleanValue(item.Forecast),
		ActualValue:   CleanValue(item.Actual),
		PreviousValue: CleanValue(item.Previous),
	}
	if event.ActualValue != nil && event.ExpectedValue != nil {
		event.SurpriseDirection, event.SurpriseMagnitude = Surprise(*event.ActualValue, *event.ExpectedValue)
	}
	return event, true
}

// parseWhen accepts RFC3339 with offset (the feed's format) and a bare
// date.
func parseWhen(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
