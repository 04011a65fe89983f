package calendar

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/ingest/fredapi"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// ReleaseMapping names one tracked FRED release.
type ReleaseMapping struct {
	ReleaseID int
	EventName string
	Impact    string
}

// ReleaseMappings is the fixed set of US releases mirrored into the
// calendar, all under the USD region.
var ReleaseMappings = []ReleaseMapping{
	{10, "CPI", ImpactHigh},
	{50, "NFP", ImpactHigh},
	{53, "GDP", ImpactHigh},
	{54, "PCE", ImpactHigh},
	{101, "FOMC", ImpactHigh},
	{9, "Retail Sales", ImpactMedium},
	{13, "Industrial Production", ImpactMedium},
	{46, "PPI", ImpactMedium},
	{11, "Unemployment Claims", ImpactMedium},
}

const fredRegion = "USD"

// FredSyncer mirrors upcoming FRED release dates into the calendar.
type FredSyncer struct {
	fred *fredapi.Client
	repo persistence.CalendarRepo

	// now is a test hook.
	now func() time.Time
}

// NewFredSyncer builds the release-schedule syncer.
func NewFredSyncer(fred *fredapi.Client, repo persistence.CalendarRepo) *FredSyncer {
	return &FredSyncer{fred: fred, repo: repo, now: time.Now}
}

// Sync upserts one calendar row per (release, date) inside
// [today 00:00 UTC, today+windowDays). Per-release failures are logged
// and skipped.
func (s *FredSyncer) Sync(ctx context.Context, windowDays int) (int, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	windowStart := s.now().UTC().Truncate(24 * time.Hour)
	windowEnd := windowStart.AddDate(0, 0, windowDays)

	upserted := 0
	for _, mapping := range ReleaseMappings {
		dates, err := s.fred.ReleaseDates(ctx, mapping.ReleaseID, windowStart)
		if err != nil {
			log.Error().Err(err).Int("release_id", mapping.ReleaseID).
				Str("event", mapping.EventName).Msg("fetch release dates failed")
			continue
		}
		for _, date := range dates {
			if !date.Before(windowEnd) {
				continue
			}
			impact := mapping.Impact
			region := fredRegion
			event := models.EconomicEvent{
				EventName:   mapping.EventName,
				EventDate:   date,
				Region:      &region,
				ImpactLevel: &impact,
			}
			if err := s.repo.Upsert(ctx, event); err != nil {
				log.Error().Err(err).Str("event", event.EventName).Msg("upsert release entry failed")
				continue
			}
			upserted++
			metrics.RowsUpserted.WithLabelValues("economic_events").Inc()
		}
	}
	log.Info().Int("upserted", upserted).Msg("release schedule synced")
	return upserted, nil
}
