// Package digest composes the cached daily briefing: priority events,
// metals snapshot, high-impact calendar, active theses, and the latest
// market context, joined per digest_date and rendered to plain text.
package digest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

const (
	priorityEventLimit = 10
	thesisLimit        = 10
)

// goldSilverRatioName matches the series written by the price ingestor.
const goldSilverRatioName = "gold_silver"

// metalSymbols in render order.
var metalSymbols = []struct {
	Metal  string
	Symbol string
}{
	{"gold", "GC=F"},
	{"silver", "SI=F"},
	{"copper", "HG=F"},
}

// eventView is one priority-event line of the digest.
type eventView struct {
	ID            string
	Source        string
	Headline      string
	PublishedAt   *time.Time
	Score         *int
	AnalysisReady bool
}

// metalView is one metals-snapshot entry.
type metalView struct {
	Metal         string
	Symbol        string
	Price         *float64
	ChangePercent *float64
	AsOf          *time.Time
}

// ratioView is the gold/silver ratio entry of the snapshot.
type ratioView struct {
	Name          string
	Value         *float64
	ChangePercent *float64
	AsOf          *time.Time
}

// Composer builds and caches daily digests.
type Composer struct {
	events   persistence.EventsRepo
	prices   persistence.PricesRepo
	calendar persistence.CalendarRepo
	theses   persistence.ThesesRepo
	contexts persistence.ContextRepo
	digests  persistence.DigestsRepo
}

// NewComposer wires the digest composer.
func NewComposer(
	events persistence.EventsRepo,
	prices persistence.PricesRepo,
	calendar persistence.CalendarRepo,
	theses persistence.ThesesRepo,
	contexts persistence.ContextRepo,
	digests persistence.DigestsRepo,
) *Composer {
	return &Composer{
		events:   events,
		prices:   prices,
		calendar: calendar,
		theses:   theses,
		contexts: contexts,
		digests:  digests,
	}
}

// dayBounds returns the UTC [midnight, +24h) window of date.
func dayBounds(date time.Time) persistence.TimeRange {
	start := date.UTC().Truncate(24 * time.Hour)
	return persistence.TimeRange{From: start, To: start.AddDate(0, 0, 1)}
}

// GetOrCreate returns the cached digest for date, building and caching
// it first when absent. Repeated calls for one date reuse the cached row.
func (c *Composer) GetOrCreate(ctx context.Context, date time.Time) (*models.DailyDigest, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	cached, err := c.digests.GetByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load cached digest: %w", err)
	}
	if cached != nil {
		return cached, nil
	}
	return c.Build(ctx, day)
}

// Build composes, renders, and upserts the digest for date.
func (c *Composer) Build(ctx context.Context, date time.Time) (*models.DailyDigest, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	window := dayBounds(day)

	events, err := c.priorityEvents(ctx, window)
	if err != nil {
		return nil, err
	}
	metals, ratio, err := c.metalsSnapshot(ctx, day)
	if err != nil {
		return nil, err
	}
	calendar, err := c.calendar.HighImpactInWindow(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	theses, err := c.theses.ListActive(ctx, thesisLimit)
	if err != nil {
		return nil, fmt.Errorf("load theses: %w", err)
	}
	mc, err := c.contexts.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load market context: %w", err)
	}

	digest := models.DailyDigest{
		DigestDate:       day,
		PriorityEvents:   eventMaps(events),
		MetalsSnapshot:   metalsMaps(metals, ratio),
		EconomicCalendar: calendarMaps(calendar),
		ActiveTheses:     thesisMaps(theses),
		FullDigest:       render(day, events, metals, ratio, calendar, theses, mc),
	}
	if err := c.digests.Upsert(ctx, digest); err != nil {
		return nil, fmt.Errorf("cache digest: %w", err)
	}
	metrics.RowsUpserted.WithLabelValues("daily_digests").Inc()
	log.Info().
		Str("digest_date", day.Format("2006-01-02")).
		Int("priority_events", len(events)).
		Int("calendar_events", len(calendar)).
		Int("theses", len(theses)).
		Msg("daily digest composed")
	return &digest, nil
}

func (c *Composer) priorityEvents(ctx context.Context, window persistence.TimeRange) ([]eventView, error) {
	rows, err := c.events.ListPriorityInWindow(ctx, window, priorityEventLimit)
	if err != nil {
		return nil, fmt.Errorf("load priority events: %w", err)
	}
	views := make([]eventView, 0, len(rows))
	for _, row := range rows {
		publishedAt := row.PublishedAt
		if publishedAt == nil {
			created := row.CreatedAt
			publishedAt = &created
		}
		views = append(views, eventView{
			ID:            row.ID.String(),
			Source:        row.Source,
			Headline:      row.Headline,
			PublishedAt:   publishedAt,
			Score:         row.SignificanceScore,
			AnalysisReady: row.Analyzed(),
		})
	}
	return views, nil
}

func (c *Composer) metalsSnapshot(ctx context.Context, day time.Time) ([]metalView, *ratioView, error) {
	metals := make([]metalView, 0, len(metalSymbols))
	for _, ms := range metalSymbols {
		bars, err := c.prices.LatestCloses(ctx, ms.Symbol, day, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("load closes %s: %w", ms.Symbol, err)
		}
		view := metalView{Metal: ms.Metal, Symbol: ms.Symbol}
		if len(bars) > 0 && bars[0].Close != nil {
			price := round2(*bars[0].Close)
			view.Price = &price
			asOf := bars[0].PriceDate
			view.AsOf = &asOf
			if len(bars) > 1 && bars[1].Close != nil {
				view.ChangePercent = changePercent(*bars[0].Close, *bars[1].Close)
			}
		}
		metals = append(metals, view)
	}

	ratios, err := c.prices.LatestRatios(ctx, goldSilverRatioName, day, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("load ratio: %w", err)
	}
	ratio := &ratioView{Name: goldSilverRatioName}
	if len(ratios) > 0 {
		value := round2(ratios[0].Value)
		ratio.Value = &value
		asOf := ratios[0].PriceDate
		ratio.AsOf = &asOf
		if len(ratios) > 1 {
			ratio.ChangePercent = changePercent(ratios[0].Value, ratios[1].Value)
		}
	}
	return metals, ratio, nil
}

func eventMaps(events []eventView) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		m := map[string]any{
			"id":             e.ID,
			"source":         e.Source,
			"headline":       e.Headline,
			"analysis_ready": e.AnalysisReady,
		}
		if e.PublishedAt != nil {
			m["published_at"] = e.PublishedAt.UTC().Format(time.RFC3339)
		}
		if e.Score != nil {
			m["score"] = *e.Score
		}
		out = append(out, m)
	}
	return out
}

func metalsMaps(metals []metalView, ratio *ratioView) []map[string]any {
	out := make([]map[string]any, 0, len(metals)+1)
	for _, mv := range metals {
		m := map[string]any{"metal": mv.Metal, "symbol": mv.Symbol}
		if mv.Price != nil {
			m["price"] = *mv.Price
		}
		if mv.ChangePercent != nil {
			m["change_percent"] = *mv.ChangePercent
		}
		if mv.AsOf != nil {
			m["as_of"] = mv.AsOf.Format("2006-01-02")
		}
		out = append(out, m)
	}
	if ratio != nil {
		m := map[string]any{"name": ratio.Name}
		if ratio.Value != nil {
			m["value"] = *ratio.Value
		}
		if ratio.ChangePercent != nil {
			m["change_percent"] = *ratio.ChangePercent
		}
		if ratio.AsOf != nil {
			m["as_of"] = ratio.AsOf.Format("2006-01-02")
		}
		out = append(out, m)
	}
	return out
}

func calendarMaps(events []models.EconomicEvent) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		m := map[string]any{
			"event_name": e.EventName,
			"event_date": e.EventDate.UTC().Format(time.RFC3339),
		}
		if e.Region != nil {
			m["region"] = *e.Region
		}
		if e.ImpactLevel != nil {
			m["impact_level"] = *e.ImpactLevel
		}
		if e.ExpectedValue != nil {
			m["expected_value"] = *e.ExpectedValue
		}
		if e.ActualValue != nil {
			m["actual_value"] = *e.ActualValue
		}
		if e.PreviousValue != nil {
			m["previous_value"] = *e.PreviousValue
		}
		if e.SurpriseDirection != nil {
			m["surprise_direction"] = *e.SurpriseDirection
		}
		if e.SurpriseMagnitude != nil {
			m["surprise_magnitude"] = round2(*e.SurpriseMagnitude)
		}
		out = append(out, m)
	}
	return out
}

func thesisMaps(theses []models.Thesis) []map[string]any {
	out := make([]map[string]any, 0, len(theses))
	for _, th := range theses {
		m := map[string]any{"id": th.ID.String(), "title": th.Title}
		if th.Status != nil {
			m["status"] = *th.Status
		}
		if th.AssetSymbol != nil {
			m["asset_symbol"] = *th.AssetSymbol
		}
		if th.PriceChangePercent != nil {
			m["price_change_percent"] = round2(*th.PriceChangePercent)
		}
		if th.UpdatedAt != nil {
			m["updated_at"] = th.UpdatedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, m)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// changePercent returns the two-decimal percentage move from previous to
// latest, nil when previous is zero.
func changePercent(latest, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := round2((latest - previous) / previous * 100)
	return &change
}
