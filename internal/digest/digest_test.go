package digest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

type stubEventsRepo struct {
	priority []models.MacroEvent
	window   persistence.TimeRange
	calls    int
}

func (s *stubEventsRepo) InsertIgnore(context.Context, models.MacroEvent) (bool, error) {
	return false, nil
}

func (s *stubEventsRepo) ListUnscored(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) UpdateScore(context.Context, uuid.UUID, int, map[string]int, bool) error {
	return nil
}

func (s *stubEventsRepo) ListPriorityUnanalyzed(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) ListPriority(context.Context, int) ([]models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) GetByID(context.Context, uuid.UUID) (*models.MacroEvent, error) {
	return nil, nil
}

func (s *stubEventsRepo) UpdateAnalysis(context.Context, uuid.UUID, models.MacroEvent, bool) (bool, error) {
	return false, nil
}

func (s *stubEventsRepo) ListPriorityInWindow(_ context.Context, tr persistence.TimeRange, _ int) ([]models.MacroEvent, error) {
	s.window = tr
	s.calls++
	return s.priority, nil
}

type stubPricesRepo struct {
	closes map[string][]models.PriceBar
	ratios []models.PriceRatio
}

func (s *stubPricesRepo) UpsertBar(context.Context, models.PriceBar) error     { return nil }
func (s *stubPricesRepo) UpsertRatio(context.Context, models.PriceRatio) error { return nil }

func (s *stubPricesRepo) LatestCloses(_ context.Context, symbol string, _ time.Time, _ int) ([]models.PriceBar, error) {
	return s.closes[symbol], nil
}

func (s *stubPricesRepo) LatestRatios(context.Context, string, time.Time, int) ([]models.PriceRatio, error) {
	return s.ratios, nil
}

func (s *stubPricesRepo) ClosesBySymbol(context.Context, string, persistence.TimeRange) (map[string]float64, error) {
	return nil, nil
}

type stubCalendarRepo struct {
	events []models.EconomicEvent
}

func (s *stubCalendarRepo) Upsert(context.Context, models.EconomicEvent) error { return nil }

func (s *stubCalendarRepo) HighImpactInWindow(context.Context, persistence.TimeRange) ([]models.EconomicEvent, error) {
	return s.events, nil
}

type stubThesesRepo struct {
	theses []models.Thesis
}

func (s *stubThesesRepo) ListActive(context.Context, int) ([]models.Thesis, error) {
	return s.theses, nil
}

type stubContextRepo struct {
	latest *models.MarketContext
}

func (s *stubContextRepo) Upsert(context.Context, models.MarketContext) error { return nil }

func (s *stubContextRepo) Latest(context.Context) (*models.MarketContext, error) {
	return s.latest, nil
}

type stubDigestsRepo struct {
	cached   *models.DailyDigest
	upserted []models.DailyDigest
}

func (s *stubDigestsRepo) GetByDate(context.Context, time.Time) (*models.DailyDigest, error) {
	return s.cached, nil
}

func (s *stubDigestsRepo) Upsert(_ context.Context, digest models.DailyDigest) error {
	s.upserted = append(s.upserted, digest)
	return nil
}

func ptr[T any](v T) *T { return &v }

func bars(symbol string, day time.Time, closes ...float64) []models.PriceBar {
	out := make([]models.PriceBar, 0, len(closes))
	for i, c := range closes {
		out = append(out, models.PriceBar{
			Symbol:    symbol,
			PriceDate: day.AddDate(0, 0, -i),
			Close:     ptr(c),
		})
	}
	return out
}

func newFullComposer(day time.Time) (*Composer, *stubEventsRepo, *stubDigestsRepo) {
	published := day.Add(14 * time.Hour)
	events := &stubEventsRepo{priority: []models.MacroEvent{{
		ID:                uuid.New(),
		Source:            "ap",
		Headline:          "Fed raises rates again",
		PublishedAt:       &published,
		SignificanceScore: ptr(72),
		PriorityFlag:      true,
	}}}
	prices := &stubPricesRepo{
		closes: map[string][]models.PriceBar{
			"GC=F": bars("GC=F", day, 2000, 1990),
			"SI=F": bars("SI=F", day, 25, 25.05),
			"HG=F": bars("HG=F", day, 4),
		},
		ratios: []models.PriceRatio{
			{RatioName: "gold_silver", PriceDate: day, Value: 80},
			{RatioName: "gold_silver", PriceDate: day.AddDate(0, 0, -1), Value: 80 / 1.0125},
		},
	}
	calendar := &stubCalendarRepo{events: []models.EconomicEvent{{
		EventName:   "CPI Release",
		EventDate:   day.Add(10 * time.Hour),
		Region:      ptr("US"),
		ImpactLevel: ptr("high"),
	}}}
	theses := &stubThesesRepo{theses: []models.Thesis{{
		ID:                 uuid.New(),
		Title:              "SLV squeeze",
		Status:             ptr("watching"),
		AssetSymbol:        ptr("SLV"),
		PriceChangePercent: ptr(3.2),
	}}}
	contexts := &stubContextRepo{latest: &models.MarketContext{
		ContextDate:             day,
		VolatilityRegime:        "elevated",
		DollarRegime:            "neutral",
		CurveRegime:             "normal",
		CreditRegime:            "normal",
		VIXLevel:                ptr(22.5),
		DXYLevel:                ptr(102.0),
		SuggestedSizeMultiplier: 0.75,
	}}
	digests := &stubDigestsRepo{}
	return NewComposer(events, prices, calendar, theses, contexts, digests), events, digests
}

func TestBuildRendersFullBriefing(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	composer, events, digests := newFullComposer(day)

	digest, err := composer.Build(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, day, events.window.From)
	assert.Equal(t, day.AddDate(0, 0, 1), events.window.To)

	text := digest.FullDigest
	assert.Contains(t, text, "MERIDIAN DAILY BRIEFING")
	assert.Contains(t, text, "Monday, Aug 24, 2026 (UTC)")
	assert.Contains(t, text, "Regimes: Vol: ELEVATED | USD: NEUTRAL | Curve: NORMAL | Credit: NORMAL")
	assert.Contains(t, text, "Levels: VIX 22.5 | DXY 102.0")
	assert.Contains(t, text, "Position Sizing: 75% of normal")
	assert.Contains(t, text, "PRIORITY EVENTS (1)")
	assert.Contains(t, text, "- Fed raises rates again (72/100)")
	assert.NotContains(t, text, "[analysis ready]")
	assert.Contains(t, text, "Gold: $2000.00 (+0.50%)")
	assert.Contains(t, text, "Silver: $25.00 (-0.20%)")
	assert.Contains(t, text, "Copper: $4.00 (n/a)")
	assert.Contains(t, text, "G/S Ratio: 80.00 (+1.25%)")
	assert.Contains(t, text, "- 10:00 US CPI Release (HIGH)")
	assert.Contains(t, text, "- SLV squeeze (watching) SLV +3.20%")

	require.Len(t, digests.upserted, 1)
	assert.Equal(t, day, digests.upserted[0].DigestDate)

	require.Len(t, digest.PriorityEvents, 1)
	assert.Equal(t, 72, digest.PriorityEvents[0]["score"])
	assert.Equal(t, false, digest.PriorityEvents[0]["analysis_ready"])

	// Three metals plus the ratio entry.
	require.Len(t, digest.MetalsSnapshot, 4)
	assert.Equal(t, 2000.0, digest.MetalsSnapshot[0]["price"])
	assert.Equal(t, "gold_silver", digest.MetalsSnapshot[3]["name"])
}

func TestBuildFlagsAnalyzedEvents(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	composer, events, _ := newFullComposer(day)
	events.priority[0].RawFacts = []string{"Rates raised 25bp."}

	digest, err := composer.Build(context.Background(), day)
	require.NoError(t, err)
	assert.Contains(t, digest.FullDigest, "- Fed raises rates again (72/100) [analysis ready]")
	assert.Equal(t, true, digest.PriorityEvents[0]["analysis_ready"])
}

func TestGetOrCreateReturnsCachedRow(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	composer, events, digests := newFullComposer(day)
	digests.cached = &models.DailyDigest{DigestDate: day, FullDigest: "cached text"}

	digest, err := composer.GetOrCreate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "cached text", digest.FullDigest)
	assert.Zero(t, events.calls, "cached digest must not rebuild")
	assert.Empty(t, digests.upserted)
}

func TestBuildEmptyDay(t *testing.T) {
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	composer := NewComposer(
		&stubEventsRepo{}, &stubPricesRepo{}, &stubCalendarRepo{},
		&stubThesesRepo{}, &stubContextRepo{}, &stubDigestsRepo{},
	)

	digest, err := composer.Build(context.Background(), day)
	require.NoError(t, err)

	text := digest.FullDigest
	assert.Contains(t, text, "- No market context available")
	assert.Contains(t, text, "PRIORITY EVENTS (0)")
	assert.Contains(t, text, "- No price data")
	assert.Contains(t, text, "TODAY'S CALENDAR\n- None")
	assert.Contains(t, text, "THESIS UPDATES\n- None")
}

func TestFormatPercentSigns(t *testing.T) {
	assert.Equal(t, "+1.25%", formatPercent(ptr(1.25)))
	assert.Equal(t, "-0.20%", formatPercent(ptr(-0.2)))
	assert.Equal(t, "0.00%", formatPercent(ptr(0.0)))
	assert.Equal(t, "n/a", formatPercent(nil))
}
