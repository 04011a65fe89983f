package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

func TestCasesRepoUpsertPreservesEmbedding(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCasesRepo(db, time.Second)

	mock.ExpectExec(regexp.QuoteMeta("COALESCE(EXCLUDED.embedding, historical_cases.embedding)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	eventType := "supply_shock"
	err := repo.Upsert(context.Background(), models.HistoricalCase{
		EventName: "2019 Vale dam disaster",
		DateRange: "2019-01 to 2019-03",
		EventType: &eventType,
		Lessons:   []string{"Supply shocks in concentrated markets reprice fast"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCasesRepoSimilarByEmbedding(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCasesRepo(db, time.Second)

	rows := sqlmock.NewRows([]string{"event_name", "date_range", "event_type", "significance_score", "distance"}).
		AddRow("2011 debt ceiling crisis", "2011-07 to 2011-08", "financial_crisis", 85, 0.31).
		AddRow("2013 taper tantrum", "2013-05 to 2013-09", "monetary_policy", 75, 0.44)

	mock.ExpectQuery("WHERE embedding IS NOT NULL").
		WillReturnRows(rows)

	matches, err := repo.SimilarByEmbedding(context.Background(), make([]float32, 1536), 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "embedding", matches[0].MatchMethod)
	assert.InDelta(t, 0.31, *matches[0].Distance, 1e-9)
	assert.Nil(t, matches[0].MatchScore)
}

func TestCasesRepoUpdateEmbeddingMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCasesRepo(db, time.Second)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE historical_cases SET embedding")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	matched, err := repo.UpdateEmbedding(context.Background(), "Unknown case", "1999", make([]float32, 1536))
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestCalendarRepoHighImpactInWindow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCalendarRepo(db, time.Second)

	tr := persistence.TimeRange{
		From: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC),
	}
	rows := sqlmock.NewRows([]string{
		"id", "event_name", "event_date", "region", "impact_level",
		"expected_value", "actual_value", "previous_value",
		"surprise_direction", "surprise_magnitude",
	}).AddRow(uuid.New(), "CPI", tr.From.Add(13*time.Hour+30*time.Minute), "USD", "high",
		"3.1%", nil, "3.4%", nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE impact_level = 'high'")).
		WithArgs(tr.From, tr.To).
		WillReturnRows(rows)

	events, err := repo.HighImpactInWindow(context.Background(), tr)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "CPI", events[0].EventName)
	assert.Equal(t, "high", *events[0].ImpactLevel)
}

func TestPricesRepoUpsertBarDefaultsSource(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPricesRepo(db, time.Second)

	closePx := 2000.5
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_prices")).
		WithArgs("GC=F", sqlmock.AnyArg(), nil, nil, nil, &closePx, nil, nil, "yahoo").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertBar(context.Background(), models.PriceBar{
		Symbol:    "GC=F",
		PriceDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Close:     &closePx,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPricesRepoLatestCloses(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPricesRepo(db, time.Second)

	asOf := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"symbol", "price_date", "open", "high", "low", "close", "adj_close", "volume", "source"}).
		AddRow("GC=F", asOf, nil, nil, nil, 2010.0, nil, nil, "yahoo").
		AddRow("GC=F", asOf.AddDate(0, 0, -1), nil, nil, nil, 2000.0, nil, nil, "yahoo")

	mock.ExpectQuery("ORDER BY price_date DESC").
		WithArgs("GC=F", asOf, 2).
		WillReturnRows(rows)

	bars, err := repo.LatestCloses(context.Background(), "GC=F", asOf, 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 2010.0, *bars[0].Close)
	assert.Equal(t, 2000.0, *bars[1].Close)
}

func TestPricesRepoClosesBySymbolKeysByDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPricesRepo(db, time.Second)

	tr := persistence.TimeRange{
		From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	rows := sqlmock.NewRows([]string{"price_date", "close"}).
		AddRow(time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), 22.5)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT price_date, close")).
		WillReturnRows(rows)

	closes, err := repo.ClosesBySymbol(context.Background(), "SI=F", tr)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"2026-02-09": 22.5}, closes)
}

func TestCommsRepoLatestBeforeNone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommsRepo(db, time.Second)

	mock.ExpectQuery("ORDER BY published_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "bank", "comm_type", "published_at", "full_text", "change_vs_previous"}))

	comm, err := repo.LatestBefore(context.Background(), "federal_reserve", "statement", time.Now())
	require.NoError(t, err)
	assert.Nil(t, comm)
}

func TestDigestsRepoGetByDateRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDigestsRepo(db, time.Second)

	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "digest_date", "created_at", "priority_events", "metals_snapshot",
		"economic_calendar", "active_theses", "full_digest",
	}).AddRow(uuid.New(), date, time.Now(),
		[]byte(`[{"headline":"OPEC cut","score":82}]`), []byte(`[]`), nil, nil, "MERIDIAN DAILY BRIEFING")

	mock.ExpectQuery("FROM daily_digests").
		WithArgs(date).
		WillReturnRows(rows)

	digest, err := repo.GetByDate(context.Background(), date)
	require.NoError(t, err)
	require.NotNil(t, digest)
	require.Len(t, digest.PriorityEvents, 1)
	assert.Equal(t, "OPEC cut", digest.PriorityEvents[0]["headline"])
	assert.Equal(t, "MERIDIAN DAILY BRIEFING", digest.FullDigest)
}

func TestThesesRepoListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThesesRepo(db, time.Second)

	status := "watching"
	rows := sqlmock.NewRows([]string{"id", "title", "status", "asset_symbol", "price_change_percent", "updated_at", "created_at"}).
		AddRow(uuid.New(), "Gold breakout on real-rate rollover", status, "GLD", 3.2, time.Now(), time.Now())

	mock.ExpectQuery("NOT IN \\('closed', 'dismissed', 'archived'\\)").
		WithArgs(10).
		WillReturnRows(rows)

	theses, err := repo.ListActive(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, theses, 1)
	assert.Equal(t, "watching", *theses[0].Status)
}
