// Package persistence defines the storage contracts the pipeline
// components depend on. The postgres subpackage is the only
// implementation; tests substitute these interfaces directly.
package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meridianhq/meridian/internal/models"
)

// TimeRange is a half-open [From, To) window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// EventsRepo persists macro events through their lifecycle: inserted new
// by the ingestors, scored by the significance pass, annotated by the
// analysis pass.
type EventsRepo interface {
	// InsertIgnore stores a new event, silently skipping duplicates of
	// (source, headline, published_at). Returns true when a row was written.
	InsertIgnore(ctx context.Context, event models.MacroEvent) (bool, error)

	// ListUnscored returns events with a null significance score, oldest
	// first by published_at (nulls last) then created_at.
	ListUnscored(ctx context.Context, limit int) ([]models.MacroEvent, error)

	// UpdateScore attaches the significance result to an event.
	UpdateScore(ctx context.Context, id uuid.UUID, total int, components map[string]int, priority bool) error

	// ListPriorityUnanalyzed returns priority events with no analysis
	// columns set, newest first.
	ListPriorityUnanalyzed(ctx context.Context, limit int) ([]models.MacroEvent, error)

	// ListPriority returns priority events regardless of analysis state.
	ListPriority(ctx context.Context, limit int) ([]models.MacroEvent, error)

	// GetByID fetches a single event, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.MacroEvent, error)

	// UpdateAnalysis attaches the structured interpretation. When overwrite
	// is false only events with all analysis columns still null are
	// touched; returns true when a row was updated.
	UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis models.MacroEvent, overwrite bool) (bool, error)

	// ListPriorityInWindow returns up to limit priority events whose
	// published_at (created_at when null) falls in the window, ordered by
	// significance desc then recency.
	ListPriorityInWindow(ctx context.Context, tr TimeRange, limit int) ([]models.MacroEvent, error)
}

// CasesRepo persists curated historical cases and serves both matcher paths.
type CasesRepo interface {
	// Upsert writes a case on (event_name, date_range), preserving
	// existing embedding/quantitative columns when the incoming values
	// are null.
	Upsert(ctx context.Context, c models.HistoricalCase) error

	// All returns every case (fallback matcher input).
	All(ctx context.Context) ([]models.HistoricalCase, error)

	// SimilarByEmbedding returns the top-k nearest cases under L2 with
	// their distances. Cases without embeddings are excluded.
	SimilarByEmbedding(ctx context.Context, embedding []float32, limit int) ([]models.HistoricalMatch, error)

	// TopByEventType returns the highest-significance cases, optionally
	// filtered by event type.
	TopByEventType(ctx context.Context, eventType string, limit int) ([]models.HistoricalCase, error)

	// UpdateEmbedding sets the vector for one (event_name, date_range);
	// returns true when a row matched.
	UpdateEmbedding(ctx context.Context, eventName, dateRange string, embedding []float32) (bool, error)
}

// MetalsRepo persists the metals knowledge base.
type MetalsRepo interface {
	Upsert(ctx context.Context, entry models.MetalsKnowledge) error
	All(ctx context.Context) ([]models.MetalsKnowledge, error)
}

// CommsRepo persists central-bank communications.
type CommsRepo interface {
	// Exists reports whether a comm for (bank, comm_type, published_at)
	// is already stored.
	Exists(ctx context.Context, bank, commType string, publishedAt time.Time) (bool, error)

	// LatestBefore returns the most recent earlier comm of the same
	// (bank, comm_type), nil when none.
	LatestBefore(ctx context.Context, bank, commType string, before time.Time) (*models.CentralBankComm, error)

	Insert(ctx context.Context, comm models.CentralBankComm) error
}

// CalendarRepo persists economic calendar entries.
type CalendarRepo interface {
	// Upsert writes an entry on (event_name, event_date, region).
	Upsert(ctx context.Context, event models.EconomicEvent) error

	// HighImpactInWindow returns high-impact entries in [From, To)
	// ascending by time then name.
	HighImpactInWindow(ctx context.Context, tr TimeRange) ([]models.EconomicEvent, error)
}

// PricesRepo persists daily bars and derived ratios.
type PricesRepo interface {
	UpsertBar(ctx context.Context, bar models.PriceBar) error
	UpsertRatio(ctx context.Context, ratio models.PriceRatio) error

	// LatestCloses returns up to n most recent closes for symbol on or
	// before asOf, newest first.
	LatestCloses(ctx context.Context, symbol string, asOf time.Time, n int) ([]models.PriceBar, error)

	// LatestRatios returns up to n most recent values for ratioName on or
	// before asOf, newest first.
	LatestRatios(ctx context.Context, ratioName string, asOf time.Time, n int) ([]models.PriceRatio, error)

	// ClosesBySymbol returns date→close for symbol within [From, To].
	ClosesBySymbol(ctx context.Context, symbol string, tr TimeRange) (map[string]float64, error)
}

// ContextRepo persists the per-date market context rows.
type ContextRepo interface {
	Upsert(ctx context.Context, mc models.MarketContext) error
	Latest(ctx context.Context) (*models.MarketContext, error)
}

// DigestsRepo persists the cached daily digests.
type DigestsRepo interface {
	GetByDate(ctx context.Context, date time.Time) (*models.DailyDigest, error)
	Upsert(ctx context.Context, digest models.DailyDigest) error
}

// ThesesRepo reads the thesis workspace (external collaborator data).
type ThesesRepo interface {
	// ListActive returns theses whose status is absent or not in
	// {closed, dismissed, archived}, most recently updated first.
	ListActive(ctx context.Context, limit int) ([]models.Thesis, error)
}
