// Package snapshot batches the latest market reads (chart closes plus
// macro series) into one MarketSnapshot, classifies it, and upserts the
// daily market-context row. Per-symbol failures are recorded, never
// fatal.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/ingest/fredapi"
	"github.com/meridianhq/meridian/internal/ingest/prices"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
	"github.com/meridianhq/meridian/internal/regime"
)

// lookbackDays covers weekends and holidays when asking for the latest
// close.
const lookbackDays = 7

// Builder assembles snapshots and persists the classified context.
type Builder struct {
	yahoo *prices.YahooClient
	fred  *fredapi.Client
	repo  persistence.ContextRepo

	// now is a test hook.
	now func() time.Time
}

// NewBuilder wires the snapshot builder.
func NewBuilder(yahoo *prices.YahooClient, fred *fredapi.Client, repo persistence.ContextRepo) *Builder {
	return &Builder{yahoo: yahoo, fred: fred, repo: repo, now: time.Now}
}

// Build fetches every watchlist symbol and macro series and computes the
// cross-market ratios.
func (b *Builder) Build(ctx context.Context) models.MarketSnapshot {
	snapshot := models.MarketSnapshot{
		SnapshotDate: b.now().UTC(),
		YahooPrices:  make(map[string]float64),
		FredValues:   make(map[string]float64),
	}

	for _, symbol := range regime.WatchlistSymbols {
		bar, err := b.yahoo.LatestClose(ctx, symbol, lookbackDays)
		if err != nil {
			snapshot.Errors = append(snapshot.Errors, fmt.Sprintf("%s: %v", symbol, err))
			continue
		}
		if bar == nil || bar.Close == nil {
			snapshot.Errors = append(snapshot.Errors, fmt.Sprintf("%s: no recent close", symbol))
			continue
		}
		snapshot.YahooPrices[symbol] = *bar.Close
	}

	if b.fred.Configured() {
		for _, series := range regime.FredSeries {
			obs, err := b.fred.LatestValue(ctx, series)
			if err != nil {
				snapshot.Errors = append(snapshot.Errors, fmt.Sprintf("%s: %v", series, err))
				continue
			}
			snapshot.FredValues[series] = obs.Value
		}
	} else {
		snapshot.Errors = append(snapshot.Errors, "fred: no API key configured")
	}

	snapshot.CalculatedRatios = regime.ComputeRatios(snapshot.YahooPrices)
	return snapshot
}

// Sync builds a snapshot, classifies it, and upserts today's context row.
func (b *Builder) Sync(ctx context.Context) (*models.MarketContext, error) {
	snapshot := b.Build(ctx)
	if len(snapshot.YahooPrices) == 0 && len(snapshot.FredValues) == 0 {
		return nil, fmt.Errorf("market snapshot: every source failed: %v", snapshot.Errors)
	}
	if len(snapshot.Errors) > 0 {
		log.Warn().Strs("errors", snapshot.Errors).Msg("partial market snapshot")
	}

	mc := regime.BuildContext(snapshot)
	if err := b.repo.Upsert(ctx, mc); err != nil {
		return nil, fmt.Errorf("upsert market context: %w", err)
	}
	metrics.RowsUpserted.WithLabelValues("market_context").Inc()
	log.Info().
		Str("volatility", mc.VolatilityRegime).
		Str("dollar", mc.DollarRegime).
		Str("curve", mc.CurveRegime).
		Str("credit", mc.CreditRegime).
		Float64("size_multiplier", mc.SuggestedSizeMultiplier).
		Msg("market context updated")
	return &mc, nil
}
