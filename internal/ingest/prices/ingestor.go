// Package prices ingests daily metals bars from the chart endpoint and
// maintains the derived gold/silver ratio series.
package prices

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/fetch"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// CoreSymbols are the metals futures ingested on every run.
var CoreSymbols = []string{"GC=F", "SI=F", "HG=F"}

// OptionalSymbols are best-effort equity proxies.
var OptionalSymbols = []string{"GLD", "SLV", "COPX", "NEM", "GOLD", "FCX"}

// DefaultLookbackDays is the ingest window.
const DefaultLookbackDays = 10

const (
	goldSymbol   = "GC=F"
	silverSymbol = "SI=F"
)

// Ingestor pulls bars and writes the ratio series.
type Ingestor struct {
	yahoo *YahooClient
	repo  persistence.PricesRepo

	// now is a test hook.
	now func() time.Time
}

// NewIngestor wires the price ingestor.
func NewIngestor(client *fetch.Client, repo persistence.PricesRepo) *Ingestor {
	return &Ingestor{yahoo: NewYahooClient(client), repo: repo, now: time.Now}
}

// Run ingests all symbols over the lookback window and refreshes the
// gold/silver ratio. A failing symbol counts zero and the batch
// continues; core failures log at error level, optional at warn.
func (i *Ingestor) Run(ctx context.Context, lookbackDays int) (int, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	end := i.now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)

	total := 0
	for _, symbol := range CoreSymbols {
		n, err := i.ingestSymbol(ctx, symbol, start, end)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("core symbol failed")
			continue
		}
		total += n
	}
	for _, symbol := range OptionalSymbols {
		n, err := i.ingestSymbol(ctx, symbol, start, end)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("optional symbol skipped")
			continue
		}
		total += n
	}

	ratios, err := i.refreshGoldSilverRatio(ctx, end)
	if err != nil {
		return total, err
	}
	log.Info().Int("bars", total).Int("ratios", ratios).Msg("prices ingested")
	return total, nil
}

func (i *Ingestor) ingestSymbol(ctx context.Context, symbol string, start, end time.Time) (int, error) {
	bars, err := i.yahoo.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return 0, err
	}
	for _, bar := range bars {
		if err := i.repo.UpsertBar(ctx, bar); err != nil {
			return 0, fmt.Errorf("upsert bar %s %s: %w", symbol, bar.PriceDate.Format("2006-01-02"), err)
		}
		metrics.RowsUpserted.WithLabelValues("daily_prices").Inc()
	}
	return len(bars), nil
}

// refreshGoldSilverRatio recomputes the ratio on every date both legs
// share in the stored window.
func (i *Ingestor) refreshGoldSilverRatio(ctx context.Context, asOf time.Time) (int, error) {
	window := persistence.TimeRange{
		From: asOf.AddDate(0, 0, -DefaultLookbackDays),
		To:   asOf.AddDate(0, 0, 1),
	}
	gold, err := i.repo.ClosesBySymbol(ctx, goldSymbol, window)
	if err != nil {
		return 0, fmt.Errorf("load gold closes: %w", err)
	}
	silver, err := i.repo.ClosesBySymbol(ctx, silverSymbol, window)
	if err != nil {
		return 0, fmt.Errorf("load silver closes: %w", err)
	}

	dates := make([]string, 0, len(gold))
	for date := range gold {
		if _, ok := silver[date]; ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	written := 0
	for _, date := range dates {
		if silver[date] == 0 {
			continue
		}
		priceDate, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		ratio := models.PriceRatio{
			RatioName:   "gold_silver",
			PriceDate:   priceDate,
			Value:       gold[date] / silver[date],
			BaseSymbol:  goldSymbol,
			QuoteSymbol: silverSymbol,
		}
		if err := i.repo.UpsertRatio(ctx, ratio); err != nil {
			return written, fmt.Errorf("upsert ratio %s: %w", date, err)
		}
		written++
		metrics.RowsUpserted.WithLabelValues("price_ratios").Inc()
	}
	return written, nil
}
