package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/ingest/fredapi"
	"github.com/meridianhq/meridian/internal/metrics"
	"github.com/meridianhq/meridian/internal/models"
	"github.com/meridianhq/meridian/internal/persistence"
)

// fredPacing spaces consecutive series requests.
const fredPacing = 200 * time.Millisecond

// FredIngestor stores macro series observations alongside the daily
// bars, source "fred", close mirrored into adj_close.
type FredIngestor struct {
	fred *fredapi.Client
	repo persistence.PricesRepo

	sleep func(time.Duration)
}

// NewFredIngestor wires the FRED series ingestor.
func NewFredIngestor(fred *fredapi.Client, repo persistence.PricesRepo) *FredIngestor {
	return &FredIngestor{fred: fred, repo: repo, sleep: time.Sleep}
}

// Run ingests up to lookback observations of every series. Per-series
// failures are logged and skipped.
func (f *FredIngestor) Run(ctx context.Context, series []string, lookback int) (int, error) {
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}

	total := 0
	for i, s := range series {
		if i > 0 {
			f.sleep(fredPacing)
		}
		obs, err := f.fred.Observations(ctx, s, lookback)
		if err != nil {
			log.Warn().Err(err).Str("series", s).Msg("fred series skipped")
			continue
		}
		for _, o := range obs {
			value := o.Value
			bar := models.PriceBar{
				Symbol:    s,
				PriceDate: o.Date,
				Close:     &value,
				AdjClose:  &value,
				Source:    "fred",
			}
			if err := f.repo.UpsertBar(ctx, bar); err != nil {
				return total, fmt.Errorf("upsert fred bar %s %s: %w", s, o.Date.Format("2006-01-02"), err)
			}
			metrics.RowsUpserted.WithLabelValues("daily_prices").Inc()
			total++
		}
	}
	log.Info().Int("rows", total).Int("series", len(series)).Msg("fred series ingested")
	return total, nil
}
