package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/internal/ingest/calendar"
	"github.com/meridianhq/meridian/internal/ingest/fed"
	"github.com/meridianhq/meridian/internal/ingest/fredapi"
	"github.com/meridianhq/meridian/internal/ingest/prices"
	"github.com/meridianhq/meridian/internal/ingest/rss"
	"github.com/meridianhq/meridian/internal/ingest/snapshot"
	"github.com/meridianhq/meridian/internal/regime"
	"github.com/meridianhq/meridian/internal/score"
)

// rssCacheTTL keeps repeat polls of slow-moving feeds off the network.
const rssCacheTTL = 5 * time.Minute

// runEvery repeats fn every interval minutes until the context is
// cancelled, logging cycle failures instead of aborting. A non-positive
// interval runs fn once.
func runEvery(ctx context.Context, intervalMinutes int, name string, fn func(context.Context) error) error {
	if intervalMinutes <= 0 {
		return fn(ctx)
	}
	ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
	defer ticker.Stop()
	for {
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("cycle failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runIngestRSS(cmd *cobra.Command, _ []string) error {
	feedsPath, _ := cmd.Flags().GetString("feeds")
	intervalMinutes, _ := cmd.Flags().GetInt("interval")
	noScore, _ := cmd.Flags().GetBool("no-score")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	feeds := rss.DefaultFeeds
	if feedsPath != "" {
		if feeds, err = rss.LoadFeedsFile(feedsPath); err != nil {
			return err
		}
	}

	events := app.events()
	poller := rss.NewPoller(app.fetchClient(rssCacheTTL), events, feeds)
	pass := score.NewPass(events)

	cycle := func(ctx context.Context) error {
		inserted, err := poller.PollOnce(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("inserted", inserted).Msg("rss poll complete")
		if noScore {
			return nil
		}
		_, err = pass.Run(ctx, 0, false)
		return err
	}

	ctx := cmd.Context()
	if intervalMinutes > 0 && noScore {
		// The poller's own loop carries the idle backoff.
		if err := poller.Run(ctx, time.Duration(intervalMinutes)*time.Minute); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	return runEvery(ctx, intervalMinutes, "rss", cycle)
}

func runIngestCalendar(cmd *cobra.Command, _ []string) error {
	windowDays, _ := cmd.Flags().GetInt("window-days")
	fixture, _ := cmd.Flags().GetString("fixture")
	intervalMinutes, _ := cmd.Flags().GetInt("interval")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	client := app.fetchClient(0)
	repo := app.calendar()
	syncer := calendar.NewSyncer(client, repo)
	fred := fredapi.NewClient(client, app.settings.FredBaseURL, app.settings.FredAPIKey)

	cycle := func(ctx context.Context) error {
		var total int
		var err error
		if fixture != "" {
			total, err = syncer.SyncFixture(ctx, fixture, windowDays)
		} else {
			total, err = syncer.SyncForexFactory(ctx, windowDays)
		}
		if err != nil {
			return err
		}
		if fred.Configured() {
			n, err := calendar.NewFredSyncer(fred, repo).Sync(ctx, windowDays)
			if err != nil {
				return err
			}
			total += n
		} else {
			log.Debug().Msg("no FRED API key; skipping release-date sync")
		}
		fmt.Printf("calendar sync: %d entries\n", total)
		return nil
	}
	return runEvery(cmd.Context(), intervalMinutes, "calendar", cycle)
}

func runIngestFed(cmd *cobra.Command, _ []string) error {
	intervalMinutes, _ := cmd.Flags().GetInt("interval")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	scraper := fed.NewScraper(app.fetchClient(0), app.comms())
	cycle := func(ctx context.Context) error {
		n, err := scraper.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("fed sync: %d new communications\n", n)
		return nil
	}
	return runEvery(cmd.Context(), intervalMinutes, "fed", cycle)
}

func runIngestPrices(cmd *cobra.Command, _ []string) error {
	lookbackDays, _ := cmd.Flags().GetInt("lookback-days")
	intervalMinutes, _ := cmd.Flags().GetInt("interval")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	client := app.fetchClient(0)
	repo := app.prices()
	ingestor := prices.NewIngestor(client, repo)
	fred := fredapi.NewClient(client, app.settings.FredBaseURL, app.settings.FredAPIKey)

	cycle := func(ctx context.Context) error {
		n, err := ingestor.Run(ctx, lookbackDays)
		if err != nil {
			return err
		}
		if fred.Configured() {
			fredRows, err := prices.NewFredIngestor(fred, repo).Run(ctx, regime.FredSeries, lookbackDays)
			if err != nil {
				return err
			}
			n += fredRows
		}
		fmt.Printf("price ingest: %d rows\n", n)
		return nil
	}
	return runEvery(cmd.Context(), intervalMinutes, "prices", cycle)
}

func runMarketContext(cmd *cobra.Command, _ []string) error {
	intervalMinutes, _ := cmd.Flags().GetInt("interval")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	client := app.fetchClient(0)
	builder := snapshot.NewBuilder(
		prices.NewYahooClient(client),
		fredapi.NewClient(client, app.settings.FredBaseURL, app.settings.FredAPIKey),
		app.contexts(),
	)

	cycle := func(ctx context.Context) error {
		mc, err := builder.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("market context %s: vol=%s usd=%s curve=%s credit=%s sizing=%.0f%%\n",
			mc.ContextDate.Format("2006-01-02"),
			mc.VolatilityRegime, mc.DollarRegime, mc.CurveRegime, mc.CreditRegime,
			mc.SuggestedSizeMultiplier*100)
		return nil
	}
	return runEvery(cmd.Context(), intervalMinutes, "market_context", cycle)
}
