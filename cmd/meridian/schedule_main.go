package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/internal/analysis"
	"github.com/meridianhq/meridian/internal/digest"
	"github.com/meridianhq/meridian/internal/ingest/calendar"
	"github.com/meridianhq/meridian/internal/ingest/fed"
	"github.com/meridianhq/meridian/internal/ingest/fredapi"
	"github.com/meridianhq/meridian/internal/ingest/prices"
	"github.com/meridianhq/meridian/internal/ingest/rss"
	"github.com/meridianhq/meridian/internal/ingest/snapshot"
	"github.com/meridianhq/meridian/internal/regime"
	"github.com/meridianhq/meridian/internal/scheduler"
	"github.com/meridianhq/meridian/internal/score"
)

// analyzeBatchLimit caps LLM spend per scheduled cycle.
const analyzeBatchLimit = 10

func runSchedule(cmd *cobra.Command, _ []string) error {
	runAllOnce, _ := cmd.Flags().GetBool("run-all-once")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	client := app.fetchClient(rssCacheTTL)
	events := app.events()
	calendarRepo := app.calendar()

	poller := rss.NewPoller(client, events, rss.DefaultFeeds)
	pass := score.NewPass(events)
	ffSyncer := calendar.NewSyncer(client, calendarRepo)
	fredClient := fredapi.NewClient(client, app.settings.FredBaseURL, app.settings.FredAPIKey)
	fredSyncer := calendar.NewFredSyncer(fredClient, calendarRepo)
	scraper := fed.NewScraper(client, app.comms())
	ingestor := prices.NewIngestor(client, app.prices())
	builder := snapshot.NewBuilder(prices.NewYahooClient(client), fredClient, app.contexts())
	composer := digest.NewComposer(events, app.prices(), calendarRepo, app.theses(), app.contexts(), app.digests())

	var analyzer *analysis.Analyzer
	if app.settings.OpenRouterAPIKey != "" {
		provider, err := analysis.NewOpenRouter(client, app.settings)
		if err != nil {
			return err
		}
		analyzer = analysis.NewAnalyzer(events, app.metals(), app.cases(), provider)
	} else {
		log.Warn().Msg("no OpenRouter API key; scheduled runs skip event analysis")
	}

	jobs := scheduler.Jobs{
		// News flows straight through scoring, then analysis when an LLM
		// collaborator is configured.
		RSS: func(ctx context.Context) error {
			if _, err := poller.PollOnce(ctx); err != nil {
				return err
			}
			if _, err := pass.Run(ctx, 0, false); err != nil {
				return err
			}
			if analyzer == nil {
				return nil
			}
			_, err := analyzer.RunBatch(ctx, analyzeBatchLimit, false)
			return err
		},
		Calendar: func(ctx context.Context) error {
			if _, err := ffSyncer.SyncForexFactory(ctx, 0); err != nil {
				return err
			}
			if !fredClient.Configured() {
				return nil
			}
			_, err := fredSyncer.Sync(ctx, 0)
			return err
		},
		Fed: func(ctx context.Context) error {
			_, err := scraper.Sync(ctx)
			return err
		},
		Prices: func(ctx context.Context) error {
			if _, err := ingestor.Run(ctx, 0); err != nil {
				return err
			}
			if !fredClient.Configured() {
				return nil
			}
			_, err := prices.NewFredIngestor(fredClient, app.prices()).Run(ctx, regime.FredSeries, 0)
			return err
		},
		MarketContext: func(ctx context.Context) error {
			_, err := builder.Sync(ctx)
			return err
		},
		Digest: func(ctx context.Context) error {
			_, err := composer.GetOrCreate(ctx, time.Now().UTC())
			return err
		},
	}

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sched := scheduler.New(app.settings.Scheduler, jobs)
	sched.RunAllOnStart = runAllOnce
	return sched.Run(cmd.Context())
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}
