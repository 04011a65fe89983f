package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	appName = "meridian"
	version = "v0.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Macro event intelligence for metals and crypto",
		Version: version,
		Long: `Meridian watches macro news, central-bank communications, the economic
calendar and daily prices, scores what it sees, matches events against a
curated library of historical cases, and composes a daily briefing.`,
		SilenceUsage: true,
	}

	// Accept snake_case spellings of every flag.
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the ingestion pipelines",
	}

	rssCmd := &cobra.Command{
		Use:   "rss",
		Short: "Poll the RSS watch set and score new events",
		RunE:  runIngestRSS,
	}
	rssCmd.Flags().String("feeds", "", "YAML feed list replacing the built-in watch set")
	rssCmd.Flags().Int("interval", 0, "Poll interval in minutes (0 = poll once and exit)")
	rssCmd.Flags().Bool("no-score", false, "Skip the scoring pass after polling")

	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Sync the economic calendar",
		RunE:  runIngestCalendar,
	}
	calendarCmd.Flags().Int("window-days", 0, "Sync horizon in days from today")
	calendarCmd.Flags().String("fixture", "", "Load a local feed-format JSON file instead of the wire feed")
	calendarCmd.Flags().Int("interval", 0, "Sync interval in minutes (0 = sync once and exit)")

	fedCmd := &cobra.Command{
		Use:   "fed",
		Short: "Sync FOMC statements and diff them against the prior release",
		RunE:  runIngestFed,
	}
	fedCmd.Flags().Int("interval", 0, "Sync interval in minutes (0 = sync once and exit)")

	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Ingest daily bars and refresh derived ratios",
		RunE:  runIngestPrices,
	}
	pricesCmd.Flags().Int("lookback-days", 0, "Bar ingest window in days")
	pricesCmd.Flags().Int("interval", 0, "Ingest interval in minutes (0 = ingest once and exit)")

	ingestCmd.AddCommand(rssCmd, calendarCmd, fedCmd, pricesCmd)

	marketContextCmd := &cobra.Command{
		Use:   "market-context",
		Short: "Snapshot the watchlist and classify the market regime",
		RunE:  runMarketContext,
	}
	marketContextCmd.Flags().Int("interval", 0, "Snapshot interval in minutes (0 = snapshot once and exit)")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score unscored events",
		RunE:  runScore,
	}
	scoreCmd.Flags().Int("limit", 0, "Maximum events to score in one pass")
	scoreCmd.Flags().Bool("dry-run", false, "Score without persisting results")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run LLM analysis over unanalyzed priority events",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().Int("limit", 10, "Maximum events to analyze in one batch")
	analyzeCmd.Flags().Bool("overwrite", false, "Re-analyze events that already carry analysis")
	analyzeCmd.Flags().String("provider", "", "Analysis provider: openrouter or local (default by API key)")
	analyzeCmd.Flags().Bool("dry-run", false, "Build prompts without calling the provider or writing")
	analyzeCmd.Flags().Bool("print-prompts", false, "Print every built prompt to stdout")

	similarCmd := &cobra.Command{
		Use:   "similar-cases",
		Short: "Match event text against the historical case library",
		RunE:  runSimilarCases,
	}
	similarCmd.Flags().String("text", "", "Event text to match (required)")
	similarCmd.Flags().String("event-type", "", "Event type hint")
	similarCmd.Flags().Int("limit", 0, "Number of matches to return")
	_ = similarCmd.MarkFlagRequired("text")

	digestCmd := &cobra.Command{
		Use:   "digest",
		Short: "Print the daily briefing, composing it if absent",
		RunE:  runDigest,
	}
	digestCmd.Flags().String("date", "", "Digest date as YYYY-MM-DD (default today UTC)")
	digestCmd.Flags().Bool("rebuild", false, "Recompose even when a cached digest exists")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the curated knowledge files",
	}

	seedCasesCmd := &cobra.Command{
		Use:   "cases",
		Short: "Seed historical cases from a directory of JSON files",
		RunE:  runSeedCases,
	}
	seedCasesCmd.Flags().String("dir", "data/cases", "Case file directory")

	seedMetalsCmd := &cobra.Command{
		Use:   "metals",
		Short: "Seed the metals knowledge base",
		RunE:  runSeedMetals,
	}
	seedMetalsCmd.Flags().String("dir", "data/metals", "Metals file directory")

	seedEmbeddingsCmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Attach precomputed embeddings to stored cases",
		RunE:  runSeedEmbeddings,
	}
	seedEmbeddingsCmd.Flags().String("file", "data/embeddings.json", "Embeddings file")

	seedCmd.AddCommand(seedCasesCmd, seedMetalsCmd, seedEmbeddingsCmd)

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run every pipeline on its schedule until interrupted",
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().Bool("run-all-once", false, "Trigger every job once before the schedule takes over")
	scheduleCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE:  runMigrate,
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Metrics debug helpers",
	}
	metricsCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the registered metric families",
		RunE:  runMetricsDump,
	})

	rootCmd.AddCommand(
		ingestCmd,
		marketContextCmd,
		scoreCmd,
		analyzeCmd,
		similarCmd,
		digestCmd,
		seedCmd,
		scheduleCmd,
		migrateCmd,
		metricsCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
