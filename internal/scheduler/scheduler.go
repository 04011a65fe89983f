// Package scheduler drives the ingestion and composition jobs on
// interval and cron triggers. Jobs of the same id never overlap; every
// job reports its own outcome and a failure in one job never stops the
// scheduler.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/metrics"
)

// Job ids, stable for metrics and logs.
const (
	JobRSS           = "rss_ingestion"
	JobCalendar      = "calendar_sync"
	JobFed           = "fed_sync"
	JobPrices        = "price_ingestion"
	JobMarketContext = "market_context_sync"
	JobDigest        = "digest_generation"
)

// JobFunc is one scheduled unit of work.
type JobFunc func(ctx context.Context) error

// Result is the terminal outcome of one job run.
type Result struct {
	Job      string        `json:"job"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Jobs carries the work the scheduler triggers. Nil entries are skipped.
type Jobs struct {
	RSS           JobFunc
	Calendar      JobFunc
	Fed           JobFunc
	Prices        JobFunc
	MarketContext JobFunc
	Digest        JobFunc
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	jobs     Jobs
	settings config.SchedulerSettings

	// RunAllOnStart triggers every registered job once before the
	// schedule takes over.
	RunAllOnStart bool
}

// New builds a scheduler in the configured timezone, falling back to UTC
// when the timezone does not parse.
func New(settings config.SchedulerSettings, jobs Jobs) *Scheduler {
	location, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		log.Warn().Str("timezone", settings.Timezone).Msg("unknown timezone; using UTC")
		location = time.UTC
	}
	runner := cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{cron: runner, jobs: jobs, settings: settings}
}

// wrap converts a JobFunc into a self-contained cron job.
func wrap(ctx context.Context, id string, fn JobFunc) func() {
	return func() {
		_ = RunJob(ctx, id, fn)
	}
}

// RunJob executes one job and converts any failure, panics included,
// into a Result.
func RunJob(ctx context.Context, id string, fn JobFunc) (result Result) {
	start := time.Now()
	result = Result{Job: id, Status: "ok"}
	defer func() {
		if r := recover(); r != nil {
			result.Status = "error"
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.Duration = time.Since(start)
		metrics.JobRuns.WithLabelValues(id, result.Status).Inc()
		metrics.JobDuration.WithLabelValues(id).Observe(result.Duration.Seconds())
		event := log.Info()
		if result.Status != "ok" {
			event = log.Error()
		}
		event.Str("job", id).Str("status", result.Status).
			Dur("duration", result.Duration).Str("error", result.Error).
			Msg("job finished")
	}()

	if err := fn(ctx); err != nil {
		result.Status = "error"
		result.Error = err.Error()
	}
	return result
}

// schedule registers fn under id; a non-positive interval disables it.
func (s *Scheduler) schedule(ctx context.Context, id string, everyMinutes int, fn JobFunc) error {
	if fn == nil || everyMinutes <= 0 {
		log.Info().Str("job", id).Msg("job disabled")
		return nil
	}
	spec := fmt.Sprintf("@every %dm", everyMinutes)
	if _, err := s.cron.AddFunc(spec, wrap(ctx, id, fn)); err != nil {
		return fmt.Errorf("schedule %s: %w", id, err)
	}
	log.Info().Str("job", id).Str("spec", spec).Msg("job scheduled")
	return nil
}

// Start registers every job and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.schedule(ctx, JobRSS, s.settings.RSSIntervalMinutes, s.jobs.RSS); err != nil {
		return err
	}
	if err := s.schedule(ctx, JobCalendar, s.settings.CalendarIntervalMinutes, s.jobs.Calendar); err != nil {
		return err
	}
	if err := s.schedule(ctx, JobFed, s.settings.FedIntervalMinutes, s.jobs.Fed); err != nil {
		return err
	}
	if err := s.schedule(ctx, JobPrices, s.settings.PricesIntervalMinutes, s.jobs.Prices); err != nil {
		return err
	}
	// Market context refreshes hourly; the digest fires once a day.
	if err := s.schedule(ctx, JobMarketContext, 60, s.jobs.MarketContext); err != nil {
		return err
	}
	if s.jobs.Digest != nil {
		spec := fmt.Sprintf("%d %d * * *", s.settings.DigestMinute, s.settings.DigestHour)
		if _, err := s.cron.AddFunc(spec, wrap(ctx, JobDigest, s.jobs.Digest)); err != nil {
			return fmt.Errorf("schedule %s: %w", JobDigest, err)
		}
		log.Info().Str("job", JobDigest).Str("spec", spec).Msg("job scheduled")
	}

	if s.RunAllOnStart {
		s.runAllOnce(ctx)
	}
	s.cron.Start()
	return nil
}

// runAllOnce triggers every registered job sequentially in data-flow
// order: ingest first, then context, then digest.
func (s *Scheduler) runAllOnce(ctx context.Context) {
	for _, job := range []struct {
		id string
		fn JobFunc
	}{
		{JobRSS, s.jobs.RSS},
		{JobCalendar, s.jobs.Calendar},
		{JobFed, s.jobs.Fed},
		{JobPrices, s.jobs.Prices},
		{JobMarketContext, s.jobs.MarketContext},
		{JobDigest, s.jobs.Digest},
	} {
		if job.fn == nil {
			continue
		}
		RunJob(ctx, job.id, job.fn)
	}
}

// Stop stops new triggers and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Run starts the scheduler and blocks until SIGINT/SIGTERM or context
// cancellation, then stops gracefully.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		log.Info().Msg("context cancelled; shutting down")
	}
	s.Stop()
	return nil
}
