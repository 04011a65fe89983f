// Package metrics registers the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchRequests counts terminal fetch outcomes per host.
	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "fetch",
		Name:      "requests_total",
		Help:      "Terminal HTTP fetch outcomes by host and result.",
	}, []string{"host", "result"})

	// FetchRetries counts retry attempts per host.
	FetchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "fetch",
		Name:      "retries_total",
		Help:      "HTTP fetch retry attempts by host.",
	}, []string{"host"})

	// FetchRateLimited counts rate-limit responses per host.
	FetchRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "fetch",
		Name:      "rate_limited_total",
		Help:      "Rate-limit (403/429/503) responses by host.",
	}, []string{"host"})

	// FetchCacheHits counts redis response-cache hits.
	FetchCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "fetch",
		Name:      "cache_hits_total",
		Help:      "GET responses served from the redis response cache.",
	})

	// JobRuns counts scheduler job completions by job id and status.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduled job completions by job id and status.",
	}, []string{"job", "status"})

	// JobDuration observes job wall-clock time.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meridian",
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Scheduled job duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"job"})

	// RowsUpserted counts rows written per table by the ingestors.
	RowsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "ingest",
		Name:      "rows_upserted_total",
		Help:      "Rows written by ingestors, by table.",
	}, []string{"table"})
)
