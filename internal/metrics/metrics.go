// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are package-level and registered with the default registry via
// promauto, so any package can record into them without plumbing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedCacheHits counts global feed renders served from the cache slot.
	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogfeed_feed_cache_hits_total",
			Help: "Global feed renders served from the cache slot",
		},
	)

	// FeedCacheMisses counts renders that had to be recomputed (empty
	// slot, expired window, other page, or a store failure).
	FeedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogfeed_feed_cache_misses_total",
			Help: "Global feed renders recomputed",
		},
	)

	// FeedCacheStoreErrors counts failed cache backend operations by kind
	// (load, save, clear). The cache fails open, so these never reach users.
	FeedCacheStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogfeed_feed_cache_store_errors_total",
			Help: "Cache backend failures by operation",
		},
		[]string{"op"},
	)

	// HTTPRequestDuration tracks request latency by route pattern and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogfeed_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
