package expiring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_cache_hits_total",
		Help: "Total number of in-memory cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_cache_misses_total",
		Help: "Total number of in-memory cache misses (absent or expired)",
	})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_cache_evictions_total",
		Help: "Total number of entries removed from the in-memory cache",
	}, []string{"reason"}) // "expired", "deleted", "sweep"

	cacheProducerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_cache_producer_failures_total",
		Help: "Total number of failed getOrSet producer calls",
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_cache_entries",
		Help: "Entries held after the last sweep",
	})
)
