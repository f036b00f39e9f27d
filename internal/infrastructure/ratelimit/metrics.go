package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	limiterGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_limiter_grants_total",
		Help: "Total number of granted outbound limiter slots",
	}, []string{"limiter"})

	limiterQueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outbound_limiter_queue_length",
		Help: "Callers currently waiting for an outbound limiter slot",
	}, []string{"limiter"})

	limiterWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbound_limiter_wait_seconds",
		Help:    "Time queued callers waited for a slot",
		Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"limiter"})
)
