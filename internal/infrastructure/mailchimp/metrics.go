package mailchimp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mailchimp_requests_total",
		Help: "Total number of Mailchimp API requests by method and status",
	}, []string{"method", "status"})

	clientDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mailchimp_request_duration_seconds",
		Help:    "Mailchimp API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
