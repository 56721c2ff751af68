package http

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chitfund_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	paymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitfund_payments_recorded_total",
		Help: "Payments recorded, by payment type.",
	}, []string{"type"})

	auctionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chitfund_auctions_recorded_total",
		Help: "Winning bids recorded on auction chit slots.",
	})

	reportCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitfund_report_cache_requests_total",
		Help: "Monthly report cache lookups, by outcome.",
	}, []string{"outcome"})
)

func observeRequest(method string, status int, seconds float64) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(seconds)
}
