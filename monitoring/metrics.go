package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RevenueSharedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revenue_shared_total",
			Help: "Total amount credited to referrers",
		},
	)

	WithdrawalsRequestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_requested_total",
			Help: "Total number of withdrawal requests by outcome",
		},
		[]string{"outcome"},
	)
)
