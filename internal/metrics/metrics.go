// Package metrics содержит коллекторы Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ysrap_orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ysrap_orders_rejected_total",
		Help: "Total number of rejected order placements",
	}, []string{"reason"})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ysrap_order_status_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"status"})

	PickupsVerifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ysrap_pickups_verified_total",
		Help: "Total number of verified pickups",
	})

	EventPublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ysrap_event_publish_failures_total",
		Help: "Total number of order events that failed to publish",
	}, []string{"type"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ysrap_rate_limited_requests_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
