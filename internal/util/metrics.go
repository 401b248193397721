package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout attempts started",
	})

	CheckoutCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_completed_total",
		Help: "Total number of checkouts that produced an order",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkout attempts",
	}, []string{"reason"})

	DroppedCartLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_dropped_cart_lines_total",
		Help: "Cart lines dropped because the catalog has no such product",
	})

	ShippingQuoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shipping_quote_latency_seconds",
		Help:    "Latency of shipping rate requests",
		Buckets: prometheus.DefBuckets,
	})

	TicketRegistrationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shipping_ticket_latency_seconds",
		Help:    "Latency of shipping ticket registration",
		Buckets: prometheus.DefBuckets,
	})

	GatewaySessionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_session_latency_seconds",
		Help:    "Latency of checkout session creation at the payment gateway",
		Buckets: prometheus.DefBuckets,
	})

	GatewayCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Payment gateway calls by operation and result",
	}, []string{"operation", "result"})

	CatalogSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_total",
		Help: "Catalog events mirrored to the payment gateway",
	}, []string{"operation", "result"})

	CatalogCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog lookups served from Redis",
	})

	CatalogCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Catalog lookups that fell back to the database",
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
