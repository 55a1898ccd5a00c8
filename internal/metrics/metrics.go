// Package metrics holds the Prometheus collectors of the storefront.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	CatalogPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_pages_fetched_total",
		Help: "Total number of product pages fetched from the store",
	})

	CatalogFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_errors_total",
		Help: "Total number of failed product page fetches",
	})

	CatalogFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fetch_latency_seconds",
		Help:    "Latency of product page fetches",
		Buckets: prometheus.DefBuckets,
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart state transitions",
	}, []string{"action", "result"})

	FavoritesMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "favorites_mutations_total",
		Help: "Total number of favorites state transitions",
	}, []string{"action", "result"})

	GuestEntriesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guest_entries_discarded_total",
		Help: "Total number of corrupted guest session entries dropped on load",
	}, []string{"kind"})

	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of checkout attempts",
	}, []string{"result"})

	OrderEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_events_published_total",
		Help: "Total number of order events written to the broker",
	})

	ConfirmationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_confirmations_sent_total",
		Help: "Total number of order confirmation notices sent",
	})
)

// Result labels a mutation outcome
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
