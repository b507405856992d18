// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docbrief"

var (
	// SummariesTotal counts produced summaries by method and provider.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Total number of produced summaries",
		},
		[]string{"method", "provider"},
	)

	// ProviderDuration measures remote model calls.
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of AI provider requests in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "status"},
	)

	// ExtractionsTotal counts document extractions by format and outcome.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of document text extractions",
		},
		[]string{"format", "status"},
	)

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of handled HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// HousekeepingRemoved counts rows and files removed by scheduled jobs.
	HousekeepingRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "housekeeping_removed_total",
			Help:      "Total number of expired items removed by housekeeping",
		},
		[]string{"kind"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordSummary(method, provider string) {
	if provider == "" {
		provider = "none"
	}
	SummariesTotal.WithLabelValues(method, provider).Inc()
}

func RecordProviderRequest(provider string, err error, d time.Duration) {
	ProviderDuration.WithLabelValues(provider, status(err)).Observe(d.Seconds())
}

func RecordExtraction(format string, err error) {
	ExtractionsTotal.WithLabelValues(format, status(err)).Inc()
}

func RecordHTTPRequest(method, route string, code int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

func RecordHousekeeping(kind string, removed int64) {
	if removed > 0 {
		HousekeepingRemoved.WithLabelValues(kind).Add(float64(removed))
	}
}
