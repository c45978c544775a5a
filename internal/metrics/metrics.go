// Package metrics holds the Prometheus collectors shared by the client
// runner and the dev server.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "offlinedesk"

var (
	once sync.Once

	syncItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_items_total",
			Help:      "Queued operations processed by the sync engine, by outcome.",
		},
		[]string{"status"},
	)

	syncRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Queue drain passes started.",
		},
	)

	queuePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_pending",
			Help:      "Pending operations in the offline queue after the last pass.",
		},
	)

	fetchSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Reads served by the access layer, by source.",
		},
		[]string{"source"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled by the server.",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Register registers collectors with the default registerer. Safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(syncItems, syncRuns, queuePending, fetchSource, httpRequests, httpDuration)
	})
}

// IncSyncItem counts one processed queue item.
func IncSyncItem(status string) {
	syncItems.WithLabelValues(status).Inc()
}

// IncSyncRun counts one drain pass.
func IncSyncRun() {
	syncRuns.Inc()
}

// SetQueuePending sets the pending gauge.
func SetQueuePending(n int) {
	queuePending.Set(float64(n))
}

// IncFetch counts a read by source ("cache" or "network").
func IncFetch(source string) {
	fetchSource.WithLabelValues(source).Inc()
}

// ObserveHTTP records a served request.
func ObserveHTTP(method, route string, code int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
