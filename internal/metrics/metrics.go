// Package metrics holds the prometheus collectors exported by the daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallboard_reconcile_total",
			Help: "Reconciliation attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallboard_reconcile_duration_seconds",
			Help:    "Duration of reconciliation attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	viewActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallboard_view_actions_total",
			Help: "Per-view window actions taken during reconciliation",
		},
		[]string{"action"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallboard_http_requests_total",
			Help: "HTTP settings API requests by route and status class",
		},
		[]string{"route", "status"},
	)

	concealed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wallboard_views_concealed",
		Help: "1 while view windows are concealed by the visibility toggle",
	})
)

func init() {
	prometheus.MustRegister(reconcileTotal)
	prometheus.MustRegister(reconcileDuration)
	prometheus.MustRegister(viewActions)
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(concealed)
}

// ObserveReconcile records one reconciliation attempt.
func ObserveReconcile(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	reconcileTotal.WithLabelValues(operation, outcome).Inc()
	reconcileDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncViewAction counts a per-view action: create, update, navigate, close.
func IncViewAction(action string) {
	viewActions.WithLabelValues(action).Inc()
}

// IncHTTPRequest counts an HTTP API request.
func IncHTTPRequest(route string, status int) {
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	httpRequests.WithLabelValues(route, class).Inc()
}

// SetConcealed records the visibility toggle state.
func SetConcealed(v bool) {
	if v {
		concealed.Set(1)
		return
	}
	concealed.Set(0)
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
