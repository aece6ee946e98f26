// Package metrics exposes Prometheus counters for the monitor loops.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds the monitor's Prometheus collectors.
type Metrics struct {
	TicksTotal         *prometheus.CounterVec // labels: asset
	AlertsTotal        *prometheus.CounterVec // labels: asset, kind
	FetchFailuresTotal *prometheus.CounterVec // labels: asset
	LockedTicksTotal   *prometheus.CounterVec // labels: asset
	DeliveryErrors     prometheus.Counter
}

// New registers the collectors on a fresh registry and returns both.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_ticks_total",
			Help: "Completed polling ticks per asset.",
		}, []string{"asset"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_alerts_total",
			Help: "Alerts emitted per asset and kind.",
		}, []string{"asset", "kind"}),
		FetchFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_fetch_failures_total",
			Help: "Candle fetches that exhausted every endpoint.",
		}, []string{"asset"}),
		LockedTicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_locked_ticks_total",
			Help: "Ticks suppressed by the once-per-candle lock.",
		}, []string{"asset"}),
		DeliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_delivery_errors_total",
			Help: "Outbound deliveries that failed (not retried).",
		}),
	}
	reg.MustRegister(m.TicksTotal, m.AlertsTotal, m.FetchFailuresTotal,
		m.LockedTicksTotal, m.DeliveryErrors)
	return m, reg
}

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
}
