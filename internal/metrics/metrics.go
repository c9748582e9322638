// Package metrics exposes counters for the refresh loops and workflows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the client's Prometheus collectors.
type Registry struct {
	registry      *prometheus.Registry
	refreshTotal  *prometheus.CounterVec
	workflowTotal *prometheus.CounterVec
	listingsGauge prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Registry {
	refresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridmarket_cache_refresh_total",
		Help: "Cache refresh ticks by cache name and result",
	}, []string{"cache", "result"})

	workflow := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridmarket_workflow_total",
		Help: "Terminal workflow outcomes by kind and result",
	}, []string{"kind", "result"})

	listings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridmarket_active_listings",
		Help: "Active listings in the latest snapshot",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(refresh, workflow, listings)

	return &Registry{
		registry:      r,
		refreshTotal:  refresh,
		workflowTotal: workflow,
		listingsGauge: listings,
	}
}

// Handler serves the registry over HTTP.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncRefresh records one refresh tick.
func (r *Registry) IncRefresh(cache, result string) {
	r.refreshTotal.WithLabelValues(cache, result).Inc()
}

// IncWorkflow records one terminal workflow outcome.
func (r *Registry) IncWorkflow(kind, result string) {
	r.workflowTotal.WithLabelValues(kind, result).Inc()
}

// SetActiveListings records the size of the latest snapshot.
func (r *Registry) SetActiveListings(n int) {
	r.listingsGauge.Set(float64(n))
}
