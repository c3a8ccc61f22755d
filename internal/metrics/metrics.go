// Package metrics exposes Prometheus instrumentation for inventory activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"labstock/pkg/domain"
)

// Metrics bundles the collectors registered for a single store instance.
type Metrics struct {
	registry *prometheus.Registry

	Mutations *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
}

// New registers inventory collectors against a fresh registry. itemCount is
// sampled on scrape so the gauge never drifts from committed state.
func New(itemCount func(domain.Category) int) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labstock_mutations_total",
			Help: "Committed store mutations by category and action.",
		}, []string{"category", "action"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labstock_rejected_operations_total",
			Help: "Operations rejected before any state change, by error kind.",
		}, []string{"kind"}),
	}
	registry.MustRegister(m.Mutations, m.Rejected)

	for _, c := range domain.Categories {
		category := c
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "labstock_items",
			Help:        "Items currently tracked per category.",
			ConstLabels: prometheus.Labels{"category": string(category)},
		}, func() float64 { return float64(itemCount(category)) }))
	}
	return m
}

// Handler returns the scrape endpoint for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMutation records a committed mutation.
func (m *Metrics) ObserveMutation(c domain.Category, action string) {
	m.Mutations.WithLabelValues(string(c), action).Inc()
}

// ObserveRejection records a rejected operation by error kind.
func (m *Metrics) ObserveRejection(kind string) {
	m.Rejected.WithLabelValues(kind).Inc()
}
