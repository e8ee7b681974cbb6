package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gradesync collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	writes      *prometheus.CounterVec
	subscribers prometheus.Gauge
	broadcasts  prometheus.Counter
	dropped     prometheus.Counter
}

// NewMetrics registers the gradesync collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gradesync_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gradesync_document_writes_total",
			Help: "Grade system document writes by operation",
		}, []string{"op"}),
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gradesync_feed_subscribers",
			Help: "Open feed connections",
		}),
		broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gradesync_feed_broadcasts_total",
			Help: "Snapshots queued to feed subscribers",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "gradesync_feed_dropped_total",
			Help: "Feed subscribers dropped for falling behind",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
