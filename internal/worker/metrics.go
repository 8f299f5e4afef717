package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry            *prometheus.Registry
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	activeRequests      prometheus.Gauge
	filesProcessedTotal prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brandflow_worker_requests_total",
			Help: "Total branding requests consumed by the worker, by final status.",
		}, []string{"status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brandflow_worker_request_duration_seconds",
			Help:    "Total processing duration for each queued branding request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "brandflow_worker_active_requests",
			Help: "Current number of branding requests being processed.",
		}),
		filesProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brandflow_worker_files_processed_total",
			Help: "Total images branded and uploaded by the worker.",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.activeRequests,
		m.filesProcessedTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
