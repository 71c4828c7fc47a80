package factory

import (
	"net/http"

	"github.com/mikey/linkguard/internal/config"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsFactory owns the Prometheus registry
type MetricsFactory struct {
	enabled  bool
	registry *prometheus.Registry
}

// NewMetricsFactory creates a new metrics factory
func NewMetricsFactory(cfg *config.Config) *MetricsFactory {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &MetricsFactory{
		enabled:  cfg.GetServer().MetricsEnabled,
		registry: registry,
	}
}

// CreateRecorder returns a Prometheus recorder, or a no-op one when
// metrics are disabled
func (f *MetricsFactory) CreateRecorder() core.Recorder {
	if !f.enabled {
		return core.NopRecorder{}
	}
	return metrics.NewRecorder(f.registry)
}

// Handler returns the /metrics handler, or nil when metrics are disabled
func (f *MetricsFactory) Handler() http.Handler {
	if !f.enabled {
		return nil
	}
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
}
