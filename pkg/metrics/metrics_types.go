package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the mesh engine.
type Registry struct {
	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	StageDuration      *prometheus.HistogramVec
	NodesEmittedTotal  prometheus.Counter
	ElementsEmitted    *prometheus.CounterVec
	NoticesTotal       *prometheus.CounterVec

	// Network / junction metrics
	NetworkSegments   prometheus.Histogram
	NetworkNodes      prometheus.Histogram
	JunctionsTotal    *prometheus.CounterVec
	AnnotationGroups  prometheus.Histogram
	TrimSurfacesTotal prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGenerationMetrics()
	r.initNetworkMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
