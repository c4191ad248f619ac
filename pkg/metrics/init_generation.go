package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGenerationMetrics() {
	r.GenerationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubemesh_generations_total",
			Help: "Total number of mesh generations",
		},
		[]string{"status"},
	)

	r.GenerationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tubemesh_generation_duration_seconds",
			Help:    "End-to-end mesh generation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubemesh_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"stage"},
	)

	r.NodesEmittedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "tubemesh_nodes_emitted_total",
			Help: "Total number of mesh nodes emitted",
		},
	)

	r.ElementsEmitted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubemesh_elements_emitted_total",
			Help: "Total number of mesh elements emitted",
		},
		[]string{"dimension"},
	)

	r.NoticesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubemesh_resolver_notices_total",
			Help: "Total dependent-option-changed notices raised by the resolver",
		},
		[]string{"field"},
	)
}
