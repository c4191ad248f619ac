package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.NetworkSegments = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tubemesh_network_segments",
			Help:    "Segments per parsed network",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	r.NetworkNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tubemesh_network_nodes",
			Help:    "Nodes per parsed network",
			Buckets: []float64{2, 4, 8, 16, 32, 64, 128},
		},
	)

	r.JunctionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubemesh_junctions_total",
			Help: "Junctions built, by connector variant",
		},
		[]string{"variant"},
	)

	r.AnnotationGroups = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tubemesh_annotation_groups",
			Help:    "Annotation groups populated per generation",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		},
	)

	r.TrimSurfacesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "tubemesh_trim_surfaces_total",
			Help: "Diagnostic trim surfaces emitted",
		},
	)
}
