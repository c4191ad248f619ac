// Package metrics exposes Prometheus metrics for the mesh engine. All
// metrics live on a private registry so embedding applications control
// what they export.
package metrics

import (
	"time"
)

// RecordGeneration records one finished generation with its duration.
func (r *Registry) RecordGeneration(status string, duration time.Duration) {
	r.GenerationsTotal.WithLabelValues(status).Inc()
	r.GenerationDuration.Observe(duration.Seconds())
}

// RecordStage records one pipeline stage's duration.
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordEmission records the node and element totals of one generation.
func (r *Registry) RecordEmission(nodes, volumeElements, surfaceElements int) {
	r.NodesEmittedTotal.Add(float64(nodes))
	r.ElementsEmitted.WithLabelValues("3").Add(float64(volumeElements))
	r.ElementsEmitted.WithLabelValues("2").Add(float64(surfaceElements))
}

// RecordNetwork records the size of a parsed network.
func (r *Registry) RecordNetwork(nodes, segments int) {
	r.NetworkNodes.Observe(float64(nodes))
	r.NetworkSegments.Observe(float64(segments))
}

// RecordJunction records one built junction by connector variant.
func (r *Registry) RecordJunction(variant string) {
	r.JunctionsTotal.WithLabelValues(variant).Inc()
}

// RecordNotice records one resolver notice by adjusted field.
func (r *Registry) RecordNotice(field string) {
	r.NoticesTotal.WithLabelValues(field).Inc()
}
