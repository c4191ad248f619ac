package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.GenerationsTotal == nil {
		t.Error("GenerationsTotal not initialized")
	}
	if r.GenerationDuration == nil {
		t.Error("GenerationDuration not initialized")
	}
	if r.StageDuration == nil {
		t.Error("StageDuration not initialized")
	}
	if r.NodesEmittedTotal == nil {
		t.Error("NodesEmittedTotal not initialized")
	}
	if r.ElementsEmitted == nil {
		t.Error("ElementsEmitted not initialized")
	}
	if r.NoticesTotal == nil {
		t.Error("NoticesTotal not initialized")
	}
	if r.NetworkSegments == nil {
		t.Error("NetworkSegments not initialized")
	}
	if r.JunctionsTotal == nil {
		t.Error("JunctionsTotal not initialized")
	}
	if r.TrimSurfacesTotal == nil {
		t.Error("TrimSurfacesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordGeneration(t *testing.T) {
	r := NewRegistry()

	r.RecordGeneration("ok", 50*time.Millisecond)
	r.RecordGeneration("ok", 100*time.Millisecond)
	r.RecordGeneration("resolve_error", 0)

	counter, err := r.GenerationsTotal.GetMetricWithLabelValues("ok")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordEmission(t *testing.T) {
	r := NewRegistry()

	r.RecordEmission(132, 80, 0)
	r.RecordEmission(132, 80, 12)

	counter, err := r.ElementsEmitted.GetMetricWithLabelValues("3")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 160 {
		t.Errorf("3-D element counter = %v, want 160", metric.Counter.GetValue())
	}

	if err := r.NodesEmittedTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 264 {
		t.Errorf("node counter = %v, want 264", metric.Counter.GetValue())
	}
}

func TestRecordJunction(t *testing.T) {
	r := NewRegistry()

	r.RecordJunction("trifurcation")
	r.RecordJunction("trifurcation")
	r.RecordJunction("pole")

	counter, err := r.JunctionsTotal.GetMetricWithLabelValues("trifurcation")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordNotice(t *testing.T) {
	r := NewRegistry()

	r.RecordNotice("elementsCountAround")

	counter, err := r.NoticesTotal.GetMetricWithLabelValues("elementsCountAround")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	if r.GetPrometheusRegistry() == nil {
		t.Error("GetPrometheusRegistry() returned nil")
	}

	// Registries are independent across instances
	r2 := NewRegistry()
	if r.GetPrometheusRegistry() == r2.GetPrometheusRegistry() {
		t.Error("independent registries should not share a Prometheus registry")
	}
}
