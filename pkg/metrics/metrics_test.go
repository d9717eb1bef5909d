package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMutationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMutationMetrics(reg)
	metrics.ObserveMutation("add", "committed", 250*time.Millisecond)
	metrics.ObserveMutation("add", "rolled_back", 100*time.Millisecond)
	metrics.ObserveMutation("", "", time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", map[string]string{"op": "add", "outcome": "committed"}); err != nil {
		t.Fatalf("fetch committed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected committed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", map[string]string{"op": "unknown", "outcome": "unknown"}); err != nil {
		t.Fatalf("fetch unknown: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_mutation_duration_seconds", map[string]string{"op": "add"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0.3 {
		t.Fatalf("expected duration sum > 0.3, got %f", got)
	}
}

func TestSummarizeMutations(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMutationMetrics(reg)
	metrics.ObserveMutation("update", "rolled_back", time.Millisecond)
	metrics.ObserveMutation("add", "committed", time.Millisecond)
	metrics.ObserveMutation("add", "committed", time.Millisecond)

	got, err := SummarizeMutations(reg)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	want := []MutationCount{
		{Op: "add", Outcome: "committed", Count: 2},
		{Op: "update", Outcome: "rolled_back", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe(http.MethodGet, "/cart", http.StatusOK, 5*time.Millisecond)
	metrics.Observe(http.MethodGet, "/cart", http.StatusOK, 5*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"method": "GET", "route": "/cart", "status": "200"})
	if err != nil {
		t.Fatalf("fetch requests: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewMutationMetrics(nil).ObserveMutation("add", "committed", time.Second)
	NewHTTPMetrics(nil).Observe(http.MethodGet, "/", http.StatusOK, time.Second)
	var m *MutationMetrics
	m.ObserveMutation("add", "committed", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
