package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestMetrics_Record(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.ObserveNegotiation(ResultSuccess, 5*time.Millisecond)
	m.ObserveNegotiation(ResultSuccess, time.Millisecond)
	m.ObserveNegotiation(ResultFailure, time.Millisecond)
	m.IncFacetResolution("IssueTracker", ResultAmbiguous)
	m.SetRegisteredProviders("IssueTracker", 2)
	m.IncWiringCycle()

	if got := testutil.ToFloat64(m.negotiationsTotal.WithLabelValues(ResultSuccess)); got != 2 {
		t.Fatalf("success negotiations=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.facetResolutionsTotal.WithLabelValues("IssueTracker", ResultAmbiguous)); got != 1 {
		t.Fatalf("ambiguous resolutions=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.registeredProviders.WithLabelValues("IssueTracker")); got != 2 {
		t.Fatalf("registered providers=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.wiringCyclesTotal); got != 1 {
		t.Fatalf("wiring cycles=%v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveNegotiation(ResultSuccess, time.Second)
	m.IncDeprecationWarning("legacy-log")
	m.IncFacetResolution("IssueTracker", ResultResolved)
	m.SetRegisteredProviders("IssueTracker", 1)
	m.IncWiringCycle()
}
