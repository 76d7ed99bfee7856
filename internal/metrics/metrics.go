package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultInvalid = "invalid"

	ResultResolved  = "resolved"
	ResultNotFound  = "not_found"
	ResultAmbiguous = "ambiguous"
)

// Metrics holds the collectors for negotiation and facet resolution.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
type Metrics struct {
	negotiationsTotal        *prometheus.CounterVec
	negotiationDuration      prometheus.Histogram
	deprecationWarningsTotal *prometheus.CounterVec
	facetResolutionsTotal    *prometheus.CounterVec
	registeredProviders      *prometheus.GaugeVec
	wiringCyclesTotal        prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		negotiationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latency_negotiations_total",
				Help: "Number of handshake negotiations by result.",
			},
			[]string{"result"},
		),
		negotiationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "latency_negotiation_duration_seconds",
				Help:    "Time taken to negotiate a handshake.",
				Buckets: prometheus.DefBuckets,
			},
		),
		deprecationWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latency_deprecation_warnings_total",
				Help: "Number of deprecation warnings returned by capability.",
			},
			[]string{"capability"},
		),
		facetResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latency_facet_resolutions_total",
				Help: "Number of facet resolutions by facet and result.",
			},
			[]string{"facet", "result"},
		),
		registeredProviders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "latency_facet_registered_providers",
				Help: "Number of providers currently registered per facet.",
			},
			[]string{"facet"},
		),
		wiringCyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "latency_plugin_wiring_cycles_total",
				Help: "Number of circular plugin wirings detected.",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.negotiationsTotal,
		m.negotiationDuration,
		m.deprecationWarningsTotal,
		m.facetResolutionsTotal,
		m.registeredProviders,
		m.wiringCyclesTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveNegotiation(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.negotiationsTotal.WithLabelValues(result).Inc()
	m.negotiationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncDeprecationWarning(capability string) {
	if m == nil {
		return
	}
	m.deprecationWarningsTotal.WithLabelValues(capability).Inc()
}

func (m *Metrics) IncFacetResolution(facet, result string) {
	if m == nil {
		return
	}
	m.facetResolutionsTotal.WithLabelValues(facet, result).Inc()
}

func (m *Metrics) SetRegisteredProviders(facet string, n int) {
	if m == nil {
		return
	}
	m.registeredProviders.WithLabelValues(facet).Set(float64(n))
}

func (m *Metrics) IncWiringCycle() {
	if m == nil {
		return
	}
	m.wiringCyclesTotal.Inc()
}
