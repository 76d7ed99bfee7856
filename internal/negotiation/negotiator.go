package negotiation

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/capability"
	"github.com/generacy-ai/latency/internal/metrics"
	"github.com/generacy-ai/latency/internal/semver"
)

var (
	ErrInvalidRequest       = errors.New("negotiation: invalid handshake request")
	ErrInvalidConfiguration = errors.New("negotiation: invalid configuration")
)

// Negotiator answers handshake requests for one core.
//
// A Negotiator holds no mutable state after construction and may be used
// from many goroutines.
type Negotiator struct {
	catalog    *capability.Catalog
	supported  []string
	deprecated map[latencyv1alpha1.Capability]string
	logger     logr.Logger
	metrics    *metrics.Metrics
}

type Option func(*Negotiator)

func WithLogger(logger logr.Logger) Option {
	return func(n *Negotiator) { n.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Negotiator) { n.metrics = m }
}

// NewNegotiator builds a Negotiator offering supportedProtocols and the
// capabilities declared in catalog.
func NewNegotiator(catalog *capability.Catalog, supportedProtocols []string, opts ...Option) (*Negotiator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", ErrInvalidConfiguration)
	}
	if len(supportedProtocols) == 0 {
		return nil, fmt.Errorf("%w: at least one supported protocol is required", ErrInvalidConfiguration)
	}
	for _, p := range supportedProtocols {
		if !semver.Valid(p) {
			return nil, fmt.Errorf("%w: supported protocol %q is not a semantic version", ErrInvalidConfiguration, p)
		}
	}

	n := &Negotiator{
		catalog:    catalog,
		supported:  append([]string(nil), supportedProtocols...),
		deprecated: catalog.DeprecationMessages(),
		logger:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// SupportedProtocols returns the protocol versions this side offers.
func (n *Negotiator) SupportedProtocols() []string {
	return append([]string(nil), n.supported...)
}

// Handshake negotiates a protocol version and capability set for req.
//
// A malformed request is returned as an error wrapping ErrInvalidRequest. No
// mutual protocol version is not an error: it yields a *Failure result.
func (n *Negotiator) Handshake(req latencyv1alpha1.HandshakeRequest) (Result, error) {
	start := time.Now()
	logger := n.logger.WithValues("component", req.Component, "packageVersion", req.PackageVersion)

	if errs := ValidateRequest(req); len(errs) > 0 {
		n.metrics.ObserveNegotiation(metrics.ResultInvalid, time.Since(start))
		logger.Info("rejected handshake request", "reason", errs.ToAggregate().Error())
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, errs.ToAggregate())
	}

	selected, ok := Negotiate(req.SupportedProtocols, n.supported)
	if !ok {
		n.metrics.ObserveNegotiation(metrics.ResultFailure, time.Since(start))
		logger.Info("no mutually supported protocol version", "requested", req.SupportedProtocols, "available", n.supported)
		return NewFailure(req.SupportedProtocols, n.supported), nil
	}

	known := make([]latencyv1alpha1.Capability, 0, len(req.Capabilities))
	unknown := sets.New[latencyv1alpha1.Capability]()
	for _, c := range req.Capabilities {
		if n.catalog.Has(c) {
			known = append(known, c)
			continue
		}
		unknown.Insert(c)
	}
	if unknown.Len() > 0 {
		logger.V(1).Info("ignoring capabilities missing from the catalog", "capabilities", sets.List(unknown))
	}

	granted := n.catalog.Expand(known)
	if report := n.catalog.ValidateDependencies(granted); !report.Valid {
		// Expand returns a dependency-complete set, so this only happens if
		// the catalog itself is inconsistent.
		return nil, fmt.Errorf("negotiation: capability set %v has missing dependencies %v", granted, report.Missing)
	}

	deprecatedCaps, warnings := deprecationWarnings(req.Capabilities, n.deprecated)
	for _, c := range deprecatedCaps {
		n.metrics.IncDeprecationWarning(string(c))
	}

	n.metrics.ObserveNegotiation(metrics.ResultSuccess, time.Since(start))
	logger.Info("negotiated handshake", "protocol", selected, "capabilities", granted, "warnings", len(warnings))
	return NewSuccess(selected, granted, warnings), nil
}
