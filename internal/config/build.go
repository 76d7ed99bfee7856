package config

import (
	"fmt"

	"github.com/go-logr/logr"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/capability"
	"github.com/generacy-ai/latency/internal/facet"
	"github.com/generacy-ai/latency/internal/metrics"
	"github.com/generacy-ai/latency/internal/negotiation"
	"github.com/generacy-ai/latency/internal/resolver"
)

// Runtime is the set of components a NegotiatorConfig describes.
type Runtime struct {
	Catalog    *capability.Catalog
	Negotiator *negotiation.Negotiator
	Registry   *facet.Registry
	Binder     *resolver.Binder

	plugins []latencyv1alpha1.PluginManifest
}

// Build constructs the components for cfg. Plugins are not registered until
// Bootstrap is called.
func Build(cfg *latencyv1alpha1.NegotiatorConfig, logger logr.Logger, m *metrics.Metrics) (*Runtime, error) {
	catalogOpts := []capability.CatalogOption{capability.WithCatalogLogger(logger.WithName("catalog"))}
	if cfg.Spec.AllowDependencyCycles {
		catalogOpts = append(catalogOpts, capability.AllowDependencyCycles())
	}
	catalog, err := capability.NewCatalog(cfg.Spec.Capabilities, catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("config: build catalog: %w", err)
	}

	negotiator, err := negotiation.NewNegotiator(catalog, cfg.Spec.SupportedProtocols,
		negotiation.WithLogger(logger.WithName("negotiator")),
		negotiation.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("config: build negotiator: %w", err)
	}

	strategy, err := Strategy(cfg.Spec.FacetResolution)
	if err != nil {
		return nil, err
	}
	registry := facet.NewRegistry(
		facet.WithStrategy(strategy),
		facet.WithLogger(logger.WithName("registry")),
		facet.WithMetrics(m),
	)

	return &Runtime{
		Catalog:    catalog,
		Negotiator: negotiator,
		Registry:   registry,
		Binder:     resolver.NewBinder(registry, resolver.WithLogger(logger.WithName("binder")), resolver.WithMetrics(m)),
		plugins:    cfg.Spec.Plugins,
	}, nil
}

// Bootstrap registers and wires the configured plugins.
func (r *Runtime) Bootstrap() (resolver.Plan, error) {
	return r.Binder.Bootstrap(r.plugins)
}

// Strategy maps a FacetResolution to the registry selection strategy. The
// empty value selects the default.
func Strategy(res latencyv1alpha1.FacetResolution) (facet.Strategy, error) {
	switch res {
	case "", latencyv1alpha1.FacetResolutionHighestPriority:
		return facet.HighestPriority, nil
	case latencyv1alpha1.FacetResolutionFirstRegistered:
		return facet.HighestPriorityFirstRegistered, nil
	}
	return nil, fmt.Errorf("%w: unknown facet resolution %q", ErrInvalidConfig, res)
}
