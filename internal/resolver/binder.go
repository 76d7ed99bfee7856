package resolver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/facet"
	"github.com/generacy-ai/latency/internal/graph"
	"github.com/generacy-ai/latency/internal/metrics"
)

var _ Resolver = (*Binder)(nil)

// Binder wraps a facet.Registry and insists on exactly one provider per
// resolution.
type Binder struct {
	registry *facet.Registry
	logger   logr.Logger
	metrics  *metrics.Metrics
}

type BinderOption func(*Binder)

func WithLogger(logger logr.Logger) BinderOption {
	return func(b *Binder) { b.logger = logger }
}

func WithMetrics(m *metrics.Metrics) BinderOption {
	return func(b *Binder) { b.metrics = m }
}

func NewBinder(registry *facet.Registry, opts ...BinderOption) *Binder {
	b := &Binder{registry: registry, logger: logr.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Resolve returns the single provider for facetName.
func (b *Binder) Resolve(facetName, qualifier string) (any, error) {
	reg, err := b.lookup(facetName, qualifier)
	if err != nil {
		return nil, err
	}
	return reg.Provider, nil
}

func (b *Binder) lookup(facetName, qualifier string) (facet.Registration, error) {
	if qualifier != "" {
		reg, ok := b.registry.Lookup(facetName, qualifier)
		if !ok {
			b.metrics.IncFacetResolution(facetName, metrics.ResultNotFound)
			return facet.Registration{}, facet.NotFound(facetName, qualifier)
		}
		b.metrics.IncFacetResolution(facetName, metrics.ResultResolved)
		return reg, nil
	}

	reg, tied, ok := b.registry.Select(facetName)
	if ok {
		b.metrics.IncFacetResolution(facetName, metrics.ResultResolved)
		return reg, nil
	}
	if len(tied) == 0 {
		b.metrics.IncFacetResolution(facetName, metrics.ResultNotFound)
		return facet.Registration{}, facet.NotFound(facetName, "")
	}

	candidates := make([]string, 0, len(tied))
	for _, t := range tied {
		candidates = append(candidates, t.Qualifier)
	}
	sort.Strings(candidates)
	b.metrics.IncFacetResolution(facetName, metrics.ResultAmbiguous)
	return facet.Registration{}, facet.Ambiguous(facetName, candidates)
}

// selectPlugins returns the plugins an unqualified requirement on facetName
// binds to: the strategy winner, or every tied provider when it is ambiguous.
func (b *Binder) selectPlugins(facetName string) []string {
	reg, tied, ok := b.registry.Select(facetName)
	if ok {
		tied = []facet.Registration{reg}
	}
	var plugins []string
	for _, r := range tied {
		if p, isPlugin := r.Provider.(PluginProvider); isPlugin {
			plugins = append(plugins, p.Plugin)
		}
	}
	return plugins
}

// ResolveAll binds every requirement and reports all failures together as an
// aggregate error. Bindings for the requirements that did resolve are
// returned either way.
func (b *Binder) ResolveAll(reqs []Requirement) (Plan, error) {
	plan := Plan{}
	var errs []error
	for _, req := range reqs {
		reg, err := b.lookup(req.Facet, req.Qualifier)
		if err != nil {
			b.logger.Info("unresolved facet requirement", "consumer", req.Consumer, "facet", req.Facet, "qualifier", req.Qualifier, "reason", err.Error())
			errs = append(errs, fmt.Errorf("%s requires %s: %w", req.Consumer, req.Facet, err))
			continue
		}
		plan.Bindings = append(plan.Bindings, Binding{Requirement: req, Provider: reg.Provider, Qualifier: reg.Qualifier})
	}

	sort.Slice(plan.Bindings, func(i, j int) bool {
		a := plan.Bindings[i].Requirement
		c := plan.Bindings[j].Requirement
		if a.Consumer != c.Consumer {
			return a.Consumer < c.Consumer
		}
		if a.Facet != c.Facet {
			return a.Facet < c.Facet
		}
		return a.Qualifier < c.Qualifier
	})

	return plan, utilerrors.NewAggregate(errs)
}

// Bootstrap registers every facet the plugins provide, rejects circular
// wiring, and binds every facet they require.
//
// All problems are collected into one aggregate error instead of stopping at
// the first, so a misconfigured deployment reports everything at once.
func (b *Binder) Bootstrap(plugins []latencyv1alpha1.PluginManifest) (Plan, error) {
	var errs []error

	names := sets.New[string]()
	for _, p := range plugins {
		if names.Has(p.Name) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name))
			continue
		}
		names.Insert(p.Name)

		for _, prov := range p.Provides {
			provider := PluginProvider{Plugin: p.Name, Facet: prov.Facet, Qualifier: prov.Qualifier, Metadata: prov.Metadata}
			if err := b.registry.Register(prov.Facet, provider,
				facet.WithQualifier(prov.Qualifier),
				facet.WithPriority(prov.Priority),
				facet.WithMetadata(prov.Metadata),
			); err != nil {
				errs = append(errs, fmt.Errorf("plugin %s: %w", p.Name, err))
			}
		}
	}

	order, err := graph.NewWiringGraph(plugins, graph.WithSelector(b.selectPlugins)).StartupOrder()
	if err != nil {
		b.metrics.IncWiringCycle()
		b.logger.Error(err, "circular plugin wiring")
		errs = append(errs, err)
	}

	var reqs []Requirement
	for _, p := range plugins {
		for _, r := range p.Requires {
			reqs = append(reqs, Requirement{Consumer: p.Name, Facet: r.Facet, Qualifier: r.Qualifier})
		}
	}
	plan, err := b.ResolveAll(reqs)
	if err != nil {
		var agg utilerrors.Aggregate
		if errors.As(err, &agg) {
			errs = append(errs, agg.Errors()...)
		} else {
			errs = append(errs, err)
		}
	}
	plan.StartupOrder = order

	b.logger.Info("plugin wiring bootstrapped", "plugins", names.Len(), "bindings", len(plan.Bindings), "errors", len(errs))
	return plan, utilerrors.NewAggregate(errs)
}
