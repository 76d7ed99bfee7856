// Package graph models the wiring between plugins: which plugin provides a
// facet and which plugin requires it. It is used once at startup to reject
// circular wiring and to order plugin startup.
package graph

import (
	"k8s.io/apimachinery/pkg/util/sets"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/facet"
)

type ProviderNode struct {
	Plugin    string
	Facet     string
	Qualifier string
}

type RequirementNode struct {
	Plugin    string
	Facet     string
	Qualifier string
}

// WiringGraph has an edge A -> B when plugin A requires a facet that plugin B
// provides. A requirement with a qualifier links only to the provider of that
// exact slot. Without a qualifier it links to the plugins chosen by the
// Selector, or to every provider of the facet when no Selector is set.
type WiringGraph struct {
	Providers    []ProviderNode
	Requirements []RequirementNode

	plugins  []string
	edges    map[string][]string
	selector Selector
}

// Selector returns the plugins a requirement without a qualifier is bound
// to: the single winner, or every tied provider when the choice is ambiguous.
type Selector func(facet string) []string

type Option func(*WiringGraph)

// WithSelector limits unqualified requirements to the providers sel returns.
func WithSelector(sel Selector) Option {
	return func(g *WiringGraph) { g.selector = sel }
}

func NewWiringGraph(plugins []latencyv1alpha1.PluginManifest, opts ...Option) *WiringGraph {
	g := &WiringGraph{edges: map[string][]string{}}
	for _, opt := range opts {
		opt(g)
	}

	names := sets.New[string]()
	for _, p := range plugins {
		names.Insert(p.Name)
		for _, prov := range p.Provides {
			g.Providers = append(g.Providers, ProviderNode{Plugin: p.Name, Facet: prov.Facet, Qualifier: prov.Qualifier})
		}
		for _, req := range p.Requires {
			g.Requirements = append(g.Requirements, RequirementNode{Plugin: p.Name, Facet: req.Facet, Qualifier: req.Qualifier})
		}
	}
	g.plugins = sets.List(names)

	targets := map[string]sets.Set[string]{}
	link := func(from, to string) {
		if targets[from] == nil {
			targets[from] = sets.New[string]()
		}
		targets[from].Insert(to)
	}
	for _, req := range g.Requirements {
		if req.Qualifier == "" && g.selector != nil {
			for _, to := range g.selector(req.Facet) {
				if names.Has(to) {
					link(req.Plugin, to)
				}
			}
			continue
		}
		for _, prov := range g.Providers {
			if prov.Facet != req.Facet {
				continue
			}
			if req.Qualifier != "" && prov.Qualifier != req.Qualifier {
				continue
			}
			link(req.Plugin, prov.Plugin)
		}
	}
	for plugin, to := range targets {
		g.edges[plugin] = sets.List(to)
	}
	return g
}

// Plugins returns every plugin name in ascending order.
func (g *WiringGraph) Plugins() []string {
	return append([]string(nil), g.plugins...)
}

// Edges returns the plugins that plugin depends on, in ascending order.
func (g *WiringGraph) Edges(plugin string) []string {
	return append([]string(nil), g.edges[plugin]...)
}

// Validate returns a *facet.ResolutionError of kind ErrCircularDependency for
// the first cycle found, or nil when the wiring is acyclic.
func (g *WiringGraph) Validate() error {
	_, err := g.StartupOrder()
	return err
}

// StartupOrder returns the plugins ordered so that every provider comes before
// the plugins requiring it. Independent plugins keep ascending name order.
func (g *WiringGraph) StartupOrder() ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.plugins))
	var path []string
	var order []string
	var cycle []string

	var dfs func(n string) bool
	dfs = func(n string) bool {
		color[n] = gray
		path = append(path, n)
		for _, m := range g.edges[n] {
			switch color[m] {
			case white:
				if dfs(m) {
					return true
				}
			case gray:
				// m is on the current path; the cycle runs from m back to m.
				cycle = append(append(cycle, path[indexOf(path, m):]...), m)
				return true
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		order = append(order, n)
		return false
	}

	for _, n := range g.plugins {
		if color[n] != white {
			continue
		}
		if dfs(n) {
			return nil, facet.Circular(cycle)
		}
	}
	return order, nil
}

func indexOf(path []string, n string) int {
	for i, p := range path {
		if p == n {
			return i
		}
	}
	return 0
}
