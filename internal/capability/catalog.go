package capability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/semver"
)

// Catalog is the read-only map from capability to its configuration.
//
// A Catalog is built once at startup and never mutated afterwards, so it can
// be shared between goroutines without synchronization.
type Catalog struct {
	entries map[latencyv1alpha1.Capability]entry
	// names holds every declared capability in ascending order.
	names []latencyv1alpha1.Capability
}

type entry struct {
	dependsOn  []latencyv1alpha1.Capability
	deprecated *latencyv1alpha1.DeprecationInfo
}

type catalogOptions struct {
	allowCycles bool
	logger      logr.Logger
}

type CatalogOption func(*catalogOptions)

// AllowDependencyCycles accepts a catalog whose dependency graph contains a
// cycle. The cycle is logged and AllDependencies still terminates on it.
func AllowDependencyCycles() CatalogOption {
	return func(o *catalogOptions) { o.allowCycles = true }
}

func WithCatalogLogger(logger logr.Logger) CatalogOption {
	return func(o *catalogOptions) { o.logger = logger }
}

// NewCatalog validates configs and returns an immutable Catalog.
//
// Every dependency and replacement must name a declared capability, and
// deprecation versions must be valid semver. Dependency cycles are rejected
// unless AllowDependencyCycles is given.
func NewCatalog(configs map[latencyv1alpha1.Capability]latencyv1alpha1.CapabilityConfig, opts ...CatalogOption) (*Catalog, error) {
	o := catalogOptions{logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Catalog{
		entries: make(map[latencyv1alpha1.Capability]entry, len(configs)),
		names:   make([]latencyv1alpha1.Capability, 0, len(configs)),
	}
	for name, cfg := range configs {
		if strings.TrimSpace(string(name)) == "" {
			return nil, fmt.Errorf("%w: empty capability name", ErrInvalidCatalog)
		}
		e := entry{dependsOn: append([]latencyv1alpha1.Capability(nil), cfg.DependsOn...)}
		if cfg.Deprecated != nil {
			info := *cfg.Deprecated
			e.deprecated = &info
		}
		c.entries[name] = e
		c.names = append(c.names, name)
	}
	sort.Slice(c.names, func(i, j int) bool { return c.names[i] < c.names[j] })

	for _, name := range c.names {
		e := c.entries[name]
		for _, dep := range e.dependsOn {
			if _, ok := c.entries[dep]; !ok {
				return nil, fmt.Errorf("%w: %q depends on undeclared capability %q", ErrInvalidCatalog, name, dep)
			}
		}
		if e.deprecated == nil {
			continue
		}
		if !semver.Valid(e.deprecated.Since) {
			return nil, fmt.Errorf("%w: %q has invalid deprecation version %q", ErrInvalidCatalog, name, e.deprecated.Since)
		}
		if r := e.deprecated.Replacement; r != "" {
			if _, ok := c.entries[r]; !ok {
				return nil, fmt.Errorf("%w: %q names undeclared replacement %q", ErrInvalidCatalog, name, r)
			}
		}
	}

	if cycle := c.findCycle(); cycle != nil {
		if !o.allowCycles {
			return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, joinCapabilities(cycle, " -> "))
		}
		o.logger.Info("capability catalog contains a dependency cycle", "cycle", joinCapabilities(cycle, " -> "))
	}

	return c, nil
}

// Has reports whether c is declared in the catalog.
func (c *Catalog) Has(capability latencyv1alpha1.Capability) bool {
	_, ok := c.entries[capability]
	return ok
}

// Capabilities returns every declared capability in ascending order.
func (c *Catalog) Capabilities() []latencyv1alpha1.Capability {
	return append([]latencyv1alpha1.Capability(nil), c.names...)
}

// DependsOn returns the direct prerequisites of capability.
func (c *Catalog) DependsOn(capability latencyv1alpha1.Capability) []latencyv1alpha1.Capability {
	return append([]latencyv1alpha1.Capability(nil), c.entries[capability].dependsOn...)
}

func (c *Catalog) IsDeprecated(capability latencyv1alpha1.Capability) bool {
	return c.entries[capability].deprecated != nil
}

func (c *Catalog) DeprecationInfo(capability latencyv1alpha1.Capability) (latencyv1alpha1.DeprecationInfo, bool) {
	d := c.entries[capability].deprecated
	if d == nil {
		return latencyv1alpha1.DeprecationInfo{}, false
	}
	return *d, true
}

// DeprecationMessages returns the advisory text for every deprecated capability.
func (c *Catalog) DeprecationMessages() map[latencyv1alpha1.Capability]string {
	out := make(map[latencyv1alpha1.Capability]string)
	for _, name := range c.names {
		d := c.entries[name].deprecated
		if d == nil {
			continue
		}
		out[name] = deprecationMessage(name, *d)
	}
	return out
}

func deprecationMessage(name latencyv1alpha1.Capability, d latencyv1alpha1.DeprecationInfo) string {
	if d.Message != "" {
		return d.Message
	}
	msg := fmt.Sprintf("capability %q is deprecated since %s", name, d.Since)
	if d.Replacement != "" {
		msg += fmt.Sprintf("; use %q instead", d.Replacement)
	}
	return msg
}

// findCycle returns the first dependency cycle found walking capabilities in
// ascending order, as a path whose first and last elements are equal.
func (c *Catalog) findCycle() []latencyv1alpha1.Capability {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[latencyv1alpha1.Capability]int, len(c.names))
	var stack []latencyv1alpha1.Capability
	var cycle []latencyv1alpha1.Capability

	var dfs func(n latencyv1alpha1.Capability) bool
	dfs = func(n latencyv1alpha1.Capability) bool {
		color[n] = gray
		stack = append(stack, n)
		for _, dep := range c.entries[n].dependsOn {
			switch color[dep] {
			case white:
				if dfs(dep) {
					return true
				}
			case gray:
				for i, s := range stack {
					if s == dep {
						cycle = append(cycle, stack[i:]...)
						cycle = append(cycle, dep)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, name := range c.names {
		if color[name] == white && dfs(name) {
			return cycle
		}
	}
	return nil
}

func joinCapabilities(caps []latencyv1alpha1.Capability, sep string) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, sep)
}
