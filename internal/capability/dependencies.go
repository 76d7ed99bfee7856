package capability

import (
	"k8s.io/apimachinery/pkg/util/sets"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
)

// DependencyReport is the outcome of a one-hop dependency check.
type DependencyReport struct {
	Valid bool
	// Missing maps each requested capability to the prerequisites that were
	// not part of the request. Only non-empty gaps are recorded.
	Missing map[latencyv1alpha1.Capability][]latencyv1alpha1.Capability
}

// ValidateDependencies checks that every direct prerequisite of each requested
// capability is itself requested.
//
// The requested set is not expanded: a prerequisite of a prerequisite is only
// checked when that prerequisite was requested too. Use Expand first to get a
// dependency-complete set.
func (c *Catalog) ValidateDependencies(requested []latencyv1alpha1.Capability) DependencyReport {
	present := sets.New(requested...)
	report := DependencyReport{
		Valid:   true,
		Missing: map[latencyv1alpha1.Capability][]latencyv1alpha1.Capability{},
	}

	for _, name := range sets.List(present) {
		var missing []latencyv1alpha1.Capability
		for _, dep := range c.entries[name].dependsOn {
			if !present.Has(dep) {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			report.Missing[name] = missing
			report.Valid = false
		}
	}
	return report
}

// AllDependencies returns the transitive prerequisites of capability in
// first-discovered order, without duplicates.
//
// A capability already visited contributes nothing further, so the walk
// terminates even when the catalog was built with AllowDependencyCycles.
func (c *Catalog) AllDependencies(capability latencyv1alpha1.Capability) []latencyv1alpha1.Capability {
	return c.AllDependenciesVisited(capability, sets.New[latencyv1alpha1.Capability]())
}

// AllDependenciesVisited is AllDependencies with a caller-seeded visited set.
// Capabilities already in visited are not expanded further, and every
// capability walked is added to it, so one set can be shared across calls.
// A nil visited behaves like an empty one.
func (c *Catalog) AllDependenciesVisited(capability latencyv1alpha1.Capability, visited sets.Set[latencyv1alpha1.Capability]) []latencyv1alpha1.Capability {
	if visited == nil {
		visited = sets.New[latencyv1alpha1.Capability]()
	}
	seen := sets.New[latencyv1alpha1.Capability]()
	var out []latencyv1alpha1.Capability
	c.collectDependencies(capability, visited, seen, &out)
	return out
}

func (c *Catalog) collectDependencies(capability latencyv1alpha1.Capability, visited, seen sets.Set[latencyv1alpha1.Capability], out *[]latencyv1alpha1.Capability) {
	if visited.Has(capability) {
		return
	}
	visited.Insert(capability)

	deps := c.entries[capability].dependsOn
	for _, dep := range deps {
		if !seen.Has(dep) {
			seen.Insert(dep)
			*out = append(*out, dep)
		}
	}
	for _, dep := range deps {
		c.collectDependencies(dep, visited, seen, out)
	}
}

// Expand returns requested (deduplicated, in first-occurrence order) followed
// by every transitive prerequisite not already requested.
func (c *Catalog) Expand(requested []latencyv1alpha1.Capability) []latencyv1alpha1.Capability {
	seen := sets.New[latencyv1alpha1.Capability]()
	out := make([]latencyv1alpha1.Capability, 0, len(requested))
	for _, r := range requested {
		if seen.Has(r) {
			continue
		}
		seen.Insert(r)
		out = append(out, r)
	}

	var extra []latencyv1alpha1.Capability
	for _, r := range out {
		for _, dep := range c.AllDependencies(r) {
			if seen.Has(dep) {
				continue
			}
			seen.Insert(dep)
			extra = append(extra, dep)
		}
	}
	return append(out, extra...)
}
