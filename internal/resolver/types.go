package resolver

// Requirement names a facet a consumer needs, optionally pinned to a qualifier.
type Requirement struct {
	Consumer  string
	Facet     string
	Qualifier string
}

// PluginProvider is the provider value registered for a plugin-declared facet.
type PluginProvider struct {
	Plugin    string
	Facet     string
	Qualifier string
	Metadata  map[string]string
}

// Plan is the outcome of binding a set of requirements.
type Plan struct {
	// Bindings are sorted by consumer, facet, then qualifier.
	Bindings []Binding
	// StartupOrder lists plugins with providers before their consumers. It is
	// empty when the wiring contains a cycle.
	StartupOrder []string
}

type Binding struct {
	Requirement Requirement
	Provider    any
	// Qualifier is the qualifier of the slot that satisfied the requirement.
	Qualifier string
}
