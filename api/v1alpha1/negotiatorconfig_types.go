package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// NegotiatorConfig is the bootstrap document for one core.
//
// Example:
//
//	apiVersion: latency.generacy.ai/v1alpha1
//	kind: NegotiatorConfig
//	metadata:
//	  name: generacy
//	spec:
//	  component: generacy
//	  packageVersion: 2.3.0
//	  supportedProtocols: ["1.0.0", "2.0.0"]
//	  capabilities:
//	    telemetry: {}
//	    metrics:
//	      dependsOn: [telemetry]
type NegotiatorConfig struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec NegotiatorConfigSpec `json:"spec"`
}

type NegotiatorConfigSpec struct {
	Component          Component                       `json:"component"`
	PackageVersion     string                          `json:"packageVersion"`
	SupportedProtocols []string                        `json:"supportedProtocols"`
	Capabilities       map[Capability]CapabilityConfig `json:"capabilities,omitempty"`
	// AllowDependencyCycles tolerates cycles in the capability dependency
	// graph instead of failing startup.
	AllowDependencyCycles bool             `json:"allowDependencyCycles,omitempty"`
	FacetResolution       FacetResolution  `json:"facetResolution,omitempty"`
	Plugins               []PluginManifest `json:"plugins,omitempty"`
}

// FacetResolution selects how providers sharing a facet are disambiguated
// when no qualifier is given.
type FacetResolution string

const (
	// FacetResolutionHighestPriority picks the unique highest priority and
	// reports ambiguity on a tie. This is the default.
	FacetResolutionHighestPriority FacetResolution = "HighestPriority"
	// FacetResolutionFirstRegistered breaks priority ties by registration order.
	FacetResolutionFirstRegistered FacetResolution = "FirstRegistered"
)

// PluginManifest declares which facets a plugin provides and which it needs.
type PluginManifest struct {
	Name     string             `json:"name"`
	Provides []FacetProvision   `json:"provides,omitempty"`
	Requires []FacetRequirement `json:"requires,omitempty"`
}

type FacetProvision struct {
	Facet     string            `json:"facet"`
	Qualifier string            `json:"qualifier,omitempty"`
	Priority  int               `json:"priority,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type FacetRequirement struct {
	Facet string `json:"facet"`
	// Qualifier pins a specific provider; empty means any provider of Facet.
	Qualifier string `json:"qualifier,omitempty"`
}
