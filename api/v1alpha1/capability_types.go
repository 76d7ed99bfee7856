package v1alpha1

// CapabilityConfig declares the prerequisites and deprecation state of one capability.
type CapabilityConfig struct {
	DependsOn  []Capability     `json:"dependsOn,omitempty"`
	Deprecated *DeprecationInfo `json:"deprecated,omitempty"`
}

type DeprecationInfo struct {
	// Since is the package version in which the capability was deprecated.
	Since       string     `json:"since"`
	Replacement Capability `json:"replacement,omitempty"`
	Message     string     `json:"message,omitempty"`
}
