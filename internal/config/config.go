// Package config loads the NegotiatorConfig bootstrap document and builds the
// negotiator, facet registry and binder it describes.
package config

import (
	"errors"
	"fmt"
	"os"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/semver"
)

// ConfigMapKey is the ConfigMap data key holding the document.
const ConfigMapKey = "config.yaml"

var ErrInvalidConfig = errors.New("config: invalid negotiator config")

// Load reads and parses the document at path.
func Load(path string) (*latencyv1alpha1.NegotiatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// FromConfigMap parses the document stored under ConfigMapKey.
func FromConfigMap(cm *corev1.ConfigMap) (*latencyv1alpha1.NegotiatorConfig, error) {
	if cm == nil {
		return nil, fmt.Errorf("%w: configmap is nil", ErrInvalidConfig)
	}
	data, ok := cm.Data[ConfigMapKey]
	if !ok {
		return nil, fmt.Errorf("%w: configmap %s/%s has no %q key", ErrInvalidConfig, cm.Namespace, cm.Name, ConfigMapKey)
	}
	cfg, err := Parse([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("config: configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON document, applies defaults and validates it.
// Unknown fields are rejected.
func Parse(data []byte) (*latencyv1alpha1.NegotiatorConfig, error) {
	cfg := &latencyv1alpha1.NegotiatorConfig{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	ApplyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errs.ToAggregate())
	}
	return cfg, nil
}

// ApplyDefaults fills optional fields left empty.
func ApplyDefaults(cfg *latencyv1alpha1.NegotiatorConfig) {
	if cfg.Spec.FacetResolution == "" {
		cfg.Spec.FacetResolution = latencyv1alpha1.FacetResolutionHighestPriority
	}
}

// Validate checks the document shape. The capability graph itself is checked
// when the catalog is built.
func Validate(cfg *latencyv1alpha1.NegotiatorConfig) field.ErrorList {
	var errs field.ErrorList

	if cfg.APIVersion != latencyv1alpha1.GroupVersion.String() {
		errs = append(errs, field.NotSupported(field.NewPath("apiVersion"), cfg.APIVersion, []string{latencyv1alpha1.GroupVersion.String()}))
	}
	if cfg.Kind != latencyv1alpha1.KindNegotiatorConfig {
		errs = append(errs, field.NotSupported(field.NewPath("kind"), cfg.Kind, []string{latencyv1alpha1.KindNegotiatorConfig}))
	}

	spec := field.NewPath("spec")
	switch {
	case cfg.Spec.Component == "":
		errs = append(errs, field.Required(spec.Child("component"), ""))
	case !cfg.Spec.Component.IsKnown():
		var known []string
		for _, c := range latencyv1alpha1.KnownComponents() {
			known = append(known, string(c))
		}
		errs = append(errs, field.NotSupported(spec.Child("component"), cfg.Spec.Component, known))
	}

	if !semver.Valid(cfg.Spec.PackageVersion) {
		errs = append(errs, field.Invalid(spec.Child("packageVersion"), cfg.Spec.PackageVersion, "must be a semantic version"))
	}

	protocols := spec.Child("supportedProtocols")
	if len(cfg.Spec.SupportedProtocols) == 0 {
		errs = append(errs, field.Required(protocols, "at least one protocol version is required"))
	}
	seen := sets.New[string]()
	for i, p := range cfg.Spec.SupportedProtocols {
		switch {
		case !semver.Valid(p):
			errs = append(errs, field.Invalid(protocols.Index(i), p, "must be a semantic version"))
		case seen.Has(p):
			errs = append(errs, field.Duplicate(protocols.Index(i), p))
		}
		seen.Insert(p)
	}

	switch cfg.Spec.FacetResolution {
	case latencyv1alpha1.FacetResolutionHighestPriority, latencyv1alpha1.FacetResolutionFirstRegistered:
	default:
		errs = append(errs, field.NotSupported(spec.Child("facetResolution"), cfg.Spec.FacetResolution, []string{
			string(latencyv1alpha1.FacetResolutionHighestPriority),
			string(latencyv1alpha1.FacetResolutionFirstRegistered),
		}))
	}

	errs = append(errs, validatePlugins(spec.Child("plugins"), cfg.Spec.Plugins)...)
	return errs
}

func validatePlugins(path *field.Path, plugins []latencyv1alpha1.PluginManifest) field.ErrorList {
	var errs field.ErrorList
	names := sets.New[string]()
	for i, p := range plugins {
		idx := path.Index(i)
		switch {
		case p.Name == "":
			errs = append(errs, field.Required(idx.Child("name"), ""))
		case names.Has(p.Name):
			errs = append(errs, field.Duplicate(idx.Child("name"), p.Name))
		}
		names.Insert(p.Name)

		for j, prov := range p.Provides {
			if prov.Facet == "" {
				errs = append(errs, field.Required(idx.Child("provides").Index(j).Child("facet"), ""))
			}
		}
		for j, req := range p.Requires {
			if req.Facet == "" {
				errs = append(errs, field.Required(idx.Child("requires").Index(j).Child("facet"), ""))
			}
		}
	}
	return errs
}
