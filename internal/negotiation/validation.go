package negotiation

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/semver"
)

// ValidateRequest checks a handshake request before negotiation runs.
func ValidateRequest(req latencyv1alpha1.HandshakeRequest) field.ErrorList {
	var errs field.ErrorList

	componentPath := field.NewPath("component")
	switch {
	case req.Component == "":
		errs = append(errs, field.Required(componentPath, "component role is required"))
	case !req.Component.IsKnown():
		known := make([]string, 0, len(latencyv1alpha1.KnownComponents()))
		for _, c := range latencyv1alpha1.KnownComponents() {
			known = append(known, string(c))
		}
		errs = append(errs, field.NotSupported(componentPath, req.Component, known))
	}

	versionPath := field.NewPath("packageVersion")
	switch {
	case req.PackageVersion == "":
		errs = append(errs, field.Required(versionPath, "package version is required"))
	case !semver.Valid(req.PackageVersion):
		errs = append(errs, field.Invalid(versionPath, req.PackageVersion, "must be a semantic version"))
	}

	protocolsPath := field.NewPath("supportedProtocols")
	if len(req.SupportedProtocols) == 0 {
		errs = append(errs, field.Required(protocolsPath, "at least one protocol version is required"))
	}
	for i, p := range req.SupportedProtocols {
		if !semver.Valid(p) {
			errs = append(errs, field.Invalid(protocolsPath.Index(i), p, "must be a semantic version"))
		}
	}

	capabilitiesPath := field.NewPath("capabilities")
	for i, c := range req.Capabilities {
		if strings.TrimSpace(string(c)) == "" {
			errs = append(errs, field.Invalid(capabilitiesPath.Index(i), c, "must not be empty"))
		}
	}

	return errs
}
