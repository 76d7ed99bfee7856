package capability

import (
	"errors"
	"fmt"
	"strings"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
)

var (
	ErrInvalidCatalog    = errors.New("capability: invalid catalog")
	ErrDependencyCycle   = errors.New("capability: dependency cycle")
	ErrCapabilityMissing = errors.New("capability: required capability not negotiated")
)

// MissingCapabilityError reports a capability that was required at runtime
// but is not part of the negotiated set.
type MissingCapabilityError struct {
	Capability latencyv1alpha1.Capability
	// Available lists the negotiated capabilities in negotiation order.
	Available []latencyv1alpha1.Capability
	// Hint is an optional remediation message.
	Hint string
}

func (e *MissingCapabilityError) Error() string {
	if e == nil {
		return ""
	}
	available := "none"
	if len(e.Available) > 0 {
		available = joinCapabilities(e.Available, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %q (available: %s)", ErrCapabilityMissing.Error(), e.Capability, available)
	if e.Hint != "" {
		b.WriteString("; ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *MissingCapabilityError) Unwrap() error { return ErrCapabilityMissing }
