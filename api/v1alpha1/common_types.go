package v1alpha1

// Component identifies the role of a party taking part in a handshake.
//
// The role set is fixed; a request naming any other role is rejected before
// negotiation runs.
type Component string

// Capability is an opaque, stable token naming an optional feature.
//
// The set of valid tokens is closed and defined by the capability catalog at
// deploy time.
type Capability string

// ErrorCode classifies a failed handshake on the wire.
type ErrorCode string

const (
	ComponentGeneracy Component = "generacy"
	ComponentAgency   Component = "agency"
	ComponentHumancy  Component = "humancy"

	ErrorCodeProtocolNegotiationFailed ErrorCode = "PROTOCOL_NEGOTIATION_FAILED"
)

// KnownComponents returns the fixed role set in a stable order.
func KnownComponents() []Component {
	return []Component{ComponentGeneracy, ComponentAgency, ComponentHumancy}
}

func (c Component) IsKnown() bool {
	for _, known := range KnownComponents() {
		if c == known {
			return true
		}
	}
	return false
}
