package capability

import (
	"k8s.io/apimachinery/pkg/util/sets"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
)

// Query is an immutable view over the capability set negotiated for one session.
type Query struct {
	ordered []latencyv1alpha1.Capability
	set     sets.Set[latencyv1alpha1.Capability]
}

// RequireResult is the non-panicking form of Query.Require.
type RequireResult struct {
	Err *MissingCapabilityError
}

func (r RequireResult) OK() bool { return r.Err == nil }

// NewQuery builds a Query over capabilities, dropping duplicates but keeping
// first-occurrence order.
func NewQuery(capabilities []latencyv1alpha1.Capability) *Query {
	q := &Query{
		ordered: make([]latencyv1alpha1.Capability, 0, len(capabilities)),
		set:     sets.New[latencyv1alpha1.Capability](),
	}
	for _, c := range capabilities {
		if q.set.Has(c) {
			continue
		}
		q.set.Insert(c)
		q.ordered = append(q.ordered, c)
	}
	return q
}

func (q *Query) HasCapability(capability latencyv1alpha1.Capability) bool {
	return q.set.Has(capability)
}

// Capabilities returns a copy of the negotiated set.
func (q *Query) Capabilities() []latencyv1alpha1.Capability {
	return append([]latencyv1alpha1.Capability(nil), q.ordered...)
}

// RequireCapability returns a *MissingCapabilityError when capability was not
// negotiated. hint, when non-empty, is appended to the error message.
func (q *Query) RequireCapability(capability latencyv1alpha1.Capability, hint string) error {
	if r := q.TryRequireCapability(capability, hint); !r.OK() {
		return r.Err
	}
	return nil
}

// TryRequireCapability reports the same outcome as RequireCapability as a value.
func (q *Query) TryRequireCapability(capability latencyv1alpha1.Capability, hint string) RequireResult {
	if q.set.Has(capability) {
		return RequireResult{}
	}
	return RequireResult{Err: &MissingCapabilityError{
		Capability: capability,
		Available:  q.Capabilities(),
		Hint:       hint,
	}}
}
