package negotiation

import (
	"k8s.io/apimachinery/pkg/util/sets"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/semver"
)

// Negotiate returns the highest version present in both client and server.
//
// Versions match by exact string equality; there are no ranges. Entries that
// are not valid semantic versions never match. When several matching entries
// compare equal (differing only in build metadata) the first in client order
// wins.
func Negotiate(client, server []string) (string, bool) {
	offered := sets.New(server...)

	var mutual []semver.Version
	for _, raw := range client {
		if !offered.Has(raw) {
			continue
		}
		v, err := semver.ParseVersion(raw)
		if err != nil {
			continue
		}
		mutual = append(mutual, v)
	}

	best, ok := semver.Max(mutual)
	if !ok {
		return "", false
	}
	return best.String(), true
}

// NegotiateWithWarnings runs Negotiate and, independently of its outcome,
// collects the deprecation message of every distinct requested capability
// listed in deprecated, in first-occurrence order.
func NegotiateWithWarnings(client, server []string, requested []latencyv1alpha1.Capability, deprecated map[latencyv1alpha1.Capability]string) (string, bool, []string) {
	selected, ok := Negotiate(client, server)
	_, warnings := deprecationWarnings(requested, deprecated)
	return selected, ok, warnings
}

func deprecationWarnings(requested []latencyv1alpha1.Capability, deprecated map[latencyv1alpha1.Capability]string) ([]latencyv1alpha1.Capability, []string) {
	var caps []latencyv1alpha1.Capability
	var warnings []string
	seen := sets.New[latencyv1alpha1.Capability]()
	for _, c := range requested {
		if seen.Has(c) {
			continue
		}
		seen.Insert(c)
		if msg, ok := deprecated[c]; ok {
			caps = append(caps, c)
			warnings = append(warnings, msg)
		}
	}
	return caps, warnings
}
