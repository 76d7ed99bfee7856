// Package v1alpha1 contains the wire and configuration types shared by the
// handshake adapter, the negotiator, and the bootstrap configuration.
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	// GroupVersion identifies configuration documents understood by this package.
	GroupVersion = schema.GroupVersion{Group: "latency.generacy.ai", Version: "v1alpha1"}
)

const (
	KindNegotiatorConfig = "NegotiatorConfig"
)
