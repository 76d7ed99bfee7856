package facet

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"k8s.io/client-go/tools/cache"

	"github.com/generacy-ai/latency/internal/metrics"
)

var (
	ErrInvalidRegistration = errors.New("facet: invalid registration")
)

const facetIndex = "facet"

// Registration is one provider record held in a (facet, qualifier) slot.
type Registration struct {
	Facet     string
	Qualifier string
	// Priority orders providers of the same facet; higher is preferred.
	Priority int
	Metadata map[string]string
	Provider any

	// seq is the registration order; a replacement receives a fresh value.
	seq uint64
}

// Registry maps (facet, qualifier) slots to provider records.
//
// Registry is safe for concurrent use. Reads run under the store's lock;
// Register and Unregister are additionally serialized by mu so their
// check-then-write steps are atomic.
type Registry struct {
	mu       sync.Mutex
	store    cache.ThreadSafeStore
	seq      atomic.Uint64
	strategy Strategy
	logger   logr.Logger
	metrics  *metrics.Metrics
}

type RegistryOption func(*Registry)

// WithStrategy sets how a facet with several providers is resolved when no
// qualifier is given. The default is HighestPriority.
func WithStrategy(s Strategy) RegistryOption {
	return func(r *Registry) { r.strategy = s }
}

func WithLogger(logger logr.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		store: cache.NewThreadSafeStore(cache.Indexers{
			facetIndex: func(obj interface{}) ([]string, error) {
				return []string{obj.(Registration).Facet}, nil
			},
		}, cache.Indices{}),
		strategy: HighestPriority,
		logger:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type registerOptions struct {
	qualifier string
	priority  int
	metadata  map[string]string
}

type RegisterOption func(*registerOptions)

func WithQualifier(qualifier string) RegisterOption {
	return func(o *registerOptions) { o.qualifier = qualifier }
}

func WithPriority(priority int) RegisterOption {
	return func(o *registerOptions) { o.priority = priority }
}

func WithMetadata(metadata map[string]string) RegisterOption {
	return func(o *registerOptions) { o.metadata = metadata }
}

// Register stores provider in the (facet, qualifier) slot, replacing any
// provider already there.
func (r *Registry) Register(facet string, provider any, opts ...RegisterOption) error {
	if strings.TrimSpace(facet) == "" {
		return fmt.Errorf("%w: facet is required", ErrInvalidRegistration)
	}
	if provider == nil {
		return fmt.Errorf("%w: provider for %s is nil", ErrInvalidRegistration, facet)
	}

	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	reg := Registration{
		Facet:     facet,
		Qualifier: o.qualifier,
		Priority:  o.priority,
		Provider:  provider,
		seq:       r.seq.Add(1),
	}
	if o.metadata != nil {
		reg.Metadata = make(map[string]string, len(o.metadata))
		for k, v := range o.metadata {
			reg.Metadata[k] = v
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Update(slotKey(facet, o.qualifier), reg)
	r.logger.V(1).Info("registered facet provider", "facet", facet, "qualifier", o.qualifier, "priority", o.priority)
	r.metrics.SetRegisteredProviders(facet, len(r.List(facet)))
	return nil
}

// Unregister empties the (facet, qualifier) slot and reports whether it held a provider.
func (r *Registry) Unregister(facet, qualifier string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotKey(facet, qualifier)
	if _, ok := r.store.Get(key); !ok {
		return false
	}
	r.store.Delete(key)
	r.logger.V(1).Info("unregistered facet provider", "facet", facet, "qualifier", qualifier)
	r.metrics.SetRegisteredProviders(facet, len(r.List(facet)))
	return true
}

// Has reports whether a provider exists for facet. With a qualifier only that
// exact slot counts.
func (r *Registry) Has(facet, qualifier string) bool {
	if qualifier != "" {
		_, ok := r.store.Get(slotKey(facet, qualifier))
		return ok
	}
	return len(r.List(facet)) > 0
}

// Lookup returns the record in the exact (facet, qualifier) slot.
func (r *Registry) Lookup(facet, qualifier string) (Registration, bool) {
	obj, ok := r.store.Get(slotKey(facet, qualifier))
	if !ok {
		return Registration{}, false
	}
	return obj.(Registration), true
}

// List returns every record for facet in registration order.
func (r *Registry) List(facet string) []Registration {
	objs, err := r.store.ByIndex(facetIndex, facet)
	if err != nil {
		// Only returned for an unknown index name.
		r.logger.Error(err, "listing facet providers", "facet", facet)
		return nil
	}
	out := make([]Registration, 0, len(objs))
	for _, obj := range objs {
		out = append(out, obj.(Registration))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Select applies the registry strategy to the providers of facet.
//
// It returns the winner and true, or false with the tied records when the
// strategy cannot pick one. No providers yields false with no tied records.
func (r *Registry) Select(facet string) (Registration, []Registration, bool) {
	candidates := r.List(facet)
	switch len(candidates) {
	case 0:
		return Registration{}, nil, false
	case 1:
		return candidates[0], nil, true
	}
	return r.strategy(candidates)
}

// Resolve returns the provider for facet. With a qualifier this is a direct
// slot lookup; without one a single provider is returned as is and several are
// disambiguated by the registry strategy. A miss or an unresolved tie returns
// false; Resolve never fails otherwise.
func (r *Registry) Resolve(facet, qualifier string) (any, bool) {
	if qualifier != "" {
		reg, ok := r.Lookup(facet, qualifier)
		return reg.Provider, ok
	}
	reg, _, ok := r.Select(facet)
	if !ok {
		return nil, false
	}
	return reg.Provider, true
}

// slotKey joins facet and qualifier with a NUL byte, which neither may contain
// in practice, so distinct pairs never collide.
func slotKey(facet, qualifier string) string {
	return facet + "\x00" + qualifier
}
