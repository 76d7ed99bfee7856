package resolver

// Resolver resolves a facet to exactly one provider.
//
// Unlike facet.Registry.Resolve, a miss or an unresolved tie is an error:
// *facet.ResolutionError of kind ErrFacetNotFound or ErrAmbiguousFacet.
type Resolver interface {
	Resolve(facetName, qualifier string) (any, error)
}
