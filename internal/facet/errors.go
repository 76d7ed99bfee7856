package facet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFacetNotFound      = errors.New("facet not found")
	ErrAmbiguousFacet     = errors.New("ambiguous facet")
	ErrCircularDependency = errors.New("circular dependency")
)

// ResolutionError is the single error type for facet resolution and plugin
// wiring failures.
//
// Kind is one of ErrFacetNotFound, ErrAmbiguousFacet or ErrCircularDependency
// and selects which of the remaining fields are meaningful:
//
//	ErrFacetNotFound       Facet, Qualifier
//	ErrAmbiguousFacet      Facet, Candidates
//	ErrCircularDependency  Cycle
type ResolutionError struct {
	Kind       error
	Facet      string
	Qualifier  string
	Candidates []string
	// Cycle is the ordered plugin path; its first and last elements are equal.
	Cycle []string
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ErrFacetNotFound:
		if e.Qualifier != "" {
			return fmt.Sprintf("%s: %s (qualifier %q)", e.Kind, e.Facet, e.Qualifier)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Facet)
	case ErrAmbiguousFacet:
		return fmt.Sprintf("%s: %s has candidates [%s]", e.Kind, e.Facet, strings.Join(e.Candidates, ", "))
	case ErrCircularDependency:
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("facet resolution failed: %s", e.Facet)
}

func (e *ResolutionError) Unwrap() error { return e.Kind }

func NotFound(facet, qualifier string) *ResolutionError {
	return &ResolutionError{Kind: ErrFacetNotFound, Facet: facet, Qualifier: qualifier}
}

func Ambiguous(facet string, candidates []string) *ResolutionError {
	return &ResolutionError{Kind: ErrAmbiguousFacet, Facet: facet, Candidates: append([]string(nil), candidates...)}
}

func Circular(cycle []string) *ResolutionError {
	return &ResolutionError{Kind: ErrCircularDependency, Cycle: append([]string(nil), cycle...)}
}
