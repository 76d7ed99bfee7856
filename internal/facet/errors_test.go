package facet

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolutionError_KindDispatch(t *testing.T) {
	cases := []struct {
		err  error
		kind error
		msg  string
	}{
		{NotFound("IssueTracker", ""), ErrFacetNotFound, "facet not found: IssueTracker"},
		{NotFound("IssueTracker", "jira"), ErrFacetNotFound, `facet not found: IssueTracker (qualifier "jira")`},
		{Ambiguous("IssueTracker", []string{"github", "jira"}), ErrAmbiguousFacet, "ambiguous facet: IssueTracker has candidates [github, jira]"},
		{Circular([]string{"a", "b", "a"}), ErrCircularDependency, "circular dependency: a -> b -> a"},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("bootstrap: %w", tc.err)
		if !errors.Is(wrapped, tc.kind) {
			t.Fatalf("expected %v to match kind %v", wrapped, tc.kind)
		}
		var re *ResolutionError
		if !errors.As(wrapped, &re) {
			t.Fatalf("expected *ResolutionError in %v", wrapped)
		}
		if re.Kind != tc.kind {
			t.Fatalf("kind=%v, want %v", re.Kind, tc.kind)
		}
		if tc.err.Error() != tc.msg {
			t.Fatalf("message=%q, want %q", tc.err.Error(), tc.msg)
		}
	}
}

func TestCircular_CopiesPath(t *testing.T) {
	path := []string{"a", "b", "a"}
	err := Circular(path)
	path[1] = "mutated"
	if err.Cycle[1] != "b" {
		t.Fatalf("expected cycle to be copied, got %v", err.Cycle)
	}
}
