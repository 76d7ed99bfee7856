package resolver

import "errors"

var (
	// ErrDuplicatePlugin is returned when two plugin manifests share a name.
	ErrDuplicatePlugin = errors.New("resolver: duplicate plugin")
)
