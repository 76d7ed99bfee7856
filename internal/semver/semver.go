package semver

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3. Parsing is
// strict: the three numeric components are mandatory and a leading "v" is
// rejected, so "1.0" and "v1.0.0" are not valid protocol versions.
type Version struct {
	v *mm.Version
}

func ParseVersion(raw string) (Version, error) {
	v, err := mm.StrictNewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Valid reports whether raw parses as a strict semantic version.
func Valid(raw string) bool {
	_, err := ParseVersion(raw)
	return err == nil
}

// String returns the version exactly as it was written.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

func (v Version) Prerelease() string {
	if v.v == nil {
		return ""
	}
	return v.v.Prerelease()
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// Precedence follows semver 2.0: numeric major.minor.patch, a release ranks
// above any prerelease of the same triple, prerelease identifiers compare
// field by field with numeric identifiers below alphanumeric ones. Build
// metadata is ignored. The zero Version sorts below everything.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// CompareStrings parses and compares two raw versions.
func CompareStrings(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return Compare(va, vb), nil
}

// Max returns the highest version in candidates.
//
// If multiple versions are equal, the first encountered wins.
func Max(candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
