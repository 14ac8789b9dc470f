// Package version parses and compares OSGi-style bundle versions and
// version ranges.
//
// A version has up to three numeric components and an optional qualifier:
// "1", "1.2", "3.4.5" and "3.4.5.v20240101" are all valid. Missing numeric
// components default to zero and versions compare numerically component by
// component, then by qualifier string, an empty qualifier sorting first.
//
// Ranges accept three notations:
//
//	[1.0,2.0)      interval, brackets inclusive, parentheses exclusive
//	1.2            bare version, meaning "at least 1.2"
//	^1.2, >=1 <2   semantic-version constraints
//
// Numeric comparison and constraint checking are delegated to
// github.com/Masterminds/semver/v3.
package version

import (
	"strconv"
	"strings"

	mm "github.com/Masterminds/semver/v3"

	"github.com/matzehuels/buildorder/pkg/errors"
)

// Version is a parsed bundle version. The zero value is 0.0.0.
type Version struct {
	v         *mm.Version
	qualifier string
}

// Zero is the version 0.0.0.
var Zero = Version{}

// Parse parses an OSGi version string. The empty string yields [Zero].
func Parse(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Zero, nil
	}

	parts := strings.SplitN(raw, ".", 4)
	var nums [3]uint64
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return Zero, errors.Wrap(errors.ErrCodeInvalidVersion, err, "invalid version %q", raw)
		}
		nums[i] = n
	}

	var qualifier string
	if len(parts) == 4 {
		qualifier = parts[3]
		if !validQualifier(qualifier) {
			return Zero, errors.New(errors.ErrCodeInvalidVersion, "invalid qualifier in version %q", raw)
		}
	}
	return Version{v: mm.New(nums[0], nums[1], nums[2], "", ""), qualifier: qualifier}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant versions.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func validQualifier(q string) bool {
	if q == "" {
		return false
	}
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (v Version) semver() *mm.Version {
	if v.v == nil {
		return mm.New(0, 0, 0, "", "")
	}
	return v.v
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.semver().Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.semver().Minor() }

// Micro returns the micro component.
func (v Version) Micro() uint64 { return v.semver().Patch() }

// Qualifier returns the qualifier, empty if none.
func (v Version) Qualifier() string { return v.qualifier }

// String returns the canonical "major.minor.micro[.qualifier]" form.
func (v Version) String() string {
	s := v.semver().String()
	if v.qualifier != "" {
		s += "." + v.qualifier
	}
	return s
}

// Compare returns -1, 0 or 1 when a is lower than, equal to, or higher than b.
func Compare(a, b Version) int {
	if c := a.semver().Compare(b.semver()); c != 0 {
		return c
	}
	return strings.Compare(a.qualifier, b.qualifier)
}

// Equal reports whether a and b denote the same version.
func (v Version) Equal(o Version) bool { return Compare(v, o) == 0 }
