package version

import (
	"strings"

	mm "github.com/Masterminds/semver/v3"

	"github.com/matzehuels/buildorder/pkg/errors"
)

// Range is a set of acceptable versions. The zero value accepts every
// version.
type Range struct {
	raw string

	min, max     Version
	minExclusive bool
	maxInclusive bool
	bounded      bool // max is set
	constraint   *mm.Constraints
}

// Any accepts every version.
var Any = Range{}

// ParseRange parses an interval, a bare minimum version or a semantic
// version constraint. The empty string yields [Any].
func ParseRange(raw string) (Range, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Any, nil
	}

	if raw[0] == '[' || raw[0] == '(' {
		return parseInterval(raw)
	}

	if v, err := Parse(raw); err == nil {
		return Range{raw: raw, min: v}, nil
	}

	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Any, errors.Wrap(errors.ErrCodeInvalidVersion, err, "invalid version range %q", raw)
	}
	return Range{raw: raw, constraint: c}, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(raw string) Range {
	r, err := ParseRange(raw)
	if err != nil {
		panic(err)
	}
	return r
}

func parseInterval(raw string) (Range, error) {
	last := raw[len(raw)-1]
	if len(raw) < 2 || (last != ']' && last != ')') {
		return Any, errors.New(errors.ErrCodeInvalidVersion, "unterminated version range %q", raw)
	}
	lo, hi, ok := strings.Cut(raw[1:len(raw)-1], ",")
	if !ok {
		return Any, errors.New(errors.ErrCodeInvalidVersion, "version range %q needs two bounds", raw)
	}
	minV, err := Parse(lo)
	if err != nil {
		return Any, err
	}
	maxV, err := Parse(hi)
	if err != nil {
		return Any, err
	}
	r := Range{
		raw:          raw,
		min:          minV,
		max:          maxV,
		minExclusive: raw[0] == '(',
		maxInclusive: last == ']',
		bounded:      true,
	}
	if Compare(minV, maxV) > 0 {
		return Any, errors.New(errors.ErrCodeInvalidVersion, "empty version range %q", raw)
	}
	return r, nil
}

// Includes reports whether v lies in the range.
func (r Range) Includes(v Version) bool {
	if r.constraint != nil {
		return r.constraint.Check(v.semver())
	}
	c := Compare(v, r.min)
	if c < 0 || (c == 0 && r.minExclusive) {
		return false
	}
	if !r.bounded {
		return true
	}
	c = Compare(v, r.max)
	return c < 0 || (c == 0 && r.maxInclusive)
}

// IsAny reports whether the range accepts every version.
func (r Range) IsAny() bool { return r.raw == "" }

// String returns the range as written, or "*" for [Any].
func (r Range) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}
