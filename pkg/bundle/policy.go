package bundle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/buildorder/pkg/version"
)

// AmbiguityPolicy decides what happens when several bundles satisfy one
// requirement.
type AmbiguityPolicy int

const (
	// PolicyFail reports AMBIGUOUS_PROVIDER.
	PolicyFail AmbiguityPolicy = iota
	// PolicyHighest picks the highest version, then the lowest identity.
	PolicyHighest
	// PolicyFirst picks the first candidate in provider order.
	PolicyFirst
)

var policyNames = []string{
	PolicyFail:    "fail",
	PolicyHighest: "highest",
	PolicyFirst:   "first",
}

// String returns the policy name.
func (p AmbiguityPolicy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("AmbiguityPolicy(%d)", int(p))
	}
	return policyNames[p]
}

// ParsePolicy parses "fail", "highest" or "first". The empty string yields
// PolicyFail.
func ParsePolicy(s string) (AmbiguityPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PolicyFail, nil
	}
	if i := slices.Index(policyNames, s); i >= 0 {
		return AmbiguityPolicy(i), nil
	}
	return PolicyFail, fmt.Errorf("unknown ambiguity policy %q (want fail, highest or first)", s)
}

// Pick returns the chosen candidate, or nil when the policy refuses to
// choose. candidates must not be empty.
func (p AmbiguityPolicy) Pick(candidates []*Bundle) *Bundle {
	switch p {
	case PolicyFirst:
		return candidates[0]
	case PolicyHighest:
		return slices.MaxFunc(candidates, func(a, b *Bundle) int {
			if c := version.Compare(a.Version, b.Version); c != 0 {
				return c
			}
			// lower name wins on equal versions
			return strings.Compare(b.Name, a.Name)
		})
	default:
		return nil
	}
}
