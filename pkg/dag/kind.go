package dag

import (
	"fmt"
	"strings"
)

// RefKind classifies a reference edge. Resolvers decide per kind whether an
// edge counts as an ordering dependency.
type RefKind uint8

const (
	// RefSource is a reference to a source folder of another project.
	RefSource RefKind = iota + 1
	// RefLibrary is a reference to a library archive or library project.
	RefLibrary
	// RefProject is a direct project-to-project reference.
	RefProject
	// RefContainer is a reference through a classpath container.
	RefContainer
	// RefRequire is a required-bundle dependency between bundles.
	RefRequire
	// RefImport links a bundle to the bundle exporting an imported package.
	RefImport
	// RefHost links a fragment to its host bundle.
	RefHost
)

var refKindNames = []string{
	RefSource:    "source",
	RefLibrary:   "library",
	RefProject:   "project",
	RefContainer: "container",
	RefRequire:   "require",
	RefImport:    "import",
	RefHost:      "host",
}

// Valid reports whether k is a known kind.
func (k RefKind) Valid() bool {
	return k >= RefSource && k <= RefHost
}

// String returns the lower-case kind name.
func (k RefKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("RefKind(%d)", k)
	}
	return refKindNames[k]
}

// ParseRefKind parses a kind name case-insensitively.
func ParseRefKind(s string) (RefKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := RefSource; k <= RefHost; k++ {
		if refKindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRefKind, s)
}

// KindSet is a set of reference kinds. The empty set matches every kind.
type KindSet uint16

// Kinds builds a set from the given kinds.
func Kinds(kinds ...RefKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// AllKinds matches every reference kind explicitly.
var AllKinds = Kinds(RefSource, RefLibrary, RefProject, RefContainer, RefRequire, RefImport, RefHost)

// ParseKinds parses a comma-separated list such as "project,container".
// An empty string yields the empty set.
func ParseKinds(s string) (KindSet, error) {
	var set KindSet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseRefKind(part)
		if err != nil {
			return 0, err
		}
		set |= 1 << k
	}
	return set, nil
}

// Has reports whether k is explicitly part of the set.
func (s KindSet) Has(k RefKind) bool { return s&(1<<k) != 0 }

// Matches reports whether an edge of kind k passes this filter.
func (s KindSet) Matches(k RefKind) bool { return s == 0 || s.Has(k) }

// Slice lists the kinds in the set in declaration order.
func (s KindSet) Slice() []RefKind {
	var out []RefKind
	for k := RefSource; k <= RefHost; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// String renders the set as a comma-separated list.
func (s KindSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// Strings is like String but returns a slice, convenient for JSON.
func (s KindSet) Strings() []string {
	var names []string
	for _, k := range s.Slice() {
		names = append(names, k.String())
	}
	return names
}
