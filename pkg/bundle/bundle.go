package bundle

import (
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/version"
)

// Identity identifies a bundle by symbolic name and version.
type Identity struct {
	Name    string
	Version version.Version
}

// NewIdentity parses v and returns the identity name_v.
func NewIdentity(name, v string) (Identity, error) {
	pv, err := version.Parse(v)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, Version: pv}, nil
}

// String returns the node ID form "name_version".
func (id Identity) String() string {
	return id.Name + "_" + id.Version.String()
}

// Less orders identities by name, then version.
func (id Identity) Less(o Identity) bool {
	if id.Name != o.Name {
		return id.Name < o.Name
	}
	return version.Compare(id.Version, o.Version) < 0
}

// key is the comparable form of an Identity used for map keys.
type key struct {
	name, version string
}

func (id Identity) key() key { return key{id.Name, id.Version.String()} }

// Requirement is a dependency of a bundle on another bundle or package.
type Requirement struct {
	Kind     dag.RefKind   // RefRequire, RefImport or RefHost
	Name     string        // Bundle symbolic name, or package name for imports
	Range    version.Range // Acceptable versions
	Optional bool          // Skip silently when no provider exists
}

// String renders the requirement as "name range".
func (r Requirement) String() string {
	if r.Range.IsAny() {
		return r.Name
	}
	return r.Name + " " + r.Range.String()
}

// Package is an exported package.
type Package struct {
	Name    string
	Version version.Version
}

// Bundle is a resolved bundle description.
type Bundle struct {
	Identity

	Requires  []Requirement // Required bundles, in declaration order
	Imports   []Requirement // Imported packages, in declaration order
	Host      *Requirement  // Fragment host, nil for regular bundles
	Exports   []Package     // Exported packages
	Locations []string      // Classpath locations contributed by the bundle
	Project   string        // Workspace project ID, empty for binary bundles
}

// IsFragment reports whether the bundle is a fragment.
func (b *Bundle) IsFragment() bool { return b.Host != nil }

// IsSource reports whether the bundle is built from a workspace project.
func (b *Bundle) IsSource() bool { return b.Project != "" }

// Requirements returns the required bundles followed by the imported
// packages.
func (b *Bundle) Requirements() []Requirement {
	reqs := make([]Requirement, 0, len(b.Requires)+len(b.Imports))
	reqs = append(reqs, b.Requires...)
	return append(reqs, b.Imports...)
}

// ExportsPackage reports whether the bundle exports pkg at a version in r.
func (b *Bundle) ExportsPackage(pkg string, r version.Range) bool {
	for _, p := range b.Exports {
		if p.Name == pkg && r.Includes(p.Version) {
			return true
		}
	}
	return false
}

// Provider matches requirements to concrete bundles.
type Provider interface {
	// Lookup returns the bundle with the given identity.
	Lookup(id Identity) (*Bundle, bool)
	// Candidates returns every non-fragment bundle satisfying req, in the
	// provider's declaration order.
	Candidates(req Requirement) []*Bundle
	// Fragments returns the fragments attached to host, in declaration order.
	Fragments(host Identity) []*Bundle
	// Host returns the bundle a fragment is attached to. It reports false
	// for a fragment that is attached to no host.
	Host(fragment Identity) (*Bundle, bool)
}
