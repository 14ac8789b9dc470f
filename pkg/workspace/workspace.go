package workspace

import (
	"slices"
	"strings"

	"github.com/matzehuels/buildorder/pkg/errors"
	"github.com/matzehuels/buildorder/pkg/version"
)

// Workspace is a parsed workspace description.
type Workspace struct {
	Projects  []Project  `toml:"project" json:"projects,omitempty" hcl:"project,block"`
	Bundles   []Bundle   `toml:"bundle" json:"bundles,omitempty" hcl:"bundle,block"`
	Platforms []Platform `toml:"platform" json:"platforms,omitempty" hcl:"platform,block"`
	Sets      []Set      `toml:"set" json:"sets,omitempty" hcl:"set,block"`

	// Dir is the directory the description was loaded from.
	Dir string `toml:"-" json:"-"`
}

// Project declares a workspace project and its references by kind.
type Project struct {
	Name       string   `toml:"name" json:"name" hcl:"name,label"`
	Sources    []string `toml:"sources" json:"sources,omitempty" hcl:"sources,optional"`
	Libraries  []string `toml:"libraries" json:"libraries,omitempty" hcl:"libraries,optional"`
	Projects   []string `toml:"projects" json:"projects,omitempty" hcl:"projects,optional"`
	Containers []string `toml:"containers" json:"containers,omitempty" hcl:"containers,optional"`
}

// Bundle declares a bundle. Bundles with a project are built from the
// workspace; the others are binary bundles of a target platform.
type Bundle struct {
	SymbolicName string        `toml:"symbolic_name" json:"symbolic_name" hcl:"symbolic_name,label"`
	Version      string        `toml:"version" json:"version,omitempty" hcl:"version,optional"`
	Project      string        `toml:"project" json:"project,omitempty" hcl:"project,optional"`
	Locations    []string      `toml:"locations" json:"locations,omitempty" hcl:"locations,optional"`
	Exports      []string      `toml:"exports" json:"exports,omitempty" hcl:"exports,optional"`
	Host         string        `toml:"host" json:"host,omitempty" hcl:"host,optional"`
	HostRange    string        `toml:"host_range" json:"host_range,omitempty" hcl:"host_range,optional"`
	Requires     []Requirement `toml:"require" json:"requires,omitempty" hcl:"require,block"`
	Imports      []Requirement `toml:"import" json:"imports,omitempty" hcl:"import,block"`
}

// Requirement is a required bundle or imported package.
type Requirement struct {
	Name     string `toml:"name" json:"name" hcl:"name,label"`
	Range    string `toml:"range" json:"range,omitempty" hcl:"range,optional"`
	Optional bool   `toml:"optional" json:"optional,omitempty" hcl:"optional,optional"`
}

// Platform is a named target platform. Bundles lists binary bundles by
// symbolic name (every version) or by "name_version".
type Platform struct {
	ID      string   `toml:"id" json:"id" hcl:"id,label"`
	Bundles []string `toml:"bundles" json:"bundles,omitempty" hcl:"bundles,optional"`
}

// Set is a named project set.
type Set struct {
	Name     string   `toml:"name" json:"name" hcl:"name,label"`
	Projects []string `toml:"projects" json:"projects" hcl:"projects"`
}

// Project returns the project with the given name.
func (w *Workspace) Project(name string) (*Project, bool) {
	for i := range w.Projects {
		if w.Projects[i].Name == name {
			return &w.Projects[i], true
		}
	}
	return nil, false
}

// ProjectNames returns the project names in declaration order.
func (w *Workspace) ProjectNames() []string {
	names := make([]string, len(w.Projects))
	for i, p := range w.Projects {
		names[i] = p.Name
	}
	return names
}

// SetProjects returns the projects of the named set.
func (w *Workspace) SetProjects(name string) ([]string, error) {
	for _, s := range w.Sets {
		if s.Name == name {
			return slices.Clone(s.Projects), nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no project set named %q", name)
}

// Validate checks names, versions and cross references. Unknown project
// references are not an error here; see BuildGraph.
func (w *Workspace) Validate() error {
	projects := make(map[string]bool, len(w.Projects))
	for _, p := range w.Projects {
		if err := errors.ValidateNodeID(p.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "project %q", p.Name)
		}
		if projects[p.Name] {
			return errors.New(errors.ErrCodeInvalidWorkspace, "duplicate project %q", p.Name)
		}
		projects[p.Name] = true
	}

	for _, b := range w.Bundles {
		if err := b.validate(projects); err != nil {
			return err
		}
	}

	for _, pl := range w.Platforms {
		if pl.ID == "" {
			return errors.New(errors.ErrCodeInvalidWorkspace, "platform without id")
		}
		for _, ref := range pl.Bundles {
			if !w.hasBundle(ref) {
				return errors.New(errors.ErrCodeInvalidWorkspace, "platform %q lists unknown bundle %q", pl.ID, ref)
			}
		}
	}

	for _, s := range w.Sets {
		for _, p := range s.Projects {
			if !projects[p] {
				return errors.New(errors.ErrCodeInvalidWorkspace, "project set %q lists unknown project %q", s.Name, p)
			}
		}
	}
	return nil
}

func (b Bundle) validate(projects map[string]bool) error {
	if err := errors.ValidateSymbolicName(b.SymbolicName); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "bundle %q", b.SymbolicName)
	}
	if _, err := version.Parse(b.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "bundle %q", b.SymbolicName)
	}
	if b.Project != "" && !projects[b.Project] {
		return errors.New(errors.ErrCodeInvalidWorkspace, "bundle %q is built from unknown project %q", b.SymbolicName, b.Project)
	}
	if b.Host == "" && b.HostRange != "" {
		return errors.New(errors.ErrCodeInvalidWorkspace, "bundle %q has a host range but no host", b.SymbolicName)
	}
	for _, loc := range b.Locations {
		if err := errors.ValidatePath(loc); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "bundle %q location %q", b.SymbolicName, loc)
		}
	}
	for _, exp := range b.Exports {
		if _, err := parseExport(exp); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "bundle %q", b.SymbolicName)
		}
	}
	for _, r := range slices.Concat(b.Requires, b.Imports) {
		if r.Name == "" {
			return errors.New(errors.ErrCodeInvalidWorkspace, "bundle %q has a requirement without name", b.SymbolicName)
		}
		if _, err := version.ParseRange(r.Range); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "bundle %q requirement %q", b.SymbolicName, r.Name)
		}
	}
	if _, err := version.ParseRange(b.HostRange); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "bundle %q host range", b.SymbolicName)
	}
	return nil
}

func (w *Workspace) hasBundle(ref string) bool {
	for _, b := range w.Bundles {
		if matchesBundle(b, ref) {
			return true
		}
	}
	return false
}

// matchesBundle reports whether ref names b by symbolic name or by
// "name_version" identity.
func matchesBundle(b Bundle, ref string) bool {
	if ref == b.SymbolicName {
		return true
	}
	name, v, ok := cutLast(ref, "_")
	if !ok || name != b.SymbolicName {
		return false
	}
	want, err := version.Parse(v)
	if err != nil {
		return false
	}
	have, err := version.Parse(b.Version)
	return err == nil && want.Equal(have)
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// parseExport parses "org.acme.util" or "org.acme.util:1.2".
func parseExport(s string) (exportSpec, error) {
	name, v, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if err := errors.ValidateSymbolicName(name); err != nil {
		return exportSpec{}, err
	}
	pv, err := version.Parse(v)
	if err != nil {
		return exportSpec{}, err
	}
	return exportSpec{name: name, version: pv}, nil
}

type exportSpec struct {
	name    string
	version version.Version
}
