package workspace

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/buildorder/pkg/bundle"
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
	"github.com/matzehuels/buildorder/pkg/platform"
	"github.com/matzehuels/buildorder/pkg/version"
)

// DefaultPlatform is the ID of the implicit platform of a workspace that
// declares none.
const DefaultPlatform = "default"

// Platform selects a target platform and fills it with bundles.
//
// With an explicit id the platform must be declared. Without one, the
// single declared platform is used, or an implicit platform holding every
// bundle when none is declared. Bundles built from workspace projects are
// part of every platform. Ambiguous or unknown selections fail with
// NO_TARGET_PLATFORM.
func (w *Workspace) Platform(id string) (*platform.Platform, error) {
	spec, err := w.selectPlatform(id)
	if err != nil {
		return nil, err
	}

	p := platform.New(spec.ID)
	for _, wb := range w.Bundles {
		if !w.inPlatform(wb, spec) {
			continue
		}
		b, err := w.toBundle(wb)
		if err != nil {
			return nil, err
		}
		if err := p.Add(b); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (w *Workspace) selectPlatform(id string) (*Platform, error) {
	if id != "" {
		for i := range w.Platforms {
			if w.Platforms[i].ID == id {
				return &w.Platforms[i], nil
			}
		}
		if id == DefaultPlatform && len(w.Platforms) == 0 {
			return &Platform{ID: DefaultPlatform}, nil
		}
		return nil, errors.New(errors.ErrCodeNoTargetPlatform, "unknown target platform %q", id)
	}

	switch len(w.Platforms) {
	case 0:
		return &Platform{ID: DefaultPlatform}, nil
	case 1:
		return &w.Platforms[0], nil
	}
	ids := make([]string, len(w.Platforms))
	for i, pl := range w.Platforms {
		ids[i] = pl.ID
	}
	return nil, errors.New(errors.ErrCodeNoTargetPlatform,
		"workspace declares %d target platforms, choose one of %s", len(ids), strings.Join(ids, ", "))
}

func (w *Workspace) inPlatform(b Bundle, spec *Platform) bool {
	if b.Project != "" || (spec.ID == DefaultPlatform && len(w.Platforms) == 0) {
		return true
	}
	for _, ref := range spec.Bundles {
		if matchesBundle(b, ref) {
			return true
		}
	}
	return false
}

func (w *Workspace) toBundle(wb Bundle) (*bundle.Bundle, error) {
	id, err := bundle.NewIdentity(wb.SymbolicName, wb.Version)
	if err != nil {
		return nil, err
	}
	b := &bundle.Bundle{Identity: id, Project: wb.Project}

	for _, loc := range wb.Locations {
		b.Locations = append(b.Locations, w.abs(loc))
	}
	if len(b.Locations) == 0 && wb.Project != "" {
		b.Locations = []string{w.abs(wb.Project)}
	}

	for _, exp := range wb.Exports {
		e, err := parseExport(exp)
		if err != nil {
			return nil, err
		}
		b.Exports = append(b.Exports, bundle.Package{Name: e.name, Version: e.version})
	}

	if b.Requires, err = requirements(dag.RefRequire, wb.Requires); err != nil {
		return nil, err
	}
	if b.Imports, err = requirements(dag.RefImport, wb.Imports); err != nil {
		return nil, err
	}
	if wb.Host != "" {
		r, err := version.ParseRange(wb.HostRange)
		if err != nil {
			return nil, err
		}
		b.Host = &bundle.Requirement{Kind: dag.RefHost, Name: wb.Host, Range: r}
	}
	return b, nil
}

func requirements(kind dag.RefKind, specs []Requirement) ([]bundle.Requirement, error) {
	var out []bundle.Requirement
	for _, s := range specs {
		r, err := version.ParseRange(s.Range)
		if err != nil {
			return nil, err
		}
		out = append(out, bundle.Requirement{Kind: kind, Name: s.Name, Range: r, Optional: s.Optional})
	}
	return out, nil
}

func (w *Workspace) abs(loc string) string {
	if w.Dir == "" || filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(w.Dir, loc)
}
