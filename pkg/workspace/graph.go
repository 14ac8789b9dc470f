package workspace

import (
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
)

// GraphOptions configures BuildGraph.
type GraphOptions struct {
	// Strict fails on references to unknown IDs instead of creating
	// external pseudo-nodes.
	Strict bool
}

// BuildGraph creates the project reference graph of the workspace.
//
// Each project becomes a node; projects built into bundles carry the bundle
// version, and fragment projects point at the project of their host. Each
// reference becomes an edge of its kind, in the order sources, libraries,
// projects, containers. A reference to an ID that is not a project becomes
// an edge to an external node of that ID, or an UNRESOLVED_DEPENDENCY error
// when opts.Strict is set.
func BuildGraph(ws *Workspace, opts GraphOptions) (*dag.DAG, error) {
	g := dag.New(dag.Metadata{"dir": ws.Dir})

	bundleOf := make(map[string]Bundle)
	hostProject := make(map[string]string)
	for _, b := range ws.Bundles {
		if b.Project != "" {
			bundleOf[b.Project] = b
			hostProject[b.SymbolicName] = b.Project
		}
	}

	for _, p := range ws.Projects {
		n := dag.Node{ID: p.Name, Kind: dag.NodeKindProject, Meta: dag.Metadata{}}
		if b, ok := bundleOf[p.Name]; ok {
			n.Version = b.Version
			n.Meta["bundle"] = b.SymbolicName
			n.FragmentHost = hostProject[b.Host]
		}
		if err := g.AddNode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "project %q", p.Name)
		}
	}

	for _, p := range ws.Projects {
		refs := []struct {
			kind dag.RefKind
			ids  []string
		}{
			{dag.RefSource, p.Sources},
			{dag.RefLibrary, p.Libraries},
			{dag.RefProject, p.Projects},
			{dag.RefContainer, p.Containers},
		}
		for _, r := range refs {
			for _, to := range r.ids {
				if err := addReference(g, p.Name, to, r.kind, opts); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

func addReference(g *dag.DAG, from, to string, kind dag.RefKind, opts GraphOptions) error {
	n, ok := g.Node(to)
	if !ok {
		if opts.Strict {
			return errors.Unresolved([]string{from, to}, to, "project %q references unknown %s %q", from, kind, to)
		}
		if err := errors.ValidateNodeID(to); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "project %q reference", from)
		}
		_ = g.AddNode(dag.Node{ID: to, Kind: dag.NodeKindExternal})
	} else if n.IsExternal() && opts.Strict {
		return errors.Unresolved([]string{from, to}, to, "project %q references unknown %s %q", from, kind, to)
	}
	return g.AddEdge(dag.Edge{From: from, To: to, Kind: kind})
}
