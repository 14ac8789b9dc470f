package order

import (
	"slices"

	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/dag/transform"
	"github.com/matzehuels/buildorder/pkg/errors"
)

// DefaultKinds are the reference kinds that count as ordering dependencies
// when Options.Kinds is empty.
var DefaultKinds = dag.Kinds(dag.RefProject)

// Options configures build-order resolution.
type Options struct {
	Kinds           dag.KindSet // Counted reference kinds (default: project)
	StrictCycles    bool        // Fail with CYCLE_DETECTED on the first cycle
	ReportCycles    bool        // Collect cycles into Result.Cycles
	IncludeExternal bool        // Keep external pseudo-nodes in the order
	SkipResolution  bool        // Return the roots as given, without ordering
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Kinds == 0 {
		opts.Kinds = DefaultKinds
	}
	return opts
}

// Result is the outcome of a build-order resolution.
type Result struct {
	Roots  []string   // Roots in processing order
	Order  []string   // Node IDs, dependencies before dependents
	Cycles [][]string // Cycles met during the walk (ReportCycles only)
}

// Position returns the index of id in the order, or -1.
func (r *Result) Position(id string) int {
	return slices.Index(r.Order, id)
}

// Resolve computes a build order for roots over g.
//
// An empty roots slice selects every non-external node. Every root must be a
// node of g: unknown IDs yield UNKNOWN_NODE and external pseudo-nodes yield
// UNRESOLVED_DEPENDENCY. On failure no partial result is returned.
func Resolve(g *dag.DAG, roots []string, opts Options) (*Result, error) {
	opts = opts.WithDefaults()

	roots, err := selectRoots(g, roots)
	if err != nil {
		return nil, err
	}

	if opts.SkipResolution {
		return &Result{Roots: roots, Order: slices.Clone(roots)}, nil
	}

	r := &resolver{
		g:     g,
		opts:  opts,
		state: make(map[string]visitState, g.NodeCount()),
	}

	sorted := slices.Clone(roots)
	slices.Sort(sorted)
	for _, id := range sorted {
		if err := r.visit(id); err != nil {
			return nil, err
		}
	}

	return &Result{Roots: sorted, Order: r.order, Cycles: r.cycles}, nil
}

// FindCycles lists every cycle of g over the given reference kinds,
// regardless of roots. An empty kinds set uses DefaultKinds.
func FindCycles(g *dag.DAG, kinds dag.KindSet) [][]string {
	if kinds == 0 {
		kinds = DefaultKinds
	}
	return transform.FindCycles(g, kinds)
}

func selectRoots(g *dag.DAG, roots []string) ([]string, error) {
	if len(roots) == 0 {
		var all []string
		for _, n := range g.Nodes() {
			if !n.IsExternal() {
				all = append(all, n.ID)
			}
		}
		return all, nil
	}

	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, id := range roots {
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok := g.Node(id)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownNode, "unknown root %q", id)
		}
		if n.IsExternal() {
			return nil, errors.Unresolved([]string{id}, id, "root %q is referenced but not part of the workspace", id)
		}
		out = append(out, id)
	}
	return out, nil
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

type resolver struct {
	g      *dag.DAG
	opts   Options
	state  map[string]visitState
	stack  []string
	order  []string
	cycles [][]string
}

func (r *resolver) visit(id string) error {
	switch r.state[id] {
	case done:
		return nil
	case inProgress:
		cycle := slices.Clone(r.stack[slices.Index(r.stack, id):])
		if r.opts.StrictCycles {
			return errors.Cycle(cycle)
		}
		if r.opts.ReportCycles {
			r.cycles = append(r.cycles, cycle)
		}
		return nil
	}

	r.state[id] = inProgress
	r.stack = append(r.stack, id)

	children := slices.Clone(r.g.Children(id, r.opts.Kinds))
	slices.Sort(children)
	for _, child := range children {
		if err := r.visit(child); err != nil {
			return err
		}
	}

	r.stack = r.stack[:len(r.stack)-1]
	r.state[id] = done

	if n, _ := r.g.Node(id); n.IsExternal() && !r.opts.IncludeExternal {
		return nil
	}
	r.order = append(r.order, id)
	return nil
}
