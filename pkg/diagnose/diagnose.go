// Package diagnose explains resolution failures.
//
// When a classpath cannot be resolved, the error records the chain of node
// IDs from the requested root to the requirement that failed. The bundle
// that triggered the error is often only a symptom: it is unresolved
// because something it needs is missing. [FindRootCause] follows the chain
// through the reference graph to the node that is actually missing, and
// [Explain] turns that into a message for the user.
package diagnose

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
)

// FindRootCause walks chain through g and returns the node responsible for
// the failure.
//
// The walk starts at chain[0] and advances while the next chain element is
// linked from the current one. The first external node met is the root
// cause. If the walk stops at a regular node, its lexically first external
// reference is returned when it has one, and the node itself otherwise. The
// cost is linear in the chain length.
func FindRootCause(g *dag.DAG, chain []string) (*dag.Node, error) {
	if len(chain) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty failure chain")
	}

	current, ok := g.Node(chain[0])
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownNode, "failure chain starts at unknown node %q", chain[0])
	}

	for _, next := range chain[1:] {
		if current.IsExternal() {
			return current, nil
		}
		if !g.Linked(current.ID, next, 0) {
			break
		}
		current, _ = g.Node(next)
	}
	if current.IsExternal() {
		return current, nil
	}

	var missing []string
	for _, child := range g.Children(current.ID, 0) {
		if n, _ := g.Node(child); n.IsExternal() {
			missing = append(missing, child)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		n, _ := g.Node(missing[0])
		return n, nil
	}
	return current, nil
}

// Explanation is a user-facing description of a resolution failure.
type Explanation struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	Chain     []string    `json:"chain,omitempty"`
	RootCause string      `json:"root_cause,omitempty"`
	Missing   bool        `json:"missing"` // RootCause is absent from the graph
}

// String renders the explanation over several lines.
func (e Explanation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, "\n  chain: %s", strings.Join(e.Chain, " -> "))
	}
	if e.RootCause != "" {
		what := "blocked at"
		if e.Missing {
			what = "missing"
		}
		fmt.Fprintf(&b, "\n  root cause: %s (%s)", e.RootCause, what)
	}
	return b.String()
}

// Explain describes err. When err carries a chain and g is not nil, the
// root cause is located in g: the missing node for an unresolved
// dependency, the requesting node for an ambiguous provider. Errors without
// a chain are described as is.
func Explain(g *dag.DAG, err error) Explanation {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return Explanation{Code: errors.ErrCodeInternal, Message: err.Error()}
	}
	ex := Explanation{Code: e.Code, Message: e.Message, Chain: e.Chain}
	if len(e.Chain) == 0 || g == nil {
		return ex
	}

	switch e.Code {
	case errors.ErrCodeUnresolvedDependency:
		if n, rcErr := FindRootCause(g, e.Chain); rcErr == nil {
			ex.RootCause = n.ID
			ex.Missing = n.IsExternal()
		}
	case errors.ErrCodeAmbiguousProvider:
		// Nothing is missing: the chain ends in the requirement name and the
		// node before it is the one that asked.
		if n, ok := g.Node(e.Chain[max(len(e.Chain)-2, 0)]); ok {
			ex.RootCause = n.ID
		}
	}
	return ex
}
