package bundle

import (
	"slices"
	"strings"

	"github.com/matzehuels/buildorder/pkg/errors"
)

// Entry is the classpath contribution of one bundle together with the
// fragments attached to it.
type Entry struct {
	Bundle           Identity   // Host or regular bundle
	Project          string     // Workspace project, empty for binary bundles
	Locations        []string   // Bundle locations, then fragment locations
	Fragments        []Identity // Attached fragments, in provider order
	FragmentProjects []string   // Workspace projects of attached fragments
}

// Classpath is the resolved classpath of a root bundle.
type Classpath struct {
	Root     Identity
	Entries  []Entry  // First-reached order, root excluded
	Projects []string // Workspace projects among the entries, in entry order
}

// Locations flattens the entries into one location list.
func (c *Classpath) Locations() []string {
	var out []string
	for _, e := range c.Entries {
		out = append(out, e.Locations...)
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Classpath) Clone() *Classpath {
	out := &Classpath{Root: c.Root, Projects: slices.Clone(c.Projects)}
	out.Entries = make([]Entry, len(c.Entries))
	for i, e := range c.Entries {
		out.Entries[i] = e.clone()
	}
	return out
}

func (e Entry) clone() Entry {
	e.Locations = slices.Clone(e.Locations)
	e.Fragments = slices.Clone(e.Fragments)
	e.FragmentProjects = slices.Clone(e.FragmentProjects)
	return e
}

// Contains reports whether the classpath has an entry for id.
func (c *Classpath) Contains(id Identity) bool {
	return slices.ContainsFunc(c.Entries, func(e Entry) bool { return e.Bundle.key() == id.key() })
}

// Options configures a Resolver.
type Options struct {
	Policy AmbiguityPolicy // Ambiguous provider handling (default: fail)
}

// Resolver computes bundle classpaths against a Provider.
type Resolver struct {
	provider Provider
	opts     Options
	session  *Session
}

// NewResolver creates a resolver with a fresh session.
func NewResolver(p Provider, opts Options) *Resolver {
	return &Resolver{provider: p, opts: opts, session: NewSession()}
}

// Session returns the resolver's session.
func (r *Resolver) Session() *Session { return r.session }

// Reset clears the session cache.
func (r *Resolver) Reset() { r.session.Reset() }

// ResolveClasspath computes the classpath of the bundle root.
//
// Entries are listed in first-reached order: the root's requirements in
// declaration order (required bundles, then imported packages), depth
// first, each bundle at most once. For a fragment root the host entry comes
// first, then the host's closure, then the fragment's own requirements.
//
// Every call returns a fresh copy; changing it does not affect the session.
func (r *Resolver) ResolveClasspath(root Identity) (*Classpath, error) {
	if cp, ok := r.session.result(root); ok {
		return cp.Clone(), nil
	}

	b, ok := r.provider.Lookup(root)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownNode, "unknown bundle %s", root)
	}

	w := &walk{
		r:       r,
		cp:      &Classpath{Root: root},
		visited: map[key]bool{root.key(): true},
		seenPrj: map[string]bool{},
	}
	chain := []string{root.String()}

	if b.IsFragment() {
		// The host is the one whose entry carries the fragment.
		if host, ok := r.provider.Host(b.Identity); ok {
			if err := w.include(host, chain); err != nil {
				return nil, err
			}
		} else if err := w.unattached(b, chain); err != nil {
			return nil, err
		}
		if err := w.requirements(b, b.Requirements(), chain); err != nil {
			return nil, err
		}
	} else if err := w.closure(b, chain); err != nil {
		return nil, err
	}

	r.session.results[root.key()] = w.cp
	return w.cp.Clone(), nil
}

type walk struct {
	r       *Resolver
	cp      *Classpath
	visited map[key]bool
	seenPrj map[string]bool
}

// include adds b's entry and then walks its closure.
func (w *walk) include(b *Bundle, chain []string) error {
	if w.visited[b.key()] {
		return nil
	}
	w.visited[b.key()] = true
	for _, f := range w.r.provider.Fragments(b.Identity) {
		w.visited[f.key()] = true
	}

	e := w.r.session.entry(b, w.r.provider)
	w.cp.Entries = append(w.cp.Entries, e.clone())
	w.addProject(e.Project)
	for _, p := range e.FragmentProjects {
		w.addProject(p)
	}

	return w.closure(b, append(slices.Clip(chain), b.String()))
}

// closure walks the requirements of b and of the fragments attached to it.
func (w *walk) closure(b *Bundle, chain []string) error {
	if err := w.requirements(b, b.Requirements(), chain); err != nil {
		return err
	}
	for _, f := range w.r.provider.Fragments(b.Identity) {
		if err := w.requirements(f, f.Requirements(), chain); err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) requirements(from *Bundle, reqs []Requirement, chain []string) error {
	for _, req := range reqs {
		p, err := w.choose(from, req, chain)
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		if err := w.include(p, chain); err != nil {
			return err
		}
	}
	return nil
}

// choose selects the provider of req. It returns nil without error when an
// optional requirement cannot be satisfied or req resolves to from itself.
func (w *walk) choose(from *Bundle, req Requirement, chain []string) (*Bundle, error) {
	var candidates []*Bundle
	for _, c := range w.r.provider.Candidates(req) {
		if c.key() == from.key() {
			return nil, nil
		}
		candidates = append(candidates, c)
	}

	switch len(candidates) {
	case 0:
		if req.Optional {
			return nil, nil
		}
		return nil, unresolved(from, req, chain)
	case 1:
		return candidates[0], nil
	}

	if p := w.r.opts.Policy.Pick(candidates); p != nil {
		return p, nil
	}
	return nil, Ambiguous(from, req, candidates, chain)
}

// unattached reports why fragment f has no host. A missing optional host is
// not an error.
func (w *walk) unattached(f *Bundle, chain []string) error {
	candidates := w.r.provider.Candidates(*f.Host)
	if len(candidates) == 0 {
		if f.Host.Optional {
			return nil
		}
		return unresolved(f, *f.Host, chain)
	}
	return Ambiguous(f, *f.Host, candidates, chain)
}

func unresolved(from *Bundle, req Requirement, chain []string) error {
	return errors.Unresolved(append(slices.Clip(chain), req.Name), req.Name,
		"no provider for %s %s required by %s", req.Kind, req, from)
}

// Ambiguous returns the AMBIGUOUS_PROVIDER error for req of from. The chain
// is extended by the requirement name.
func Ambiguous(from *Bundle, req Requirement, candidates []*Bundle, chain []string) error {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.String()
	}
	e := errors.New(errors.ErrCodeAmbiguousProvider,
		"%s %s required by %s has %d providers: %s",
		req.Kind, req, from, len(candidates), strings.Join(names, ", ")).
		WithChain(append(slices.Clip(chain), req.Name))
	e.Subject = req.Name
	return e
}

func (w *walk) addProject(p string) {
	if p == "" || w.seenPrj[p] {
		return
	}
	w.seenPrj[p] = true
	w.cp.Projects = append(w.cp.Projects, p)
}
