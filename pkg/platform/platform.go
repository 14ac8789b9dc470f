// Package platform holds the set of bundles a workspace is resolved
// against and answers provider lookups for the bundle resolver.
//
// A [Platform] indexes bundles by identity, symbolic name and exported
// package. Each fragment is attached to one bundle matching its host
// requirement, chosen by the platform's ambiguity policy. The resolver reads
// that choice through [Platform.Host], so a fragment's own classpath and the
// host entry carrying its locations always agree. [Platform.Graph] turns the platform into a
// reference graph with one external node per unsatisfiable requirement,
// which is what failure diagnostics walk.
package platform

import (
	"slices"

	"github.com/matzehuels/buildorder/pkg/bundle"
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
)

// Platform is an indexed set of bundles. It implements [bundle.Provider].
// A Platform is not safe for concurrent use.
type Platform struct {
	ID string

	policy    bundle.AmbiguityPolicy
	bundles   []*bundle.Bundle
	byID      map[string]*bundle.Bundle
	byName    map[string][]*bundle.Bundle
	exporters map[string][]*bundle.Bundle
	byProject map[string]*bundle.Bundle

	attached map[string][]*bundle.Bundle // host ID -> fragments, nil until computed
	hostOf   map[string]*bundle.Bundle   // fragment ID -> host
	hostErr  error                       // first fragment with an ambiguous host
}

// New returns an empty platform.
func New(id string) *Platform {
	return &Platform{
		ID:        id,
		byID:      make(map[string]*bundle.Bundle),
		byName:    make(map[string][]*bundle.Bundle),
		exporters: make(map[string][]*bundle.Bundle),
		byProject: make(map[string]*bundle.Bundle),
	}
}

// Add registers a bundle. Identities and projects must be unique.
func (p *Platform) Add(b *bundle.Bundle) error {
	if err := errors.ValidateSymbolicName(b.Name); err != nil {
		return err
	}
	id := b.String()
	if _, dup := p.byID[id]; dup {
		return errors.New(errors.ErrCodeInvalidWorkspace, "duplicate bundle %s in platform %q", id, p.ID)
	}
	if b.Project != "" {
		if other, dup := p.byProject[b.Project]; dup {
			return errors.New(errors.ErrCodeInvalidWorkspace, "project %q backs both %s and %s", b.Project, other, id)
		}
		p.byProject[b.Project] = b
	}

	p.bundles = append(p.bundles, b)
	p.byID[id] = b
	p.byName[b.Name] = append(p.byName[b.Name], b)
	for _, pkg := range b.Exports {
		if !slices.Contains(p.exporters[pkg.Name], b) {
			p.exporters[pkg.Name] = append(p.exporters[pkg.Name], b)
		}
	}
	p.attached, p.hostOf = nil, nil
	return nil
}

// SetPolicy sets how a fragment matching several hosts is attached. The
// default, [bundle.PolicyFail], leaves such a fragment unattached and
// reports it from [Platform.Attach].
func (p *Platform) SetPolicy(policy bundle.AmbiguityPolicy) {
	p.policy = policy
	p.attached, p.hostOf = nil, nil
}

// Policy returns the fragment attachment policy.
func (p *Platform) Policy() bundle.AmbiguityPolicy { return p.policy }

// Attach attaches every fragment to its host and returns an
// AMBIGUOUS_PROVIDER error for the first fragment, in declaration order,
// whose host the policy refuses to choose.
func (p *Platform) Attach() error {
	p.attach()
	return p.hostErr
}

// Bundles returns all bundles in declaration order.
func (p *Platform) Bundles() []*bundle.Bundle { return p.bundles }

// Len returns the number of bundles.
func (p *Platform) Len() int { return len(p.bundles) }

// Lookup returns the bundle with the given identity.
func (p *Platform) Lookup(id bundle.Identity) (*bundle.Bundle, bool) {
	b, ok := p.byID[id.String()]
	return b, ok
}

// LookupProject returns the bundle backed by a workspace project.
func (p *Platform) LookupProject(project string) (*bundle.Bundle, bool) {
	b, ok := p.byProject[project]
	return b, ok
}

// Candidates returns the non-fragment bundles satisfying req in declaration
// order. Import requirements match exporters of the package; require and
// host requirements match by symbolic name.
func (p *Platform) Candidates(req bundle.Requirement) []*bundle.Bundle {
	var pool []*bundle.Bundle
	if req.Kind == dag.RefImport {
		pool = p.exporters[req.Name]
	} else {
		pool = p.byName[req.Name]
	}

	var out []*bundle.Bundle
	for _, b := range pool {
		if b.IsFragment() {
			continue
		}
		if req.Kind == dag.RefImport {
			if b.ExportsPackage(req.Name, req.Range) {
				out = append(out, b)
			}
		} else if req.Range.Includes(b.Version) {
			out = append(out, b)
		}
	}
	return out
}

// Fragments returns the fragments attached to host.
func (p *Platform) Fragments(host bundle.Identity) []*bundle.Bundle {
	p.attach()
	return p.attached[host.String()]
}

// Host returns the bundle a fragment is attached to.
func (p *Platform) Host(fragment bundle.Identity) (*bundle.Bundle, bool) {
	p.attach()
	h, ok := p.hostOf[fragment.String()]
	return h, ok
}

func (p *Platform) attach() {
	if p.attached != nil {
		return
	}
	p.attached = make(map[string][]*bundle.Bundle)
	p.hostOf = make(map[string]*bundle.Bundle)
	p.hostErr = nil
	for _, f := range p.bundles {
		if !f.IsFragment() {
			continue
		}
		hosts := p.Candidates(*f.Host)
		if len(hosts) == 0 {
			continue
		}
		host := hosts[0]
		if len(hosts) > 1 {
			if host = p.policy.Pick(hosts); host == nil {
				if p.hostErr == nil {
					p.hostErr = bundle.Ambiguous(f, *f.Host, hosts, []string{f.String()})
				}
				continue
			}
		}
		p.attached[host.String()] = append(p.attached[host.String()], f)
		p.hostOf[f.String()] = host
	}
}

// Graph builds the bundle reference graph of the platform.
//
// Every bundle becomes a node identified by "name_version". Each
// requirement adds an edge of its kind to every candidate provider; a
// mandatory requirement without candidates adds an edge to an external
// node named after the requirement. Fragments link to their host with a
// host edge.
func (p *Platform) Graph() *dag.DAG {
	p.attach()
	g := dag.New(dag.Metadata{"platform": p.ID})

	for _, b := range p.bundles {
		n := dag.Node{
			ID:      b.String(),
			Kind:    dag.NodeKindBundle,
			Version: b.Version.String(),
			Meta:    dag.Metadata{"name": b.Name},
		}
		if b.Project != "" {
			n.Meta["project"] = b.Project
		}
		if h, ok := p.hostOf[b.String()]; ok {
			n.FragmentHost = h.String()
		}
		_ = g.AddNode(n)
	}

	link := func(from *bundle.Bundle, req bundle.Requirement) {
		cands := p.Candidates(req)
		if len(cands) == 0 {
			if req.Optional {
				return
			}
			if _, ok := g.Node(req.Name); !ok {
				_ = g.AddNode(dag.Node{
					ID:   req.Name,
					Kind: dag.NodeKindExternal,
					Meta: dag.Metadata{"requirement": req.String()},
				})
			}
			_ = g.AddEdge(dag.Edge{From: from.String(), To: req.Name, Kind: req.Kind})
			return
		}
		for _, c := range cands {
			if c == from {
				continue
			}
			_ = g.AddEdge(dag.Edge{From: from.String(), To: c.String(), Kind: req.Kind})
		}
	}

	for _, b := range p.bundles {
		if b.Host != nil {
			if h, ok := p.hostOf[b.String()]; ok {
				_ = g.AddEdge(dag.Edge{From: b.String(), To: h.String(), Kind: dag.RefHost})
			} else {
				link(b, *b.Host)
			}
		}
		for _, req := range b.Requirements() {
			link(b, req)
		}
	}
	return g
}
