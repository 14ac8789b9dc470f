package pipeline

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/matzehuels/buildorder/pkg/bundle"
	"github.com/matzehuels/buildorder/pkg/cache"
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/platform"
	"github.com/matzehuels/buildorder/pkg/workspace"
)

// formatGraph marks a source holding an exported reference graph.
const formatGraph workspace.Format = "graph"

// source is a workspace description that has been read but not parsed.
type source struct {
	data     []byte
	format   workspace.Format
	filename string
	dir      string
	hash     string
	inline   bool // not read from a local file; parsed without env expansion
}

func readSource(opts *Options) (*source, error) {
	if opts.Graph != "" {
		return readFile(opts.Graph, formatGraph)
	}
	if opts.Workspace == "" {
		dir := opts.Dir
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "working directory")
			}
			dir = wd
		}
		src := &source{
			data:     []byte(opts.Source),
			format:   workspace.Format(opts.Format),
			filename: "workspace." + opts.Format,
			dir:      dir,
			inline:   true,
		}
		src.hash = cache.Hash([]byte(dir + "\x00" + opts.Format + "\x00" + opts.Source))
		return src, nil
	}

	format, err := workspace.FormatOf(opts.Workspace)
	if err != nil {
		return nil, err
	}
	return readFile(opts.Workspace, format)
}

func readFile(path string, format workspace.Format) (*source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "workspace file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read workspace file %s", path)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "resolve workspace dir")
	}
	return &source{
		data:     data,
		format:   format,
		filename: path,
		dir:      dir,
		hash:     cache.Hash([]byte(dir + "\x00" + string(format) + "\x00" + string(data))),
	}, nil
}

// Loaded is a parsed workspace together with its project graph.
type Loaded struct {
	Workspace *workspace.Workspace
	Graph     *dag.DAG
	Hash      string // Content hash of the description

	// Containers is the number of container edges added to Graph.
	Containers int

	platform *platform.Platform
}

// Platform returns the target platform used by the container stage, or
// selects one when that stage did not run. Fragments are attached under
// policy; a fragment whose host policy refuses to choose fails with
// AMBIGUOUS_PROVIDER.
func (l *Loaded) Platform(id string, policy bundle.AmbiguityPolicy) (*platform.Platform, error) {
	if l.platform != nil && (id == "" || id == l.platform.ID) && l.platform.Policy() == policy {
		return l.platform, nil
	}
	p, err := l.Workspace.Platform(id)
	if err != nil {
		return nil, err
	}
	p.SetPolicy(policy)
	if err := p.Attach(); err != nil {
		return nil, explain(p.Graph(), err)
	}
	l.platform = p
	return p, nil
}

func parse(src *source, opts *Options) (*Loaded, error) {
	if src.format == formatGraph {
		g, err := bio.ReadJSON(bytes.NewReader(src.data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph file %s", src.filename)
		}
		return &Loaded{Workspace: &workspace.Workspace{Dir: src.dir}, Graph: g, Hash: src.hash}, nil
	}
	ws, err := workspace.ParseWith(src.data, src.format, src.filename, src.dir,
		workspace.ParseOptions{NoEnv: src.inline})
	if err != nil {
		return nil, err
	}
	g, err := workspace.BuildGraph(ws, workspace.GraphOptions{Strict: opts.Strict})
	if err != nil {
		return nil, explain(nil, err)
	}
	return &Loaded{Workspace: ws, Graph: g, Hash: src.hash}, nil
}

// resolveContainers resolves the classpath of every project that is backed
// by a bundle and adds a container edge from the project to each other
// workspace project on that classpath.
func resolveContainers(l *Loaded, opts *Options) error {
	if len(l.Workspace.Bundles) == 0 {
		return nil
	}
	p, err := l.Platform(opts.Platform, opts.policy)
	if err != nil {
		return err
	}

	r := bundle.NewResolver(p, bundle.Options{Policy: opts.policy})
	for _, name := range l.Workspace.ProjectNames() {
		b, ok := p.LookupProject(name)
		if !ok {
			continue
		}
		cp, err := r.ResolveClasspath(b.Identity)
		if err != nil {
			return explain(p.Graph(), err)
		}
		for _, ref := range cp.Projects {
			if ref == name || l.Graph.HasEdge(name, ref, dag.RefContainer) {
				continue
			}
			if err := l.Graph.AddEdge(dag.Edge{From: name, To: ref, Kind: dag.RefContainer}); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "container edge %s -> %s", name, ref)
			}
			l.Containers++
		}
	}
	opts.Logger.Debug("resolved containers", "platform", p.ID, "edges", l.Containers)
	return nil
}

// lookupBundle finds a bundle by project name, node ID ("name_version") or
// symbolic name. A symbolic name selects the highest version.
func lookupBundle(p *platform.Platform, ref string) (*bundle.Bundle, error) {
	if b, ok := p.LookupProject(ref); ok {
		return b, nil
	}
	var best *bundle.Bundle
	for _, b := range p.Bundles() {
		if b.String() == ref {
			return b, nil
		}
		if b.Name == ref && (best == nil || best.Identity.Less(b.Identity)) {
			best = b
		}
	}
	if best == nil {
		return nil, errors.New(errors.ErrCodeUnknownNode, "no bundle %q in platform %s", ref, p.ID)
	}
	return best, nil
}
