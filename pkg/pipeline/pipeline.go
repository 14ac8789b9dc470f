// Package pipeline runs build-order and classpath resolution end to end.
//
// The CLI and the HTTP API both go through a [Runner], so loading, caching
// and error diagnosis behave the same everywhere.
//
// # Stages
//
//  1. Load: parse the workspace description and build the project graph
//  2. Containers: resolve the classpath of every project backed by a bundle
//     and add a container edge to each workspace project it reaches
//  3. Order: compute the build order over the counted reference kinds
//  4. Classpath: resolve bundle classpaths for requested roots
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//
//	res, err := runner.Order(ctx, pipeline.Options{Workspace: "workspace.toml"})
//	if err != nil {
//	    var f *pipeline.Failure
//	    if errors.As(err, &f) {
//	        fmt.Println(f.Explanation)
//	    }
//	    return err
//	}
//	fmt.Println(res.Report.Order)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/buildorder/pkg/bundle"
	"github.com/matzehuels/buildorder/pkg/cache"
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/diagnose"
	"github.com/matzehuels/buildorder/pkg/errors"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/workspace"
)

// Defaults shared by the CLI and the API.
const (
	// DefaultKinds counts project references and the project references
	// discovered through bundle containers.
	DefaultKinds = "project,container"

	// DefaultPolicy fails on ambiguous bundle providers.
	DefaultPolicy = "fail"
)

// Options configures a pipeline run. It is the request body of the HTTP API.
type Options struct {
	// Workspace is the path of a workspace description file.
	Workspace string `json:"-"`
	// Source is an inline workspace description, used when Workspace is
	// empty. Environment references in Source are never expanded.
	Source string `json:"workspace,omitempty"`
	// Format is the syntax of Source: toml, hcl or json. Default toml.
	Format string `json:"format,omitempty"`
	// Dir resolves relative bundle locations of an inline Source.
	Dir string `json:"-"`
	// Graph is the path of a reference graph written by Render with
	// FormatJSON. It replaces the workspace: the graph already carries its
	// container edges and has no bundles.
	Graph string `json:"-"`

	// Roots selects the projects to order, or the bundles to resolve.
	// Empty selects every project.
	Roots []string `json:"roots,omitempty"`
	// Set selects the roots from a named project set.
	Set string `json:"set,omitempty"`

	Kinds           string `json:"kinds,omitempty"`            // Comma-separated counted kinds
	Strict          bool   `json:"strict,omitempty"`           // Unknown references fail instead of becoming externals
	StrictCycles    bool   `json:"strict_cycles,omitempty"`    // Cycles fail with CYCLE_DETECTED
	IncludeExternal bool   `json:"include_external,omitempty"` // Keep external pseudo-nodes in the order
	NoResolve       bool   `json:"no_resolve,omitempty"`       // Return the roots as given
	SkipContainers  bool   `json:"skip_containers,omitempty"`  // Skip the container stage

	Platform string `json:"platform,omitempty"` // Target platform ID
	Policy   string `json:"policy,omitempty"`   // Ambiguity policy: fail, highest, first

	Refresh bool `json:"refresh,omitempty"` // Bypass cached results

	Logger *log.Logger `json:"-"`

	kinds     dag.KindSet
	policy    bundle.AmbiguityPolicy
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Graph != "" && (o.Workspace != "" || o.Source != "") {
		return errors.New(errors.ErrCodeInvalidInput, "graph and workspace are mutually exclusive")
	}
	if o.Workspace == "" && o.Source == "" && o.Graph == "" {
		return errors.New(errors.ErrCodeInvalidInput, "workspace is required")
	}
	if o.Workspace == "" && o.Graph == "" && o.Format == "" {
		o.Format = string(workspace.FormatTOML)
	}
	if o.Set != "" && len(o.Roots) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "roots and set are mutually exclusive")
	}
	for _, r := range o.Roots {
		if err := errors.ValidateNodeID(r); err != nil {
			return err
		}
	}

	if o.Kinds == "" {
		o.Kinds = DefaultKinds
	}
	kinds, err := dag.ParseKinds(o.Kinds)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "kinds")
	}
	o.kinds = kinds
	o.Kinds = kinds.String()

	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	policy, err := bundle.ParsePolicy(o.Policy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "policy")
	}
	o.policy = policy

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// OrderKeyOpts returns the cache key options of a build order.
func (o *Options) OrderKeyOpts() cache.OrderKeyOpts {
	return cache.OrderKeyOpts{
		Roots:             o.Roots,
		Set:               o.Set,
		Kinds:             o.Kinds,
		Strict:            o.Strict,
		StrictCycles:      o.StrictCycles,
		IncludeExternal:   o.IncludeExternal,
		SkipResolution:    o.NoResolve,
		ResolveContainers: !o.SkipContainers,
		Platform:          o.Platform,
		Policy:            o.Policy,
	}
}

// CyclesKeyOpts returns the cache key options of a cycle report.
func (o *Options) CyclesKeyOpts() cache.CyclesKeyOpts {
	return cache.CyclesKeyOpts{
		Kinds:             o.Kinds,
		Strict:            o.Strict,
		ResolveContainers: !o.SkipContainers,
		Platform:          o.Platform,
		Policy:            o.Policy,
	}
}

// ClasspathKeyOpts returns the cache key options of a classpath run.
func (o *Options) ClasspathKeyOpts() cache.ClasspathKeyOpts {
	return cache.ClasspathKeyOpts{
		Roots:    o.Roots,
		Platform: o.Platform,
		Policy:   o.Policy,
	}
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Projects    int
	Bundles     int
	NodeCount   int
	EdgeCount   int
	Containers  int // Container edges added
	LoadTime    time.Duration
	ResolveTime time.Duration
}

// CacheInfo tracks whether the result came from the cache.
type CacheInfo struct {
	Hit bool
	Key string
}

// OrderResult is the outcome of [Runner.Order].
type OrderResult struct {
	Report    bio.OrderReport
	Stats     Stats
	CacheInfo CacheInfo
}

// ClasspathResult is the outcome of [Runner.Classpath].
type ClasspathResult struct {
	Platform   string
	Classpaths []bio.ClasspathReport
	Stats      Stats
	CacheInfo  CacheInfo
}

// CyclesResult is the outcome of [Runner.Cycles].
type CyclesResult struct {
	Kinds     []string
	Cycles    [][]string
	Stats     Stats
	CacheInfo CacheInfo
}

// Failure wraps a resolution error with the diagnosis of its root cause.
type Failure struct {
	Explanation diagnose.Explanation
	Err         error
}

func (f *Failure) Error() string { return f.Err.Error() }

// Unwrap returns the resolution error.
func (f *Failure) Unwrap() error { return f.Err }

// explain wraps resolution failures. Other errors pass through unchanged.
func explain(g *dag.DAG, err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeUnresolvedDependency, errors.ErrCodeAmbiguousProvider, errors.ErrCodeCycleDetected:
		return &Failure{Explanation: diagnose.Explain(g, err), Err: err}
	}
	return err
}
