package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/buildorder/pkg/bundle"
	"github.com/matzehuels/buildorder/pkg/cache"
	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/errors"
	bio "github.com/matzehuels/buildorder/pkg/io"
	"github.com/matzehuels/buildorder/pkg/observability"
	"github.com/matzehuels/buildorder/pkg/order"
)

// Runner executes pipeline operations with caching.
//
// A Runner holds only the cache, keyer, hooks and logger; every call builds
// its own graph and resolver session, so one Runner can serve concurrent
// requests. The owner closes it, which closes the cache.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Hooks  observability.Hooks
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Hooks:  observability.Hooks{}.WithDefaults(),
		Logger: logger,
	}
}

// Load reads the workspace, builds the project graph and, unless
// SkipContainers is set, runs the container stage.
func (r *Runner) Load(ctx context.Context, opts Options) (*Loaded, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	src, err := readSource(&opts)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, src, &opts)
}

func (r *Runner) load(ctx context.Context, src *source, opts *Options) (*Loaded, error) {
	start := time.Now()
	l, err := parse(src, opts)
	if err == nil && !opts.SkipContainers {
		err = resolveContainers(l, opts)
	}

	projects, bundles := 0, 0
	if l != nil {
		projects, bundles = len(l.Workspace.Projects), len(l.Workspace.Bundles)
	}
	r.hooks().Pipeline.OnLoad(ctx, projects, bundles, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("loaded workspace",
		"file", src.filename,
		"projects", projects,
		"bundles", bundles,
		"nodes", l.Graph.NodeCount(),
		"edges", l.Graph.EdgeCount(),
		"duration", time.Since(start))
	if ext := l.Graph.Externals(); len(ext) > 0 {
		r.Logger.Debug("unresolved references", "externals", dag.NodeIDs(ext))
	}
	return l, nil
}

// Order computes the build order.
func (r *Runner) Order(ctx context.Context, opts Options) (*OrderResult, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	src, err := readSource(&opts)
	if err != nil {
		return nil, err
	}

	res := &OrderResult{}
	res.CacheInfo.Key = r.Keyer.OrderKey(src.hash, opts.OrderKeyOpts())
	if r.lookup(ctx, "order", res.CacheInfo.Key, opts.Refresh, &res.Report) {
		res.CacheInfo.Hit = true
		return res, nil
	}

	loadStart := time.Now()
	l, err := r.load(ctx, src, &opts)
	if err != nil {
		return nil, err
	}
	res.Stats = statsOf(l)
	res.Stats.LoadTime = time.Since(loadStart)

	roots := opts.Roots
	if opts.Set != "" {
		if roots, err = l.Workspace.SetProjects(opts.Set); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	r.hooks().Pipeline.OnResolveStart(ctx, "order", len(roots))
	oopts := order.Options{
		Kinds:           opts.kinds,
		StrictCycles:    opts.StrictCycles,
		ReportCycles:    true,
		IncludeExternal: opts.IncludeExternal,
		SkipResolution:  opts.NoResolve,
	}
	out, err := order.Resolve(l.Graph, roots, oopts)
	res.Stats.ResolveTime = time.Since(start)
	if err != nil {
		r.hooks().Pipeline.OnResolveComplete(ctx, "order", 0, res.Stats.ResolveTime, err)
		return nil, explain(l.Graph, err)
	}
	r.hooks().Pipeline.OnResolveComplete(ctx, "order", len(out.Order), res.Stats.ResolveTime, nil)
	for _, c := range out.Cycles {
		r.hooks().Pipeline.OnCycle(ctx, len(c))
		r.Logger.Warn("cyclic project references", "cycle", c)
	}

	res.Report = bio.NewOrderReport(out, oopts)
	r.store(ctx, "order", res.CacheInfo.Key, res.Report, cache.TTLOrder)

	r.Logger.Info("resolved build order",
		"roots", len(out.Roots),
		"projects", len(out.Order),
		"cycles", len(out.Cycles),
		"duration", res.Stats.ResolveTime)
	return res, nil
}

// Cycles reports every reference cycle over the counted kinds.
func (r *Runner) Cycles(ctx context.Context, opts Options) (*CyclesResult, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	src, err := readSource(&opts)
	if err != nil {
		return nil, err
	}

	res := &CyclesResult{Kinds: opts.kinds.Strings()}
	res.CacheInfo.Key = r.Keyer.CyclesKey(src.hash, opts.CyclesKeyOpts())
	if r.lookup(ctx, "cycles", res.CacheInfo.Key, opts.Refresh, &res.Cycles) {
		res.CacheInfo.Hit = true
		return res, nil
	}

	loadStart := time.Now()
	l, err := r.load(ctx, src, &opts)
	if err != nil {
		return nil, err
	}
	res.Stats = statsOf(l)
	res.Stats.LoadTime = time.Since(loadStart)

	start := time.Now()
	r.hooks().Pipeline.OnResolveStart(ctx, "cycles", 0)
	res.Cycles = order.FindCycles(l.Graph, opts.kinds)
	res.Stats.ResolveTime = time.Since(start)
	r.hooks().Pipeline.OnResolveComplete(ctx, "cycles", len(res.Cycles), res.Stats.ResolveTime, nil)
	for _, c := range res.Cycles {
		r.hooks().Pipeline.OnCycle(ctx, len(c))
	}

	r.store(ctx, "cycles", res.CacheInfo.Key, res.Cycles, cache.TTLCycles)
	return res, nil
}

type classpathDoc struct {
	Platform   string                `json:"platform"`
	Classpaths []bio.ClasspathReport `json:"classpaths"`
}

// Classpath resolves the bundle classpath of each root. Roots name a
// project, a bundle ID ("name_version") or a symbolic name. A project set
// selects its projects' bundles.
func (r *Runner) Classpath(ctx context.Context, opts Options) (*ClasspathResult, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}
	if len(opts.Roots) == 0 && opts.Set == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one bundle root is required")
	}
	src, err := readSource(&opts)
	if err != nil {
		return nil, err
	}

	res := &ClasspathResult{}
	kopts := opts.ClasspathKeyOpts()
	if opts.Set != "" {
		kopts.Roots = []string{"set:" + opts.Set}
	}
	res.CacheInfo.Key = r.Keyer.ClasspathKey(src.hash, kopts)
	var doc classpathDoc
	if r.lookup(ctx, "classpath", res.CacheInfo.Key, opts.Refresh, &doc) {
		res.Platform, res.Classpaths = doc.Platform, doc.Classpaths
		res.CacheInfo.Hit = true
		return res, nil
	}

	// The container stage does not affect classpaths.
	opts.SkipContainers = true
	loadStart := time.Now()
	l, err := r.load(ctx, src, &opts)
	if err != nil {
		return nil, err
	}
	res.Stats = statsOf(l)
	res.Stats.LoadTime = time.Since(loadStart)

	roots := opts.Roots
	if opts.Set != "" {
		if roots, err = l.Workspace.SetProjects(opts.Set); err != nil {
			return nil, err
		}
	}
	p, err := l.Platform(opts.Platform, opts.policy)
	if err != nil {
		return nil, err
	}
	res.Platform = p.ID

	start := time.Now()
	r.hooks().Pipeline.OnResolveStart(ctx, "classpath", len(roots))
	resolver := bundle.NewResolver(p, bundle.Options{Policy: opts.policy})
	entries := 0
	for _, ref := range roots {
		b, err := lookupBundle(p, ref)
		if err == nil {
			var cp *bundle.Classpath
			if cp, err = resolver.ResolveClasspath(b.Identity); err == nil {
				res.Classpaths = append(res.Classpaths, bio.NewClasspathReport(cp))
				entries += len(cp.Entries)
				continue
			}
		}
		res.Stats.ResolveTime = time.Since(start)
		r.hooks().Pipeline.OnResolveComplete(ctx, "classpath", 0, res.Stats.ResolveTime, err)
		return nil, explain(p.Graph(), err)
	}
	res.Stats.ResolveTime = time.Since(start)
	r.hooks().Pipeline.OnResolveComplete(ctx, "classpath", entries, res.Stats.ResolveTime, nil)

	hits, misses := resolver.Session().Stats()
	r.Logger.Debug("resolved classpaths",
		"roots", len(roots),
		"platform", p.ID,
		"session_hits", hits,
		"session_misses", misses,
		"duration", res.Stats.ResolveTime)

	r.store(ctx, "classpath", res.CacheInfo.Key, classpathDoc{res.Platform, res.Classpaths}, cache.TTLClasspath)
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) prepare(opts *Options) error {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	return nil
}

func (r *Runner) hooks() observability.Hooks { return r.Hooks.WithDefaults() }

// lookup decodes a cached value into v. Read and decode failures count as
// misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string, refresh bool, v any) bool {
	if refresh {
		return false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		r.hooks().Cache.OnCacheMiss(ctx, keyType)
		return false
	}
	r.hooks().Cache.OnCacheHit(ctx, keyType)
	r.Logger.Debug("cache hit", "type", keyType)
	return true
}

func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	r.hooks().Cache.OnCacheSet(ctx, keyType, len(data))
}

func statsOf(l *Loaded) Stats {
	return Stats{
		Projects:   len(l.Workspace.Projects),
		Bundles:    len(l.Workspace.Bundles),
		NodeCount:  l.Graph.NodeCount(),
		EdgeCount:  l.Graph.EdgeCount(),
		Containers: l.Containers,
	}
}
