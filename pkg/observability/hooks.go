// Package observability provides hooks for metrics and tracing.
//
// The resolution pipeline, the cache layer and the HTTP API report events
// through small hook interfaces. No-op implementations are the default, so
// the core packages carry no dependency on a metrics backend; the
// [metrics] subpackage implements the hooks with Prometheus.
//
// Hooks are usually injected explicitly through [Hooks]:
//
//	m := metrics.New(prometheus.NewRegistry())
//	runner := pipeline.NewRunner(c, nil, logger)
//	runner.Hooks = m.Hooks()
//
// A process-wide registry ([SetPipelineHooks] and friends) remains for
// callers that cannot thread hooks through.
//
// [metrics]: github.com/matzehuels/buildorder/pkg/observability/metrics
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the resolution pipeline.
type PipelineHooks interface {
	// OnLoad is called after a workspace description was parsed.
	OnLoad(ctx context.Context, projects, bundles int, duration time.Duration, err error)

	// OnResolveStart and OnResolveComplete bracket one operation
	// ("order", "classpath" or "cycles").
	OnResolveStart(ctx context.Context, op string, roots int)
	OnResolveComplete(ctx context.Context, op string, nodes int, duration time.Duration, err error)

	// OnCycle is called once per reference cycle found while ordering.
	OnCycle(ctx context.Context, size int)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// APIHooks receives events from the HTTP API.
type APIHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)
}

// Hooks bundles the hook sets handed to a pipeline runner or API server.
// Nil members fall back to the process-wide registry.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	API      APIHooks
}

// WithDefaults fills unset members from the registry.
func (h Hooks) WithDefaults() Hooks {
	if h.Pipeline == nil {
		h.Pipeline = Pipeline()
	}
	if h.Cache == nil {
		h.Cache = Cache()
	}
	if h.API == nil {
		h.API = API()
	}
	return h
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoad(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnResolveStart(context.Context, string, int)            {}
func (NoopPipelineHooks) OnResolveComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnCycle(context.Context, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopAPIHooks is a no-op implementation of APIHooks.
type NoopAPIHooks struct{}

func (NoopAPIHooks) OnRequest(context.Context, string, string)                      {}
func (NoopAPIHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	apiHooks      APIHooks      = NoopAPIHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers process-wide pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers process-wide cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetAPIHooks registers process-wide API hooks. Nil is ignored.
func SetAPIHooks(h APIHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		apiHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// API returns the registered API hooks.
func API() APIHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return apiHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	apiHooks = NoopAPIHooks{}
}
