// Package cache stores computed build orders and classpaths so repeated
// runs against an unchanged workspace skip resolution.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] and
// [MongoCache] for the API server, and [NullCache] when caching is off.
// Keys are derived by a [Keyer] from a content hash of the workspace
// description plus the options that influence the result.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per cached artifact.
const (
	TTLOrder     = 24 * time.Hour
	TTLClasspath = 24 * time.Hour
	TTLCycles    = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
//
// Get reports a miss with ok=false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys for resolution results.
type Keyer interface {
	// OrderKey identifies a build order of a workspace.
	OrderKey(workspaceHash string, opts OrderKeyOpts) string
	// ClasspathKey identifies the classpaths of a set of bundle roots.
	ClasspathKey(workspaceHash string, opts ClasspathKeyOpts) string
	// CyclesKey identifies the cycle report of a workspace.
	CyclesKey(workspaceHash string, opts CyclesKeyOpts) string
}

// OrderKeyOpts are the options that change a build order.
type OrderKeyOpts struct {
	Roots             []string `json:"roots,omitempty"`
	Set               string   `json:"set,omitempty"`
	Kinds             string   `json:"kinds,omitempty"`
	Strict            bool     `json:"strict,omitempty"`
	StrictCycles      bool     `json:"strict_cycles,omitempty"`
	IncludeExternal   bool     `json:"include_external,omitempty"`
	SkipResolution    bool     `json:"skip_resolution,omitempty"`
	ResolveContainers bool     `json:"resolve_containers,omitempty"`
	Platform          string   `json:"platform,omitempty"`
	Policy            string   `json:"policy,omitempty"`
}

// ClasspathKeyOpts are the options that change a classpath.
type ClasspathKeyOpts struct {
	Roots    []string `json:"roots"`
	Platform string   `json:"platform,omitempty"`
	Policy   string   `json:"policy,omitempty"`
}

// CyclesKeyOpts are the options that change a cycle report.
type CyclesKeyOpts struct {
	Kinds             string `json:"kinds,omitempty"`
	Strict            bool   `json:"strict,omitempty"`
	ResolveContainers bool   `json:"resolve_containers,omitempty"`
	Platform          string `json:"platform,omitempty"`
	Policy            string `json:"policy,omitempty"`
}

// DefaultKeyer hashes the key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// OrderKey returns "order:<hash>".
func (DefaultKeyer) OrderKey(workspaceHash string, opts OrderKeyOpts) string {
	return hashKey("order", workspaceHash, opts)
}

// ClasspathKey returns "classpath:<hash>".
func (DefaultKeyer) ClasspathKey(workspaceHash string, opts ClasspathKeyOpts) string {
	return hashKey("classpath", workspaceHash, opts)
}

// CyclesKey returns "cycles:<hash>".
func (DefaultKeyer) CyclesKey(workspaceHash string, opts CyclesKeyOpts) string {
	return hashKey("cycles", workspaceHash, opts)
}

var _ Keyer = DefaultKeyer{}
