package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants can share one
// backend. The API server scopes keys per deployment:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// OrderKey generates a prefixed build-order key.
func (k *ScopedKeyer) OrderKey(workspaceHash string, opts OrderKeyOpts) string {
	return k.prefix + k.inner.OrderKey(workspaceHash, opts)
}

// ClasspathKey generates a prefixed classpath key.
func (k *ScopedKeyer) ClasspathKey(workspaceHash string, opts ClasspathKeyOpts) string {
	return k.prefix + k.inner.ClasspathKey(workspaceHash, opts)
}

// CyclesKey generates a prefixed cycle-report key.
func (k *ScopedKeyer) CyclesKey(workspaceHash string, opts CyclesKeyOpts) string {
	return k.prefix + k.inner.CyclesKey(workspaceHash, opts)
}
