package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tenants can share
// one backend without seeing each other's entries.
//
// Example usage:
//
//	// Per-client keys on a shared redis
//	k := NewScopedKeyer(NewDefaultKeyer(), "client:ci:")
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

// FormatKey generates a prefixed key for format results.
func (k *ScopedKeyer) FormatKey(sourceHash string, opts FormatKeyOpts) string {
	return k.prefix + k.inner.FormatKey(sourceHash, opts)
}

// IndentKey generates a prefixed key for indent queries.
func (k *ScopedKeyer) IndentKey(sourceHash string, opts IndentKeyOpts) string {
	return k.prefix + k.inner.IndentKey(sourceHash, opts)
}

// DumpKey generates a prefixed key for tree dumps.
func (k *ScopedKeyer) DumpKey(sourceHash string, opts DumpKeyOpts) string {
	return k.prefix + k.inner.DumpKey(sourceHash, opts)
}
