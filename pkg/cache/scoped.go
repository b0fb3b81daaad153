package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The server uses it to keep its entries apart from CLI entries when both
// share one Redis instance.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:")
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

// SourceKey generates a prefixed key for source caching.
func (k *ScopedKeyer) SourceKey(kind, ref string) string {
	return k.prefix + k.inner.SourceKey(kind, ref)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(intentsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(intentsHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
