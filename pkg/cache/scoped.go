package cache

// ScopedKeyer prefixes every key of an inner Keyer. The CLI scopes keys
// by build version so output from an older renderer is never reused:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// FrameKey implements Keyer.
func (k *ScopedKeyer) FrameKey(inputHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(inputHash, opts)
}
