package metadata

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of entries kept by NewCached when the
// requested size is not positive.
const DefaultCacheSize = 4096

type cacheKey struct {
	kind byte
	tok  Token
}

const (
	cachedMember byte = iota
	cachedString
	cachedSignature
)

// Cached wraps a Resolver with an LRU cache of successful member, string
// and signature lookups. Locals and parameters are method-specific and are
// passed through. Cached is safe for concurrent use if the wrapped
// resolver is.
type Cached struct {
	r     Resolver
	cache *lru.Cache
}

// NewCached returns a caching wrapper around r holding up to size entries.
func NewCached(r Resolver, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cached{r: r, cache: cache}, nil
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// ResolveMember resolves tok, consulting the cache first.
func (c *Cached) ResolveMember(tok Token) (Member, error) {
	key := cacheKey{cachedMember, tok}
	if v, ok := c.cache.Get(key); ok {
		return v.(Member), nil
	}
	m, err := c.r.ResolveMember(tok)
	if err == nil && m != nil {
		c.cache.Add(key, m)
	}
	return m, err
}

// ResolveString resolves tok, consulting the cache first.
func (c *Cached) ResolveString(tok Token) (string, error) {
	key := cacheKey{cachedString, tok}
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}
	s, err := c.r.ResolveString(tok)
	if err == nil {
		c.cache.Add(key, s)
	}
	return s, err
}

// ResolveSignature resolves tok, consulting the cache first.
func (c *Cached) ResolveSignature(tok Token) (*Signature, error) {
	key := cacheKey{cachedSignature, tok}
	if v, ok := c.cache.Get(key); ok {
		return v.(*Signature), nil
	}
	s, err := c.r.ResolveSignature(tok)
	if err == nil && s != nil {
		c.cache.Add(key, s)
	}
	return s, err
}

// ResolveLocal passes through to the wrapped resolver.
func (c *Cached) ResolveLocal(index int) (*Local, error) {
	return c.r.ResolveLocal(index)
}

// ResolveParam passes through to the wrapped resolver.
func (c *Cached) ResolveParam(index int) (*Param, error) {
	return c.r.ResolveParam(index)
}
