package project

import (
	"fmt"
	"iter"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// Cached memoizes GetTypeDefinition lookups, misses included. The cache is
// purged whenever the inner context's generation changes.
type Cached struct {
	inner      Generational
	cache      *lru.Cache
	mu         sync.Mutex
	generation uint64
}

// NewCached wraps inner with an LRU cache holding up to size lookups
func NewCached(inner Generational, size int) (*Cached, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache, generation: inner.Generation()}, nil
}

// checkGeneration purges the cache when the inner generation moved and
// returns the generation it observed.
func (c *Cached) checkGeneration() uint64 {
	g := c.inner.Generation()

	c.mu.Lock()
	defer c.mu.Unlock()

	if g != c.generation {
		c.cache.Purge()
		c.generation = g
	}
	return g
}

// GetTypeDefinition implements typesystem.ResolveContext
func (c *Cached) GetTypeDefinition(namespace, name string, arity int) *typesystem.TypeDefinition {
	g := c.checkGeneration()

	k := defKey{namespace: namespace, name: name, arity: arity}
	if v, ok := c.cache.Get(k); ok {
		return v.(*typesystem.TypeDefinition)
	}
	d := c.inner.GetTypeDefinition(namespace, name, arity)

	// A lookup that raced with a change may describe either generation.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == g && c.inner.Generation() == g {
		c.cache.Add(k, d)
	}
	return d
}

// TypeDefinitions implements typesystem.ResolveContext
func (c *Cached) TypeDefinitions() iter.Seq[*typesystem.TypeDefinition] {
	return c.inner.TypeDefinitions()
}

// Namespaces implements typesystem.ResolveContext
func (c *Cached) Namespaces() []string { return c.inner.Namespaces() }

// Generation implements Generational
func (c *Cached) Generation() uint64 { return c.inner.Generation() }

// Len returns the number of cached lookups
func (c *Cached) Len() int { return c.cache.Len() }
