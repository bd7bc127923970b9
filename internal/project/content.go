// Package project provides the resolve contexts that type queries run against:
// per-assembly content, composition of several assemblies, a lookup cache and a
// workspace whose assemblies can be replaced while queries are running.
package project

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// Generational is a resolve context that can tell when its answers change.
type Generational interface {
	typesystem.ResolveContext

	// Generation increases whenever the set of definitions changes.
	Generation() uint64
}

type defKey struct {
	namespace string
	name      string
	arity     int
}

func keyOf(d *typesystem.TypeDefinition) defKey {
	return defKey{namespace: d.Namespace(), name: d.Name(), arity: d.TypeParameterCount()}
}

// Content holds the top-level definitions of one assembly.
type Content struct {
	assembly   string
	defs       map[defKey]*typesystem.TypeDefinition
	mu         sync.RWMutex
	generation atomic.Uint64
}

// NewContent creates empty content for an assembly
func NewContent(assembly string) *Content {
	return &Content{
		assembly: assembly,
		defs:     make(map[defKey]*typesystem.TypeDefinition),
	}
}

// Assembly returns the assembly name
func (c *Content) Assembly() string { return c.assembly }

// Add freezes and stores top-level definitions, replacing any with the same
// namespace, name and arity.
func (c *Content) Add(defs ...*typesystem.TypeDefinition) error {
	for _, d := range defs {
		if d.DeclaringTypeDefinition() != nil {
			return fmt.Errorf("%s is nested; add its declaring type instead", d.ReflectionName())
		}
		if d.Assembly() != c.assembly {
			return fmt.Errorf("%s belongs to assembly %q, not %q", d.ReflectionName(), d.Assembly(), c.assembly)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range defs {
		d.Freeze()
		c.defs[keyOf(d)] = d
	}
	c.generation.Add(1)
	return nil
}

// Remove deletes a definition and reports whether it existed
func (c *Content) Remove(namespace, name string, arity int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := defKey{namespace: namespace, name: name, arity: arity}
	if _, ok := c.defs[k]; !ok {
		return false
	}
	delete(c.defs, k)
	c.generation.Add(1)
	return true
}

// GetTypeDefinition implements typesystem.ResolveContext
func (c *Content) GetTypeDefinition(namespace, name string, arity int) *typesystem.TypeDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.defs[defKey{namespace: namespace, name: name, arity: arity}]
}

// TypeDefinitions enumerates a snapshot of the definitions ordered by reflection name
func (c *Content) TypeDefinitions() iter.Seq[*typesystem.TypeDefinition] {
	return slices.Values(c.sorted())
}

func (c *Content) sorted() []*typesystem.TypeDefinition {
	c.mu.RLock()
	out := make([]*typesystem.TypeDefinition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].ReflectionName(), out[j].ReflectionName()) < 0
	})
	return out
}

// Namespaces returns the sorted namespaces that contain definitions
func (c *Content) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	for k := range c.defs {
		seen[k.namespace] = true
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of top-level definitions
func (c *Content) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.defs)
}

// Generation implements Generational
func (c *Content) Generation() uint64 { return c.generation.Load() }

// Clone returns a copy that is not affected by later changes to c
func (c *Content) Clone() *Content {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := NewContent(c.assembly)
	for k, d := range c.defs {
		clone.defs[k] = d
	}
	clone.generation.Store(c.generation.Load())
	return clone
}
