package project

import (
	"iter"
	"sort"

	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// Composite resolves against several contexts in order; the first context that
// knows a definition wins.
type Composite struct {
	contexts []typesystem.ResolveContext
}

// NewComposite creates a composite context
func NewComposite(contexts ...typesystem.ResolveContext) *Composite {
	return &Composite{contexts: contexts}
}

// GetTypeDefinition implements typesystem.ResolveContext
func (c *Composite) GetTypeDefinition(namespace, name string, arity int) *typesystem.TypeDefinition {
	for _, ctx := range c.contexts {
		if d := ctx.GetTypeDefinition(namespace, name, arity); d != nil {
			return d
		}
	}
	return nil
}

// TypeDefinitions enumerates the visible definitions. A definition shadowed by
// an earlier context is skipped.
func (c *Composite) TypeDefinitions() iter.Seq[*typesystem.TypeDefinition] {
	return func(yield func(*typesystem.TypeDefinition) bool) {
		seen := make(map[defKey]bool)
		for _, ctx := range c.contexts {
			for d := range ctx.TypeDefinitions() {
				k := keyOf(d)
				if seen[k] {
					continue
				}
				seen[k] = true
				if !yield(d) {
					return
				}
			}
		}
	}
}

// Namespaces merges the namespaces of all contexts
func (c *Composite) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ctx := range c.contexts {
		for _, ns := range ctx.Namespaces() {
			if !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Generation sums the generations of the generational members
func (c *Composite) Generation() uint64 {
	var g uint64
	for _, ctx := range c.contexts {
		if gen, ok := ctx.(Generational); ok {
			g += gen.Generation()
		}
	}
	return g
}
