package project

import (
	"iter"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// Workspace is the set of loaded assemblies. Assemblies are replaced as a
// whole; each query should run against one Snapshot so that it sees a
// consistent set of definitions.
type Workspace struct {
	mu         sync.Mutex
	contents   map[string]*Content
	snapshot   atomic.Pointer[Composite]
	generation atomic.Uint64
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	w := &Workspace{contents: make(map[string]*Content)}
	w.snapshot.Store(NewComposite())
	return w
}

// Replace installs content as its assembly, replacing any previous version.
// Later changes to content are not visible until it is replaced again.
func (w *Workspace) Replace(content *Content) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.contents[content.Assembly()] = content.Clone()
	w.rebuild()
}

// Remove unloads an assembly and reports whether it was loaded
func (w *Workspace) Remove(assembly string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.contents[assembly]; !ok {
		return false
	}
	delete(w.contents, assembly)
	w.rebuild()
	return true
}

// rebuild must be called with w.mu held
func (w *Workspace) rebuild() {
	names := make([]string, 0, len(w.contents))
	for name := range w.contents {
		names = append(names, name)
	}
	sort.Strings(names)

	contexts := make([]typesystem.ResolveContext, len(names))
	for i, name := range names {
		contexts[i] = w.contents[name]
	}
	w.snapshot.Store(NewComposite(contexts...))
	w.generation.Add(1)
}

// Assemblies returns the sorted names of the loaded assemblies
func (w *Workspace) Assemblies() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.contents))
	for name := range w.contents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns an immutable view of the currently loaded assemblies
func (w *Workspace) Snapshot() *Composite { return w.snapshot.Load() }

// GetTypeDefinition implements typesystem.ResolveContext against the current snapshot
func (w *Workspace) GetTypeDefinition(namespace, name string, arity int) *typesystem.TypeDefinition {
	return w.Snapshot().GetTypeDefinition(namespace, name, arity)
}

// TypeDefinitions implements typesystem.ResolveContext against the current snapshot
func (w *Workspace) TypeDefinitions() iter.Seq[*typesystem.TypeDefinition] {
	return w.Snapshot().TypeDefinitions()
}

// Namespaces implements typesystem.ResolveContext against the current snapshot
func (w *Workspace) Namespaces() []string { return w.Snapshot().Namespaces() }

// Generation implements Generational
func (w *Workspace) Generation() uint64 { return w.generation.Load() }
