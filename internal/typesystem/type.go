// Package typesystem models programming-language types independently of any
// compiler backend: nominal declarations, generic instantiations, nested types,
// arrays, pointers, type parameters and the unresolved types a partially loaded
// project produces.
//
// Types and members are immutable once built and may be shared between
// goroutines. Every structural query takes a ResolveContext; results are never
// cached on the type itself because they depend on what the context can see.
package typesystem

import "iter"

// NamedElement is the naming contract shared by types and members.
type NamedElement interface {
	// Name is the simple identifier, without arity or namespace.
	Name() string

	// Namespace is the containing namespace. It may be empty.
	Namespace() string

	// FullName is the dotted namespace and name path.
	FullName() string

	// ReflectionName is the arity- and nesting-qualified name, unique within an assembly.
	ReflectionName() string
}

// ResolveContext gives access to the type definitions that are currently loaded.
// Implementations must answer consistently for the duration of a single query.
type ResolveContext interface {
	// GetTypeDefinition returns the top-level definition with the given namespace,
	// name and type parameter count, or nil.
	GetTypeDefinition(namespace, name string, typeParameterCount int) *TypeDefinition

	// TypeDefinitions enumerates all top-level definitions.
	TypeDefinitions() iter.Seq[*TypeDefinition]

	// Namespaces returns the namespaces that contain at least one definition.
	Namespaces() []string
}

// TypeReference is a lazily resolvable handle to a type.
type TypeReference interface {
	// Resolve returns the referenced type. It never returns nil; Unknown is
	// returned when the reference cannot be resolved.
	Resolve(ctx ResolveContext) Type

	// String returns the reference in reflection-name syntax.
	String() string
}

// Type is the central abstraction. The set of implementations is closed:
// *TypeDefinition, *ParameterizedType, *ArrayType, *PointerType,
// *ByReferenceType, *TypeParameter and *SpecialType.
type Type interface {
	TypeReference
	NamedElement

	// Kind returns the type kind.
	Kind() Kind

	// IsReferenceType reports whether values of the type are references.
	// TriUnknown is returned for unconstrained type parameters and unresolved types.
	IsReferenceType(ctx ResolveContext) Tristate

	// Definition returns the backing declaration, or nil for arrays, pointers,
	// type parameters and special types.
	Definition() *TypeDefinition

	// DeclaringType returns the enclosing type of a nested type, or nil.
	DeclaringType() Type

	// TypeParameterCount returns the number of open type parameters.
	TypeParameterCount() int

	// AcceptVisitor calls the visitor method matching this type's variant.
	AcceptVisitor(v TypeVisitor) Type

	// VisitChildren visits every child type and rebuilds this type from the
	// results. If all children come back unchanged the receiver is returned.
	VisitChildren(v TypeVisitor) Type

	// BaseTypes returns the direct base class (first) and interfaces.
	BaseTypes(ctx ResolveContext) iter.Seq[Type]

	// NestedTypes returns nested types including inherited ones. The filter is
	// tested against the unparameterized definitions.
	NestedTypes(ctx ResolveContext, filter func(*TypeDefinition) bool) iter.Seq[Type]

	// Constructors returns the instance constructors declared by this type.
	Constructors(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method]

	// Methods returns the callable methods, excluding constructors.
	Methods(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method]

	// Properties returns the accessible properties.
	Properties(ctx ResolveContext, filter func(*Property) bool) iter.Seq[*Property]

	// Fields returns the accessible fields.
	Fields(ctx ResolveContext, filter func(*Field) bool) iter.Seq[*Field]

	// Events returns the accessible events.
	Events(ctx ResolveContext, filter func(*Event) bool) iter.Seq[*Event]

	// Members returns the union of Fields, Properties, Methods and Events.
	Members(ctx ResolveContext, filter func(Member) bool) iter.Seq[Member]

	// Equals reports structural equality.
	Equals(other Type) bool
}

func requireContext(ctx ResolveContext) {
	if ctx == nil {
		panic("typesystem: nil ResolveContext")
	}
}

func requireVisitor(v TypeVisitor) {
	if v == nil {
		panic("typesystem: nil TypeVisitor")
	}
}

// lazy returns a sequence that calls produce on every enumeration.
func lazy[T any](produce func() []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range produce() {
			if !yield(v) {
				return
			}
		}
	}
}

func empty[T any]() iter.Seq[T] {
	return func(func(T) bool) {}
}

// Collect drains a sequence into a slice. The result is never nil.
func Collect[T any](seq iter.Seq[T]) []T {
	out := []T{}
	for v := range seq {
		out = append(out, v)
	}
	return out
}
