package typesystem

import (
	"iter"
	"strings"
)

// withoutMembers supplies the member queries of types that have no members.
type withoutMembers struct{}

func (withoutMembers) NestedTypes(ctx ResolveContext, _ func(*TypeDefinition) bool) iter.Seq[Type] {
	requireContext(ctx)
	return empty[Type]()
}

func (withoutMembers) Constructors(ctx ResolveContext, _ func(*Method) bool) iter.Seq[*Method] {
	requireContext(ctx)
	return empty[*Method]()
}

func (withoutMembers) Methods(ctx ResolveContext, _ func(*Method) bool) iter.Seq[*Method] {
	requireContext(ctx)
	return empty[*Method]()
}

func (withoutMembers) Properties(ctx ResolveContext, _ func(*Property) bool) iter.Seq[*Property] {
	requireContext(ctx)
	return empty[*Property]()
}

func (withoutMembers) Fields(ctx ResolveContext, _ func(*Field) bool) iter.Seq[*Field] {
	requireContext(ctx)
	return empty[*Field]()
}

func (withoutMembers) Events(ctx ResolveContext, _ func(*Event) bool) iter.Seq[*Event] {
	requireContext(ctx)
	return empty[*Event]()
}

func (withoutMembers) Members(ctx ResolveContext, _ func(Member) bool) iter.Seq[Member] {
	requireContext(ctx)
	return empty[Member]()
}

// ArrayType is an array of an element type with one or more dimensions.
type ArrayType struct {
	element    Type
	dimensions int
}

// NewArrayType creates an array type. dimensions must be at least 1.
func NewArrayType(element Type, dimensions int) *ArrayType {
	if element == nil {
		panic("typesystem: nil array element type")
	}
	if dimensions < 1 {
		panic("typesystem: array needs at least one dimension")
	}
	return &ArrayType{element: element, dimensions: dimensions}
}

// ElementType returns the element type.
func (a *ArrayType) ElementType() Type { return a.element }

// Dimensions returns the rank of the array.
func (a *ArrayType) Dimensions() int { return a.dimensions }

func arraySuffix(dimensions int) string {
	return "[" + strings.Repeat(",", dimensions-1) + "]"
}

// Resolve returns the receiver.
func (a *ArrayType) Resolve(ResolveContext) Type { return a }

func (a *ArrayType) String() string { return a.ReflectionName() }

// Name returns the element name with the array suffix.
func (a *ArrayType) Name() string { return a.element.Name() + arraySuffix(a.dimensions) }

// Namespace returns the element's namespace.
func (a *ArrayType) Namespace() string { return a.element.Namespace() }

// FullName returns the element's full name with the array suffix.
func (a *ArrayType) FullName() string { return a.element.FullName() + arraySuffix(a.dimensions) }

// ReflectionName returns the element's reflection name with the array suffix.
func (a *ArrayType) ReflectionName() string {
	return a.element.ReflectionName() + arraySuffix(a.dimensions)
}

// Kind returns KindArray.
func (a *ArrayType) Kind() Kind { return KindArray }

// IsReferenceType is always TriTrue.
func (a *ArrayType) IsReferenceType(ctx ResolveContext) Tristate {
	requireContext(ctx)
	return TriTrue
}

// Definition is nil.
func (a *ArrayType) Definition() *TypeDefinition { return nil }

// DeclaringType is nil.
func (a *ArrayType) DeclaringType() Type { return nil }

// TypeParameterCount is zero.
func (a *ArrayType) TypeParameterCount() int { return 0 }

// AcceptVisitor calls VisitArrayType.
func (a *ArrayType) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitArrayType(a)
}

// VisitChildren visits the element type.
func (a *ArrayType) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	e := a.element.AcceptVisitor(v)
	if e == a.element {
		return a
	}
	return NewArrayType(e, a.dimensions)
}

// BaseTypes returns System.Array and, for single-dimensional arrays,
// IList<element>, when those can be resolved.
func (a *ArrayType) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return lazy(func() []Type {
		var out []Type
		if t := RefArray.Resolve(ctx); t.Kind() != KindUnknown {
			out = append(out, t)
		}
		if a.dimensions == 1 {
			if def := RefIListOfT.Resolve(ctx).Definition(); def != nil && def.TypeParameterCount() == 1 {
				out = append(out, NewParameterizedType(def, []Type{a.element}))
			}
		}
		return out
	})
}

// NestedTypes is empty.
func (a *ArrayType) NestedTypes(ctx ResolveContext, _ func(*TypeDefinition) bool) iter.Seq[Type] {
	requireContext(ctx)
	return empty[Type]()
}

// Constructors is empty.
func (a *ArrayType) Constructors(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, a, &constructorKind, filter)
}

// Methods returns the methods of System.Array.
func (a *ArrayType) Methods(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, a, &methodKind, filter)
}

// Properties returns the properties of System.Array.
func (a *ArrayType) Properties(ctx ResolveContext, filter func(*Property) bool) iter.Seq[*Property] {
	return membersSeq(ctx, a, &propertyKind, filter)
}

// Fields returns the fields of System.Array.
func (a *ArrayType) Fields(ctx ResolveContext, filter func(*Field) bool) iter.Seq[*Field] {
	return membersSeq(ctx, a, &fieldKind, filter)
}

// Events returns the events of System.Array.
func (a *ArrayType) Events(ctx ResolveContext, filter func(*Event) bool) iter.Seq[*Event] {
	return membersSeq(ctx, a, &eventKind, filter)
}

// Members returns the members of System.Array.
func (a *ArrayType) Members(ctx ResolveContext, filter func(Member) bool) iter.Seq[Member] {
	return allMembersSeq(ctx, a, filter)
}

// Equals reports whether other is an array of an equal element type and rank.
func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && a.dimensions == o.dimensions && a.element.Equals(o.element)
}

// PointerType is an unmanaged pointer to an element type.
type PointerType struct {
	withoutMembers
	element Type
}

// NewPointerType creates a pointer type.
func NewPointerType(element Type) *PointerType {
	if element == nil {
		panic("typesystem: nil pointer element type")
	}
	return &PointerType{element: element}
}

// ElementType returns the pointed-to type.
func (p *PointerType) ElementType() Type { return p.element }

// Resolve returns the receiver.
func (p *PointerType) Resolve(ResolveContext) Type { return p }

func (p *PointerType) String() string { return p.ReflectionName() }

// Name returns the element name followed by '*'.
func (p *PointerType) Name() string { return p.element.Name() + "*" }

// Namespace returns the element's namespace.
func (p *PointerType) Namespace() string { return p.element.Namespace() }

// FullName returns the element's full name followed by '*'.
func (p *PointerType) FullName() string { return p.element.FullName() + "*" }

// ReflectionName returns the element's reflection name followed by '*'.
func (p *PointerType) ReflectionName() string { return p.element.ReflectionName() + "*" }

// Kind returns KindPointer.
func (p *PointerType) Kind() Kind { return KindPointer }

// IsReferenceType is TriFalse: a pointer is a plain value.
func (p *PointerType) IsReferenceType(ctx ResolveContext) Tristate {
	requireContext(ctx)
	return TriFalse
}

// Definition is nil.
func (p *PointerType) Definition() *TypeDefinition { return nil }

// DeclaringType is nil.
func (p *PointerType) DeclaringType() Type { return nil }

// TypeParameterCount is zero.
func (p *PointerType) TypeParameterCount() int { return 0 }

// AcceptVisitor calls VisitPointerType.
func (p *PointerType) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitPointerType(p)
}

// VisitChildren visits the element type.
func (p *PointerType) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	e := p.element.AcceptVisitor(v)
	if e == p.element {
		return p
	}
	return NewPointerType(e)
}

// BaseTypes is empty.
func (p *PointerType) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return empty[Type]()
}

// Equals reports whether other points to an equal element type.
func (p *PointerType) Equals(other Type) bool {
	o, ok := other.(*PointerType)
	return ok && p.element.Equals(o.element)
}

// ByReferenceType is a managed reference to a storage location, as used by
// ref and out parameters.
type ByReferenceType struct {
	withoutMembers
	element Type
}

// NewByReferenceType creates a by-reference type.
func NewByReferenceType(element Type) *ByReferenceType {
	if element == nil {
		panic("typesystem: nil by-reference element type")
	}
	return &ByReferenceType{element: element}
}

// ElementType returns the referenced type.
func (r *ByReferenceType) ElementType() Type { return r.element }

// Resolve returns the receiver.
func (r *ByReferenceType) Resolve(ResolveContext) Type { return r }

func (r *ByReferenceType) String() string { return r.ReflectionName() }

// Name returns the element name followed by '&'.
func (r *ByReferenceType) Name() string { return r.element.Name() + "&" }

// Namespace returns the element's namespace.
func (r *ByReferenceType) Namespace() string { return r.element.Namespace() }

// FullName returns the element's full name followed by '&'.
func (r *ByReferenceType) FullName() string { return r.element.FullName() + "&" }

// ReflectionName returns the element's reflection name followed by '&'.
func (r *ByReferenceType) ReflectionName() string { return r.element.ReflectionName() + "&" }

// Kind returns KindByReference.
func (r *ByReferenceType) Kind() Kind { return KindByReference }

// IsReferenceType is TriFalse: the reference itself is not an object reference.
func (r *ByReferenceType) IsReferenceType(ctx ResolveContext) Tristate {
	requireContext(ctx)
	return TriFalse
}

// Definition is nil.
func (r *ByReferenceType) Definition() *TypeDefinition { return nil }

// DeclaringType is nil.
func (r *ByReferenceType) DeclaringType() Type { return nil }

// TypeParameterCount is zero.
func (r *ByReferenceType) TypeParameterCount() int { return 0 }

// AcceptVisitor calls VisitByReferenceType.
func (r *ByReferenceType) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitByReferenceType(r)
}

// VisitChildren visits the element type.
func (r *ByReferenceType) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	e := r.element.AcceptVisitor(v)
	if e == r.element {
		return r
	}
	return NewByReferenceType(e)
}

// BaseTypes is empty.
func (r *ByReferenceType) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return empty[Type]()
}

// Equals reports whether other refers to an equal element type.
func (r *ByReferenceType) Equals(other Type) bool {
	o, ok := other.(*ByReferenceType)
	return ok && r.element.Equals(o.element)
}
