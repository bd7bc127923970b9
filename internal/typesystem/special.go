package typesystem

import "iter"

// SpecialType is a type without a declaration. The package exposes the only
// instances as Unknown, UnboundTypeArgument, Null and Dynamic.
type SpecialType struct {
	withoutMembers
	kind     Kind
	name     string
	refClass Tristate
}

var (
	// Unknown is the result of resolving a reference that cannot be found.
	Unknown = &SpecialType{kind: KindUnknown, name: "?", refClass: TriUnknown}

	// UnboundTypeArgument fills type argument slots that are intentionally left open.
	UnboundTypeArgument = &SpecialType{kind: KindUnboundTypeArgument, name: "", refClass: TriUnknown}

	// Null is the type of the null literal.
	Null = &SpecialType{kind: KindNull, name: "null", refClass: TriTrue}

	// Dynamic is the dynamically-typed type.
	Dynamic = &SpecialType{kind: KindDynamic, name: "dynamic", refClass: TriTrue}
)

// Resolve returns the receiver.
func (s *SpecialType) Resolve(ResolveContext) Type { return s }

func (s *SpecialType) String() string { return s.name }

// Name returns the display name. UnboundTypeArgument has an empty name.
func (s *SpecialType) Name() string { return s.name }

// Namespace is always empty.
func (s *SpecialType) Namespace() string { return "" }

// FullName equals Name.
func (s *SpecialType) FullName() string { return s.name }

// ReflectionName equals Name.
func (s *SpecialType) ReflectionName() string { return s.name }

// Kind returns the special kind.
func (s *SpecialType) Kind() Kind { return s.kind }

// IsReferenceType is TriTrue for Null and Dynamic and TriUnknown otherwise.
func (s *SpecialType) IsReferenceType(ctx ResolveContext) Tristate {
	requireContext(ctx)
	return s.refClass
}

// Definition is always nil.
func (s *SpecialType) Definition() *TypeDefinition { return nil }

// DeclaringType is always nil.
func (s *SpecialType) DeclaringType() Type { return nil }

// TypeParameterCount is always zero.
func (s *SpecialType) TypeParameterCount() int { return 0 }

// AcceptVisitor calls VisitOtherType.
func (s *SpecialType) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitOtherType(s)
}

// VisitChildren returns the receiver; special types have no children.
func (s *SpecialType) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	return s
}

// BaseTypes is empty.
func (s *SpecialType) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return empty[Type]()
}

// Equals reports whether other is the same special type.
func (s *SpecialType) Equals(other Type) bool {
	o, ok := other.(*SpecialType)
	return ok && o.kind == s.kind
}
