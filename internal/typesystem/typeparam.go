package typesystem

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"sync"
)

// OwnerKind tells whether a type parameter belongs to a type or a method.
type OwnerKind uint8

const (
	// OwnerType marks a class-level type parameter (reflection name `N).
	OwnerType OwnerKind = iota
	// OwnerMethod marks a method-level type parameter (reflection name ``N).
	OwnerMethod
)

func (o OwnerKind) String() string {
	if o == OwnerMethod {
		return "method"
	}
	return "type"
}

// TypeParameter is a generic parameter of a type or method.
//
// Type parameters are compared by owner kind, index and name. Substitution is
// positional, so two parameters in the same slot are interchangeable.
type TypeParameter struct {
	owner       OwnerKind
	index       int
	name        string
	constraints []TypeReference

	referenceTypeConstraint      bool
	valueTypeConstraint          bool
	defaultConstructorConstraint bool

	frozen   bool
	ctorOnce sync.Once
	ctor     *Method
}

// NewTypeParameter creates an unconstrained type parameter.
func NewTypeParameter(owner OwnerKind, index int, name string) *TypeParameter {
	if index < 0 {
		panic("typesystem: negative type parameter index")
	}
	return &TypeParameter{owner: owner, index: index, name: name}
}

func (tp *TypeParameter) checkMutable() {
	if tp.frozen {
		panic(fmt.Sprintf("typesystem: type parameter %s is frozen", tp.name))
	}
}

// AddConstraint adds a base type constraint.
func (tp *TypeParameter) AddConstraint(ref TypeReference) {
	tp.checkMutable()
	if ref == nil {
		panic("typesystem: nil constraint")
	}
	tp.constraints = append(tp.constraints, ref)
}

// SetReferenceTypeConstraint sets the "class" constraint.
func (tp *TypeParameter) SetReferenceTypeConstraint(v bool) {
	tp.checkMutable()
	tp.referenceTypeConstraint = v
}

// SetValueTypeConstraint sets the "struct" constraint.
func (tp *TypeParameter) SetValueTypeConstraint(v bool) {
	tp.checkMutable()
	tp.valueTypeConstraint = v
}

// SetDefaultConstructorConstraint sets the "new()" constraint.
func (tp *TypeParameter) SetDefaultConstructorConstraint(v bool) {
	tp.checkMutable()
	tp.defaultConstructorConstraint = v
}

// OwnerKind returns whether a type or a method owns the parameter.
func (tp *TypeParameter) OwnerKind() OwnerKind { return tp.owner }

// Index returns the parameter's position among its owner's parameters.
func (tp *TypeParameter) Index() int { return tp.index }

// Constraints returns the base type constraints.
func (tp *TypeParameter) Constraints() []TypeReference { return slices.Clone(tp.constraints) }

// HasReferenceTypeConstraint reports the "class" constraint.
func (tp *TypeParameter) HasReferenceTypeConstraint() bool { return tp.referenceTypeConstraint }

// HasValueTypeConstraint reports the "struct" constraint.
func (tp *TypeParameter) HasValueTypeConstraint() bool { return tp.valueTypeConstraint }

// HasDefaultConstructorConstraint reports the "new()" constraint.
func (tp *TypeParameter) HasDefaultConstructorConstraint() bool {
	return tp.defaultConstructorConstraint
}

// Resolve returns the receiver.
func (tp *TypeParameter) Resolve(ResolveContext) Type { return tp }

func (tp *TypeParameter) String() string { return tp.ReflectionName() }

// Name returns the declared name, or the reflection name when unnamed.
func (tp *TypeParameter) Name() string {
	if tp.name == "" {
		return tp.ReflectionName()
	}
	return tp.name
}

// Namespace is empty.
func (tp *TypeParameter) Namespace() string { return "" }

// FullName equals Name.
func (tp *TypeParameter) FullName() string { return tp.Name() }

// ReflectionName returns `N for type-owned and ``N for method-owned parameters.
func (tp *TypeParameter) ReflectionName() string {
	if tp.owner == OwnerMethod {
		return "``" + strconv.Itoa(tp.index)
	}
	return "`" + strconv.Itoa(tp.index)
}

// Kind returns KindTypeParameter.
func (tp *TypeParameter) Kind() Kind { return KindTypeParameter }

// IsReferenceType is TriTrue with a "class" constraint or a class or
// delegate base constraint other than Object, ValueType and Enum, TriFalse with a "struct" constraint, and TriUnknown otherwise.
func (tp *TypeParameter) IsReferenceType(ctx ResolveContext) Tristate {
	requireContext(ctx)
	return tp.isReferenceType(ctx, map[*TypeParameter]bool{})
}

func (tp *TypeParameter) isReferenceType(ctx ResolveContext, busy map[*TypeParameter]bool) Tristate {
	if tp.referenceTypeConstraint {
		return TriTrue
	}
	if tp.valueTypeConstraint {
		return TriFalse
	}
	if busy[tp] {
		return TriUnknown
	}
	busy[tp] = true
	defer delete(busy, tp)
	for _, ref := range tp.constraints {
		switch c := ref.Resolve(ctx).(type) {
		case *TypeParameter:
			if r := c.isReferenceType(ctx, busy); r.Known() {
				return r
			}
		default:
			switch c.Kind() {
			case KindDelegate:
				return TriTrue
			case KindClass:
				if !isWellKnown(c, RefObject) && !isWellKnown(c, RefValueType) && !isWellKnown(c, RefEnum) {
					return TriTrue
				}
			}
		}
	}
	return TriUnknown
}

func isWellKnown(t Type, ref *ClassTypeReference) bool {
	def := t.Definition()
	return def != nil && def.declaring == nil && def.namespace == ref.namespace &&
		def.name == ref.name && def.TypeParameterCount() == ref.typeParameterCount
}

// Definition is nil.
func (tp *TypeParameter) Definition() *TypeDefinition { return nil }

// DeclaringType is nil.
func (tp *TypeParameter) DeclaringType() Type { return nil }

// TypeParameterCount is zero.
func (tp *TypeParameter) TypeParameterCount() int { return 0 }

// AcceptVisitor calls VisitTypeParameter.
func (tp *TypeParameter) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitTypeParameter(tp)
}

// VisitChildren returns the receiver. Constraints are references, not children.
func (tp *TypeParameter) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	return tp
}

// BaseTypes returns the resolved constraints, or the implicit System.Object
// (System.ValueType with a "struct" constraint) when there are none.
func (tp *TypeParameter) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return lazy(func() []Type {
		set := NewTypeSet()
		for _, ref := range tp.constraints {
			set.Add(ref.Resolve(ctx))
		}
		if set.Len() == 0 {
			ref := RefObject
			if tp.valueTypeConstraint {
				ref = RefValueType
			}
			if t := ref.Resolve(ctx); t.Kind() != KindUnknown {
				set.Add(t)
			}
		}
		return set.Slice()
	})
}

// NestedTypes is empty.
func (tp *TypeParameter) NestedTypes(ctx ResolveContext, _ func(*TypeDefinition) bool) iter.Seq[Type] {
	requireContext(ctx)
	return empty[Type]()
}

// Constructors returns a parameterless constructor when the parameter has a
// "new()" or "struct" constraint.
func (tp *TypeParameter) Constructors(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, tp, &constructorKind, filter)
}

func (tp *TypeParameter) defaultConstructors() []*Method {
	if !tp.defaultConstructorConstraint && !tp.valueTypeConstraint {
		return nil
	}
	tp.ctorOnce.Do(func() {
		tp.ctor = &Method{
			memberBase:  memberBase{name: ConstructorName, declaringType: tp, returnType: RefVoid},
			constructor: true,
		}
	})
	return []*Method{tp.ctor}
}

// Methods returns the methods available through the constraints.
func (tp *TypeParameter) Methods(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, tp, &methodKind, filter)
}

// Properties returns the properties available through the constraints.
func (tp *TypeParameter) Properties(ctx ResolveContext, filter func(*Property) bool) iter.Seq[*Property] {
	return membersSeq(ctx, tp, &propertyKind, filter)
}

// Fields returns the fields available through the constraints.
func (tp *TypeParameter) Fields(ctx ResolveContext, filter func(*Field) bool) iter.Seq[*Field] {
	return membersSeq(ctx, tp, &fieldKind, filter)
}

// Events returns the events available through the constraints.
func (tp *TypeParameter) Events(ctx ResolveContext, filter func(*Event) bool) iter.Seq[*Event] {
	return membersSeq(ctx, tp, &eventKind, filter)
}

// Members returns the members available through the constraints.
func (tp *TypeParameter) Members(ctx ResolveContext, filter func(Member) bool) iter.Seq[Member] {
	return allMembersSeq(ctx, tp, filter)
}

// Equals compares owner kind, index and name.
func (tp *TypeParameter) Equals(other Type) bool {
	o, ok := other.(*TypeParameter)
	return ok && tp.owner == o.owner && tp.index == o.index && tp.name == o.name
}
