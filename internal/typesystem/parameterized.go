package typesystem

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// ParameterizedType is a generic definition applied to type arguments.
type ParameterizedType struct {
	definition *TypeDefinition
	arguments  []Type
}

// NewParameterizedType applies arguments to a generic definition. The number of
// arguments must match the definition's type parameter count, nested types
// counting the outer parameters too.
func NewParameterizedType(def *TypeDefinition, arguments []Type) *ParameterizedType {
	if def == nil {
		panic("typesystem: nil generic definition")
	}
	if len(arguments) != def.TypeParameterCount() {
		panic(fmt.Sprintf("typesystem: %s expects %d type arguments, got %d",
			def.ReflectionName(), def.TypeParameterCount(), len(arguments)))
	}
	for i, a := range arguments {
		if a == nil {
			panic(fmt.Sprintf("typesystem: type argument %d of %s is nil", i, def.ReflectionName()))
		}
	}
	return &ParameterizedType{definition: def, arguments: slices.Clone(arguments)}
}

// TypeArguments returns a copy of the type arguments.
func (p *ParameterizedType) TypeArguments() []Type { return slices.Clone(p.arguments) }

// TypeArgument returns the i-th type argument.
func (p *ParameterizedType) TypeArgument(i int) Type { return p.arguments[i] }

// TypeArgumentCount returns the number of type arguments.
func (p *ParameterizedType) TypeArgumentCount() int { return len(p.arguments) }

// Substitution returns the substitution that maps the definition's type
// parameters to this type's arguments.
func (p *ParameterizedType) Substitution() *TypeParameterSubstitution {
	return NewTypeParameterSubstitution(p.arguments, nil)
}

// Resolve returns the receiver.
func (p *ParameterizedType) Resolve(ResolveContext) Type { return p }

func (p *ParameterizedType) String() string { return p.ReflectionName() }

// Name returns the definition's name.
func (p *ParameterizedType) Name() string { return p.definition.Name() }

// Namespace returns the definition's namespace.
func (p *ParameterizedType) Namespace() string { return p.definition.Namespace() }

// FullName returns the definition's full name.
func (p *ParameterizedType) FullName() string { return p.definition.FullName() }

// ReflectionName returns Def`n[[Arg1],[Arg2]].
func (p *ParameterizedType) ReflectionName() string {
	var b strings.Builder
	b.WriteString(p.definition.ReflectionName())
	b.WriteByte('[')
	for i, a := range p.arguments {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		b.WriteString(a.ReflectionName())
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// Kind returns the definition's kind.
func (p *ParameterizedType) Kind() Kind { return p.definition.Kind() }

// IsReferenceType returns the definition's classification.
func (p *ParameterizedType) IsReferenceType(ctx ResolveContext) Tristate {
	return p.definition.IsReferenceType(ctx)
}

// Definition returns the generic definition.
func (p *ParameterizedType) Definition() *TypeDefinition { return p.definition }

// DeclaringType returns the outer definition parameterized with the leading
// type arguments, or the bare outer definition when it is not generic.
func (p *ParameterizedType) DeclaringType() Type {
	outer := p.definition.declaring
	if outer == nil {
		return nil
	}
	n := outer.TypeParameterCount()
	if n == 0 {
		return outer
	}
	return NewParameterizedType(outer, p.arguments[:n])
}

// TypeParameterCount is zero: every slot is bound or explicitly unbound.
func (p *ParameterizedType) TypeParameterCount() int { return 0 }

// AcceptVisitor calls VisitParameterizedType.
func (p *ParameterizedType) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitParameterizedType(p)
}

// VisitChildren visits the generic definition and every type argument.
// If the visitor replaces the definition with something that is not a
// definition, that replacement is returned as is.
func (p *ParameterizedType) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	g := p.definition.AcceptVisitor(v)
	def, ok := g.(*TypeDefinition)
	if !ok {
		return g
	}
	var args []Type
	for i, a := range p.arguments {
		r := a.AcceptVisitor(v)
		if r == nil {
			panic("typesystem: visitor returned nil")
		}
		if args == nil && r != a {
			args = make([]Type, len(p.arguments))
			copy(args, p.arguments[:i])
		}
		if args != nil {
			args[i] = r
		}
	}
	if def == p.definition && args == nil {
		return p
	}
	if args == nil {
		args = p.arguments
	}
	return NewParameterizedType(def, args)
}

// BaseTypes returns the definition's base types with this type's arguments substituted.
func (p *ParameterizedType) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return lazy(func() []Type {
		subst := p.Substitution()
		bases := p.definition.resolveBaseTypes(ctx)
		for i, b := range bases {
			bases[i] = b.AcceptVisitor(subst)
		}
		return bases
	})
}

// NestedTypes returns nested types with the outer arguments copied from p.
func (p *ParameterizedType) NestedTypes(ctx ResolveContext, filter func(*TypeDefinition) bool) iter.Seq[Type] {
	return nestedTypesSeq(ctx, p, filter)
}

// Constructors returns the specialized constructors.
func (p *ParameterizedType) Constructors(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, p, &constructorKind, filter)
}

// Methods returns the specialized methods.
func (p *ParameterizedType) Methods(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, p, &methodKind, filter)
}

// Properties returns the specialized properties.
func (p *ParameterizedType) Properties(ctx ResolveContext, filter func(*Property) bool) iter.Seq[*Property] {
	return membersSeq(ctx, p, &propertyKind, filter)
}

// Fields returns the specialized fields.
func (p *ParameterizedType) Fields(ctx ResolveContext, filter func(*Field) bool) iter.Seq[*Field] {
	return membersSeq(ctx, p, &fieldKind, filter)
}

// Events returns the specialized events.
func (p *ParameterizedType) Events(ctx ResolveContext, filter func(*Event) bool) iter.Seq[*Event] {
	return membersSeq(ctx, p, &eventKind, filter)
}

// Members returns the specialized fields, properties, methods and events.
func (p *ParameterizedType) Members(ctx ResolveContext, filter func(Member) bool) iter.Seq[Member] {
	return allMembersSeq(ctx, p, filter)
}

// Equals reports whether other has an equal definition and equal arguments.
func (p *ParameterizedType) Equals(other Type) bool {
	o, ok := other.(*ParameterizedType)
	if !ok {
		return false
	}
	if p == o {
		return true
	}
	if !p.definition.Equals(o.definition) || len(p.arguments) != len(o.arguments) {
		return false
	}
	for i := range p.arguments {
		if !p.arguments[i].Equals(o.arguments[i]) {
			return false
		}
	}
	return true
}
