package typesystem

import "slices"

// TypeParameterSubstitution replaces type parameters by position: class-owned
// parameter `i becomes ClassArguments[i] and method-owned ``i becomes
// MethodArguments[i]. Parameters without a corresponding argument are kept.
type TypeParameterSubstitution struct {
	classArguments  []Type
	methodArguments []Type
}

// NewTypeParameterSubstitution creates a substitution. Either slice may be nil.
func NewTypeParameterSubstitution(classArguments, methodArguments []Type) *TypeParameterSubstitution {
	return &TypeParameterSubstitution{
		classArguments:  slices.Clone(classArguments),
		methodArguments: slices.Clone(methodArguments),
	}
}

// ClassArguments returns the class-level arguments.
func (s *TypeParameterSubstitution) ClassArguments() []Type { return slices.Clone(s.classArguments) }

// MethodArguments returns the method-level arguments.
func (s *TypeParameterSubstitution) MethodArguments() []Type { return slices.Clone(s.methodArguments) }

// VisitTypeParameter substitutes the parameter when an argument exists for its slot.
func (s *TypeParameterSubstitution) VisitTypeParameter(t *TypeParameter) Type {
	args := s.classArguments
	if t.OwnerKind() == OwnerMethod {
		args = s.methodArguments
	}
	if t.Index() < len(args) && args[t.Index()] != nil {
		return args[t.Index()]
	}
	return t
}

// VisitTypeDefinition implements TypeVisitor.
func (s *TypeParameterSubstitution) VisitTypeDefinition(t *TypeDefinition) Type {
	return t.VisitChildren(s)
}

// VisitParameterizedType implements TypeVisitor.
func (s *TypeParameterSubstitution) VisitParameterizedType(t *ParameterizedType) Type {
	return t.VisitChildren(s)
}

// VisitArrayType implements TypeVisitor.
func (s *TypeParameterSubstitution) VisitArrayType(t *ArrayType) Type {
	return t.VisitChildren(s)
}

// VisitPointerType implements TypeVisitor.
func (s *TypeParameterSubstitution) VisitPointerType(t *PointerType) Type {
	return t.VisitChildren(s)
}

// VisitByReferenceType implements TypeVisitor.
func (s *TypeParameterSubstitution) VisitByReferenceType(t *ByReferenceType) Type {
	return t.VisitChildren(s)
}

// VisitOtherType implements TypeVisitor.
func (s *TypeParameterSubstitution) VisitOtherType(t Type) Type {
	return t.VisitChildren(s)
}

// Substitute applies a TypeParameterSubstitution to t.
func Substitute(t Type, classArguments, methodArguments []Type) Type {
	return t.AcceptVisitor(NewTypeParameterSubstitution(classArguments, methodArguments))
}

// substituteReference resolves ref and applies s, which may be nil.
func substituteReference(ctx ResolveContext, ref TypeReference, s *TypeParameterSubstitution) Type {
	t := ref.Resolve(ctx)
	if s == nil {
		return t
	}
	return t.AcceptVisitor(s)
}
