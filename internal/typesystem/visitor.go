package typesystem

// TypeVisitor has one handler per Type variant. Type.AcceptVisitor calls the
// matching handler; Type.VisitChildren applies the visitor to child types and
// rebuilds the receiver. Handlers must not return nil.
type TypeVisitor interface {
	VisitTypeDefinition(t *TypeDefinition) Type
	VisitTypeParameter(t *TypeParameter) Type
	VisitParameterizedType(t *ParameterizedType) Type
	VisitArrayType(t *ArrayType) Type
	VisitPointerType(t *PointerType) Type
	VisitByReferenceType(t *ByReferenceType) Type
	VisitOtherType(t Type) Type
}

// TypeRewriter is a TypeVisitor assembled from optional handlers. A nil handler
// visits the children and rebuilds, so a rewrite only needs the handlers for
// the variants it changes. The zero value is the identity rewrite.
//
//	replaceT := &TypeRewriter{
//		TypeParameter: func(tp *TypeParameter) Type {
//			if tp.Index() == 0 {
//				return replacement
//			}
//			return tp
//		},
//	}
//	rewritten := t.AcceptVisitor(replaceT)
type TypeRewriter struct {
	TypeDefinition    func(*TypeDefinition) Type
	TypeParameter     func(*TypeParameter) Type
	ParameterizedType func(*ParameterizedType) Type
	ArrayType         func(*ArrayType) Type
	PointerType       func(*PointerType) Type
	ByReferenceType   func(*ByReferenceType) Type
	OtherType         func(Type) Type
}

// VisitTypeDefinition implements TypeVisitor.
func (r *TypeRewriter) VisitTypeDefinition(t *TypeDefinition) Type {
	if r.TypeDefinition != nil {
		return r.TypeDefinition(t)
	}
	return t.VisitChildren(r)
}

// VisitTypeParameter implements TypeVisitor.
func (r *TypeRewriter) VisitTypeParameter(t *TypeParameter) Type {
	if r.TypeParameter != nil {
		return r.TypeParameter(t)
	}
	return t.VisitChildren(r)
}

// VisitParameterizedType implements TypeVisitor.
func (r *TypeRewriter) VisitParameterizedType(t *ParameterizedType) Type {
	if r.ParameterizedType != nil {
		return r.ParameterizedType(t)
	}
	return t.VisitChildren(r)
}

// VisitArrayType implements TypeVisitor.
func (r *TypeRewriter) VisitArrayType(t *ArrayType) Type {
	if r.ArrayType != nil {
		return r.ArrayType(t)
	}
	return t.VisitChildren(r)
}

// VisitPointerType implements TypeVisitor.
func (r *TypeRewriter) VisitPointerType(t *PointerType) Type {
	if r.PointerType != nil {
		return r.PointerType(t)
	}
	return t.VisitChildren(r)
}

// VisitByReferenceType implements TypeVisitor.
func (r *TypeRewriter) VisitByReferenceType(t *ByReferenceType) Type {
	if r.ByReferenceType != nil {
		return r.ByReferenceType(t)
	}
	return t.VisitChildren(r)
}

// VisitOtherType implements TypeVisitor.
func (r *TypeRewriter) VisitOtherType(t Type) Type {
	if r.OtherType != nil {
		return r.OtherType(t)
	}
	return t.VisitChildren(r)
}

// Identity is a visitor that returns every type unchanged.
var Identity TypeVisitor = &TypeRewriter{}

// Walk calls fn for t and every type reachable through VisitChildren, in
// pre-order. Returning false from fn skips the children of that type.
func Walk(t Type, fn func(Type) bool) {
	var w *TypeRewriter
	visit := func(t Type) Type {
		if fn(t) {
			t.VisitChildren(w)
		}
		return t
	}
	w = &TypeRewriter{
		TypeDefinition:    func(t *TypeDefinition) Type { return visit(t) },
		TypeParameter:     func(t *TypeParameter) Type { return visit(t) },
		ParameterizedType: func(t *ParameterizedType) Type { return visit(t) },
		ArrayType:         func(t *ArrayType) Type { return visit(t) },
		PointerType:       func(t *PointerType) Type { return visit(t) },
		ByReferenceType:   func(t *ByReferenceType) Type { return visit(t) },
		OtherType:         visit,
	}
	t.AcceptVisitor(w)
}

// ContainsTypeParameters reports whether any type parameter occurs in t.
func ContainsTypeParameters(t Type) bool {
	found := false
	Walk(t, func(t Type) bool {
		if t.Kind() == KindTypeParameter {
			found = true
		}
		return !found
	})
	return found
}

// ContainsUnknown reports whether any part of t failed to resolve.
func ContainsUnknown(t Type) bool {
	found := false
	Walk(t, func(t Type) bool {
		if t.Kind() == KindUnknown {
			found = true
		}
		return !found
	})
	return found
}
