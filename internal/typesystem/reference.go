package typesystem

import (
	"slices"
	"strconv"
	"strings"
)

// Well-known references used for implicit base types.
var (
	RefObject    = NewClassTypeReference("System", "Object", 0)
	RefValueType = NewClassTypeReference("System", "ValueType", 0)
	RefEnum      = NewClassTypeReference("System", "Enum", 0)
	RefDelegate  = NewClassTypeReference("System", "Delegate", 0)
	RefArray     = NewClassTypeReference("System", "Array", 0)
	RefVoid      = NewClassTypeReference("System", "Void", 0)
	RefString    = NewClassTypeReference("System", "String", 0)
	RefInt32     = NewClassTypeReference("System", "Int32", 0)
	RefBoolean   = NewClassTypeReference("System", "Boolean", 0)
	RefIListOfT  = NewClassTypeReference("System.Collections.Generic", "IList", 1)
)

// ClassTypeReference refers to a top-level definition by namespace, name and arity.
type ClassTypeReference struct {
	namespace          string
	name               string
	typeParameterCount int
}

// NewClassTypeReference creates a reference to a top-level type.
func NewClassTypeReference(namespace, name string, typeParameterCount int) *ClassTypeReference {
	return &ClassTypeReference{namespace: namespace, name: name, typeParameterCount: typeParameterCount}
}

// Namespace returns the referenced namespace.
func (r *ClassTypeReference) Namespace() string { return r.namespace }

// Name returns the referenced simple name.
func (r *ClassTypeReference) Name() string { return r.name }

// TypeParameterCount returns the referenced arity.
func (r *ClassTypeReference) TypeParameterCount() int { return r.typeParameterCount }

// Resolve looks the definition up in ctx.
func (r *ClassTypeReference) Resolve(ctx ResolveContext) Type {
	requireContext(ctx)
	if def := ctx.GetTypeDefinition(r.namespace, r.name, r.typeParameterCount); def != nil {
		return def
	}
	return Unknown
}

func (r *ClassTypeReference) String() string {
	var b strings.Builder
	if r.namespace != "" {
		b.WriteString(r.namespace)
		b.WriteByte('.')
	}
	b.WriteString(r.name)
	if r.typeParameterCount > 0 {
		b.WriteByte('`')
		b.WriteString(strconv.Itoa(r.typeParameterCount))
	}
	return b.String()
}

// NestedTypeReference refers to a type nested in another referenced type.
type NestedTypeReference struct {
	declaring                    TypeReference
	name                         string
	additionalTypeParameterCount int
}

// NewNestedTypeReference creates a reference to a nested type. The count is the
// number of type parameters the nested type adds to its declaring type.
func NewNestedTypeReference(declaring TypeReference, name string, additionalTypeParameterCount int) *NestedTypeReference {
	if declaring == nil {
		panic("typesystem: nil declaring type reference")
	}
	return &NestedTypeReference{declaring: declaring, name: name, additionalTypeParameterCount: additionalTypeParameterCount}
}

// Resolve finds the nested definition inside the resolved declaring type.
func (r *NestedTypeReference) Resolve(ctx ResolveContext) Type {
	requireContext(ctx)
	outer := r.declaring.Resolve(ctx).Definition()
	if outer == nil {
		return Unknown
	}
	want := outer.TypeParameterCount() + r.additionalTypeParameterCount
	for _, n := range outer.nested {
		if n.name == r.name && n.TypeParameterCount() == want {
			return n
		}
	}
	return Unknown
}

func (r *NestedTypeReference) String() string {
	s := r.declaring.String() + "+" + r.name
	if r.additionalTypeParameterCount > 0 {
		s += "`" + strconv.Itoa(r.additionalTypeParameterCount)
	}
	return s
}

// ParameterizedTypeReference applies type argument references to a generic type reference.
type ParameterizedTypeReference struct {
	generic   TypeReference
	arguments []TypeReference
}

// NewParameterizedTypeReference creates a parameterized reference.
func NewParameterizedTypeReference(generic TypeReference, arguments []TypeReference) *ParameterizedTypeReference {
	if generic == nil {
		panic("typesystem: nil generic type reference")
	}
	return &ParameterizedTypeReference{generic: generic, arguments: slices.Clone(arguments)}
}

// Resolve resolves the generic definition and the arguments. Missing arguments
// resolve to Unknown; surplus arguments are ignored.
func (r *ParameterizedTypeReference) Resolve(ctx ResolveContext) Type {
	requireContext(ctx)
	def := r.generic.Resolve(ctx).Definition()
	if def == nil {
		return Unknown
	}
	n := def.TypeParameterCount()
	if n == 0 {
		return def
	}
	args := make([]Type, n)
	for i := range args {
		if i < len(r.arguments) {
			args[i] = r.arguments[i].Resolve(ctx)
		} else {
			args[i] = Unknown
		}
	}
	return NewParameterizedType(def, args)
}

func (r *ParameterizedTypeReference) String() string {
	var b strings.Builder
	b.WriteString(r.generic.String())
	b.WriteByte('[')
	for i, a := range r.arguments {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		b.WriteString(a.String())
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// ArrayTypeReference refers to an array of a referenced element type.
type ArrayTypeReference struct {
	element    TypeReference
	dimensions int
}

// NewArrayTypeReference creates an array reference.
func NewArrayTypeReference(element TypeReference, dimensions int) *ArrayTypeReference {
	if element == nil {
		panic("typesystem: nil array element reference")
	}
	if dimensions < 1 {
		panic("typesystem: array needs at least one dimension")
	}
	return &ArrayTypeReference{element: element, dimensions: dimensions}
}

// Resolve returns an ArrayType of the resolved element.
func (r *ArrayTypeReference) Resolve(ctx ResolveContext) Type {
	requireContext(ctx)
	return NewArrayType(r.element.Resolve(ctx), r.dimensions)
}

func (r *ArrayTypeReference) String() string { return r.element.String() + arraySuffix(r.dimensions) }

// PointerTypeReference refers to a pointer to a referenced element type.
type PointerTypeReference struct {
	element TypeReference
}

// NewPointerTypeReference creates a pointer reference.
func NewPointerTypeReference(element TypeReference) *PointerTypeReference {
	if element == nil {
		panic("typesystem: nil pointer element reference")
	}
	return &PointerTypeReference{element: element}
}

// Resolve returns a PointerType of the resolved element.
func (r *PointerTypeReference) Resolve(ctx ResolveContext) Type {
	requireContext(ctx)
	return NewPointerType(r.element.Resolve(ctx))
}

func (r *PointerTypeReference) String() string { return r.element.String() + "*" }

// ByReferenceTypeReference refers to a by-reference type.
type ByReferenceTypeReference struct {
	element TypeReference
}

// NewByReferenceTypeReference creates a by-reference reference.
func NewByReferenceTypeReference(element TypeReference) *ByReferenceTypeReference {
	if element == nil {
		panic("typesystem: nil by-reference element reference")
	}
	return &ByReferenceTypeReference{element: element}
}

// Resolve returns a ByReferenceType of the resolved element.
func (r *ByReferenceTypeReference) Resolve(ctx ResolveContext) Type {
	requireContext(ctx)
	return NewByReferenceType(r.element.Resolve(ctx))
}

func (r *ByReferenceTypeReference) String() string { return r.element.String() + "&" }

// ReferencesEqual compares two references. Types compare structurally; other
// references compare by their reflection-name form.
func ReferencesEqual(a, b TypeReference) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, aok := a.(Type)
	tb, bok := b.(Type)
	if aok && bok {
		return ta.Equals(tb)
	}
	if aok != bok {
		return false
	}
	return a.String() == b.String()
}
