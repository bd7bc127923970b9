package typesystem

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
)

// TypeDefinition is a type declaration. It is also a Type: used directly it is
// the unparameterized view in which its own type parameters appear as-is.
//
// A definition is built with the New*/Add* methods and then frozen. Frozen
// definitions are immutable and safe for concurrent use; mutating one panics.
type TypeDefinition struct {
	assembly       string
	namespace      string
	name           string
	kind           Kind
	declaring      *TypeDefinition
	typeParameters []*TypeParameter
	baseTypes      []TypeReference
	nested         []*TypeDefinition
	methods        []*Method
	properties     []*Property
	fields         []*Field
	events         []*Event
	frozen         bool
}

// NewTypeDefinition creates a top-level definition. Each type parameter name
// becomes a class-owned type parameter, indexed in order.
func NewTypeDefinition(assembly, namespace, name string, kind Kind, typeParameters ...string) *TypeDefinition {
	if name == "" {
		panic("typesystem: type definition needs a name")
	}
	d := &TypeDefinition{
		assembly:  assembly,
		namespace: namespace,
		name:      name,
		kind:      kind,
	}
	for _, tp := range typeParameters {
		d.addTypeParameter(tp)
	}
	return d
}

// NewNestedType creates a definition nested in d. The outer type parameters are
// inherited first; the given names become additional parameters after them.
func (d *TypeDefinition) NewNestedType(name string, kind Kind, typeParameters ...string) *TypeDefinition {
	d.checkMutable()
	n := &TypeDefinition{
		assembly:       d.assembly,
		namespace:      d.namespace,
		name:           name,
		kind:           kind,
		declaring:      d,
		typeParameters: slices.Clone(d.typeParameters),
	}
	for _, tp := range typeParameters {
		n.addTypeParameter(tp)
	}
	d.nested = append(d.nested, n)
	return n
}

func (d *TypeDefinition) addTypeParameter(name string) *TypeParameter {
	tp := NewTypeParameter(OwnerType, len(d.typeParameters), name)
	d.typeParameters = append(d.typeParameters, tp)
	return tp
}

// AddBaseType appends a direct base type reference.
func (d *TypeDefinition) AddBaseType(ref TypeReference) {
	d.checkMutable()
	if ref == nil {
		panic("typesystem: nil base type reference")
	}
	d.baseTypes = append(d.baseTypes, ref)
}

// NewMethod declares a method.
func (d *TypeDefinition) NewMethod(name string, returnType TypeReference) *Method {
	d.checkMutable()
	m := &Method{memberBase: newMemberBase(d, name, returnType)}
	d.methods = append(d.methods, m)
	return m
}

// NewConstructor declares an instance constructor.
func (d *TypeDefinition) NewConstructor() *Method {
	m := d.NewMethod(ConstructorName, RefVoid)
	m.constructor = true
	return m
}

// NewProperty declares a property.
func (d *TypeDefinition) NewProperty(name string, returnType TypeReference) *Property {
	d.checkMutable()
	p := &Property{memberBase: newMemberBase(d, name, returnType), canGet: true, canSet: true}
	d.properties = append(d.properties, p)
	return p
}

// NewField declares a field.
func (d *TypeDefinition) NewField(name string, returnType TypeReference) *Field {
	d.checkMutable()
	f := &Field{memberBase: newMemberBase(d, name, returnType)}
	d.fields = append(d.fields, f)
	return f
}

// NewEvent declares an event.
func (d *TypeDefinition) NewEvent(name string, returnType TypeReference) *Event {
	d.checkMutable()
	e := &Event{memberBase: newMemberBase(d, name, returnType)}
	d.events = append(d.events, e)
	return e
}

// Freeze makes the definition, its nested types and its members immutable.
func (d *TypeDefinition) Freeze() {
	if d.frozen {
		return
	}
	d.frozen = true
	for _, tp := range d.typeParameters {
		tp.frozen = true
	}
	for _, m := range d.methods {
		for _, tp := range m.typeParameters {
			tp.frozen = true
		}
	}
	for _, n := range d.nested {
		n.Freeze()
	}
}

// IsFrozen reports whether Freeze has been called.
func (d *TypeDefinition) IsFrozen() bool { return d.frozen }

func (d *TypeDefinition) checkMutable() {
	if d.frozen {
		panic(fmt.Sprintf("typesystem: definition %s is frozen", d.ReflectionName()))
	}
}

// Assembly returns the name of the assembly that declares the type.
func (d *TypeDefinition) Assembly() string { return d.assembly }

// DeclaringTypeDefinition returns the enclosing definition, or nil.
func (d *TypeDefinition) DeclaringTypeDefinition() *TypeDefinition { return d.declaring }

// TypeParameters returns all type parameters, outer ones first.
func (d *TypeDefinition) TypeParameters() []*TypeParameter { return slices.Clone(d.typeParameters) }

// OwnTypeParameterCount returns the number of type parameters the declaration adds
// on top of its declaring type.
func (d *TypeDefinition) OwnTypeParameterCount() int {
	if d.declaring == nil {
		return len(d.typeParameters)
	}
	return len(d.typeParameters) - len(d.declaring.typeParameters)
}

// BaseTypeReferences returns the declared base type references.
func (d *TypeDefinition) BaseTypeReferences() []TypeReference { return slices.Clone(d.baseTypes) }

// NestedTypeDefinitions returns the directly nested declarations.
func (d *TypeDefinition) NestedTypeDefinitions() []*TypeDefinition { return slices.Clone(d.nested) }

// DeclaredMethods returns the declared methods, constructors excluded.
func (d *TypeDefinition) DeclaredMethods() []*Method {
	out := make([]*Method, 0, len(d.methods))
	for _, m := range d.methods {
		if !m.constructor {
			out = append(out, m)
		}
	}
	return out
}

// DeclaredConstructors returns the declared instance constructors.
func (d *TypeDefinition) DeclaredConstructors() []*Method {
	var out []*Method
	for _, m := range d.methods {
		if m.constructor && !m.static {
			out = append(out, m)
		}
	}
	return out
}

// DeclaredProperties returns the declared properties.
func (d *TypeDefinition) DeclaredProperties() []*Property { return slices.Clone(d.properties) }

// DeclaredFields returns the declared fields.
func (d *TypeDefinition) DeclaredFields() []*Field { return slices.Clone(d.fields) }

// DeclaredEvents returns the declared events.
func (d *TypeDefinition) DeclaredEvents() []*Event { return slices.Clone(d.events) }

// Resolve returns the receiver.
func (d *TypeDefinition) Resolve(ResolveContext) Type { return d }

func (d *TypeDefinition) String() string { return d.ReflectionName() }

// Name returns the simple name.
func (d *TypeDefinition) Name() string { return d.name }

// Namespace returns the namespace; nested types share their outer type's namespace.
func (d *TypeDefinition) Namespace() string { return d.namespace }

// FullName returns the dotted name, with nested types separated by '.'.
func (d *TypeDefinition) FullName() string {
	if d.declaring != nil {
		return d.declaring.FullName() + "." + d.name
	}
	if d.namespace == "" {
		return d.name
	}
	return d.namespace + "." + d.name
}

// ReflectionName returns the name in the form Ns.Outer`1+Inner`2.
func (d *TypeDefinition) ReflectionName() string {
	var prefix string
	switch {
	case d.declaring != nil:
		prefix = d.declaring.ReflectionName() + "+"
	case d.namespace != "":
		prefix = d.namespace + "."
	}
	name := prefix + d.name
	if own := d.OwnTypeParameterCount(); own > 0 {
		name += "`" + strconv.Itoa(own)
	}
	return name
}

// Kind returns the declared kind.
func (d *TypeDefinition) Kind() Kind { return d.kind }

// IsReferenceType classifies by kind.
func (d *TypeDefinition) IsReferenceType(ctx ResolveContext) Tristate {
	requireContext(ctx)
	switch d.kind {
	case KindClass, KindInterface, KindDelegate, KindModule:
		return TriTrue
	case KindStruct, KindEnum, KindVoid:
		return TriFalse
	}
	return TriUnknown
}

// Definition returns the receiver.
func (d *TypeDefinition) Definition() *TypeDefinition { return d }

// DeclaringType returns the enclosing definition, or nil.
func (d *TypeDefinition) DeclaringType() Type {
	if d.declaring == nil {
		return nil
	}
	return d.declaring
}

// TypeParameterCount returns the total number of type parameters, outer ones included.
func (d *TypeDefinition) TypeParameterCount() int { return len(d.typeParameters) }

// AcceptVisitor calls VisitTypeDefinition.
func (d *TypeDefinition) AcceptVisitor(v TypeVisitor) Type {
	requireVisitor(v)
	return v.VisitTypeDefinition(d)
}

// VisitChildren returns the receiver; a definition has no child types.
func (d *TypeDefinition) VisitChildren(v TypeVisitor) Type {
	requireVisitor(v)
	return d
}

// BaseTypes resolves the declared base types. Classes, structs, enums and
// delegates without a declared base class get the implicit one when it can be
// resolved.
func (d *TypeDefinition) BaseTypes(ctx ResolveContext) iter.Seq[Type] {
	requireContext(ctx)
	return lazy(func() []Type { return d.resolveBaseTypes(ctx) })
}

func (d *TypeDefinition) resolveBaseTypes(ctx ResolveContext) []Type {
	var classes, interfaces []Type
	for _, ref := range d.baseTypes {
		t := ref.Resolve(ctx)
		if t.Kind() == KindInterface {
			interfaces = append(interfaces, t)
		} else {
			classes = append(classes, t)
		}
	}
	if len(classes) == 0 {
		if ref := d.implicitBaseType(); ref != nil {
			if t := ref.Resolve(ctx); t.Kind() != KindUnknown && !t.Equals(d) {
				classes = append(classes, t)
			}
		}
	}
	return append(classes, interfaces...)
}

func (d *TypeDefinition) implicitBaseType() TypeReference {
	switch d.kind {
	case KindClass, KindModule:
		if d.isRoot() {
			return nil
		}
		return RefObject
	case KindStruct:
		return RefValueType
	case KindEnum:
		return RefEnum
	case KindDelegate:
		return RefDelegate
	}
	return nil
}

func (d *TypeDefinition) isRoot() bool {
	return d.declaring == nil && d.namespace == "System" && d.name == "Object" && len(d.typeParameters) == 0
}

// NestedTypes returns the nested types of d and of its base classes.
func (d *TypeDefinition) NestedTypes(ctx ResolveContext, filter func(*TypeDefinition) bool) iter.Seq[Type] {
	return nestedTypesSeq(ctx, d, filter)
}

// Constructors returns the declared instance constructors.
func (d *TypeDefinition) Constructors(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, d, &constructorKind, filter)
}

// Methods returns declared and inherited methods.
func (d *TypeDefinition) Methods(ctx ResolveContext, filter func(*Method) bool) iter.Seq[*Method] {
	return membersSeq(ctx, d, &methodKind, filter)
}

// Properties returns declared and inherited properties.
func (d *TypeDefinition) Properties(ctx ResolveContext, filter func(*Property) bool) iter.Seq[*Property] {
	return membersSeq(ctx, d, &propertyKind, filter)
}

// Fields returns declared and inherited fields.
func (d *TypeDefinition) Fields(ctx ResolveContext, filter func(*Field) bool) iter.Seq[*Field] {
	return membersSeq(ctx, d, &fieldKind, filter)
}

// Events returns declared and inherited events.
func (d *TypeDefinition) Events(ctx ResolveContext, filter func(*Event) bool) iter.Seq[*Event] {
	return membersSeq(ctx, d, &eventKind, filter)
}

// Members returns fields, properties, methods and events.
func (d *TypeDefinition) Members(ctx ResolveContext, filter func(Member) bool) iter.Seq[Member] {
	return allMembersSeq(ctx, d, filter)
}

// Equals reports whether other denotes the same declaration.
func (d *TypeDefinition) Equals(other Type) bool {
	o, ok := other.(*TypeDefinition)
	if !ok {
		return false
	}
	if d == o {
		return true
	}
	return d.assembly == o.assembly && d.kind == o.kind && d.ReflectionName() == o.ReflectionName()
}
