package typesystem

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ConstructorName is the name given to instance constructors.
const ConstructorName = ".ctor"

// EntityKind tells the member variants apart.
type EntityKind uint8

const (
	EntityMethod EntityKind = iota
	EntityConstructor
	EntityProperty
	EntityIndexer
	EntityField
	EntityEvent
)

func (k EntityKind) String() string {
	switch k {
	case EntityMethod:
		return "method"
	case EntityConstructor:
		return "constructor"
	case EntityProperty:
		return "property"
	case EntityIndexer:
		return "indexer"
	case EntityField:
		return "field"
	case EntityEvent:
		return "event"
	}
	return fmt.Sprintf("EntityKind(%d)", k)
}

// Member is a method, property, field or event.
//
// Members returned through a ParameterizedType are specialized copies whose
// signatures have the owner's type arguments substituted; MemberDefinition
// leads back to the declaration.
type Member interface {
	NamedElement

	EntityKind() EntityKind

	// DeclaringType is the declaring definition, or for specialized members the
	// parameterized type they were retrieved through.
	DeclaringType() Type

	// DeclaringTypeDefinition is the definition that declares the member.
	DeclaringTypeDefinition() *TypeDefinition

	// ReturnType is the return, property, field or event type.
	ReturnType() TypeReference

	IsStatic() bool

	// MemberDefinition returns the unspecialized declaration.
	MemberDefinition() Member

	// IsSpecialized reports whether the member is a specialized copy.
	IsSpecialized() bool

	Equals(other Member) bool
	String() string
}

// Parameter is a method, constructor or indexer parameter.
type Parameter struct {
	name string
	typ  TypeReference
}

// NewParameter creates a parameter.
func NewParameter(name string, typ TypeReference) *Parameter {
	if typ == nil {
		panic("typesystem: nil parameter type")
	}
	return &Parameter{name: name, typ: typ}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Type returns the parameter type.
func (p *Parameter) Type() TypeReference { return p.typ }

func (p *Parameter) String() string { return p.typ.String() + " " + p.name }

func parametersEqual(a, b []*Parameter) bool {
	return slices.EqualFunc(a, b, func(x, y *Parameter) bool {
		return x.name == y.name && ReferencesEqual(x.typ, y.typ)
	})
}

func specializeParameters(ctx ResolveContext, params []*Parameter, s *TypeParameterSubstitution) []*Parameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]*Parameter, len(params))
	for i, p := range params {
		out[i] = &Parameter{name: p.name, typ: substituteReference(ctx, p.typ, s)}
	}
	return out
}

func formatParameters(params []*Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.typ.String()
	}
	return strings.Join(parts, ",")
}

// memberBase holds the state shared by all member variants.
type memberBase struct {
	name          string
	declaringDef  *TypeDefinition
	declaringType Type
	returnType    TypeReference
	static        bool
	definition    Member
}

func newMemberBase(d *TypeDefinition, name string, returnType TypeReference) memberBase {
	if returnType == nil {
		panic("typesystem: nil member type")
	}
	return memberBase{name: name, declaringDef: d, declaringType: d, returnType: returnType}
}

func (b *memberBase) checkMutable() {
	if b.definition != nil || b.declaringDef == nil || b.declaringDef.frozen {
		panic(fmt.Sprintf("typesystem: member %s is immutable", b.name))
	}
}

// Name returns the member name.
func (b *memberBase) Name() string { return b.name }

// Namespace returns the declaring type's namespace.
func (b *memberBase) Namespace() string {
	if b.declaringType == nil {
		return ""
	}
	return b.declaringType.Namespace()
}

// FullName returns the declaring type's full name followed by the member name.
func (b *memberBase) FullName() string {
	if b.declaringType == nil {
		return b.name
	}
	return b.declaringType.FullName() + "." + b.name
}

// ReflectionName returns the declaring type's reflection name followed by the member name.
func (b *memberBase) ReflectionName() string {
	if b.declaringType == nil {
		return b.name
	}
	return b.declaringType.ReflectionName() + "." + b.name
}

// DeclaringType returns the declaring (possibly parameterized) type.
func (b *memberBase) DeclaringType() Type { return b.declaringType }

// DeclaringTypeDefinition returns the declaring definition.
func (b *memberBase) DeclaringTypeDefinition() *TypeDefinition { return b.declaringDef }

// ReturnType returns the member type.
func (b *memberBase) ReturnType() TypeReference { return b.returnType }

// IsStatic reports whether the member is static.
func (b *memberBase) IsStatic() bool { return b.static }

// IsSpecialized reports whether the member is a specialized copy.
func (b *memberBase) IsSpecialized() bool { return b.definition != nil }

// SetReturnType replaces the member type. It panics once the declaring type is frozen.
func (b *memberBase) SetReturnType(ref TypeReference) {
	b.checkMutable()
	if ref == nil {
		panic("typesystem: nil member type")
	}
	b.returnType = ref
}

// SetStatic marks the member static. It panics once the declaring type is frozen.
func (b *memberBase) SetStatic(v bool) {
	b.checkMutable()
	b.static = v
}

// specialize copies b with the owner's substitution applied.
func (b memberBase) specialize(ctx ResolveContext, owner Type, s *TypeParameterSubstitution, original Member) memberBase {
	requireContext(ctx)
	if owner != nil && b.declaringDef != nil && owner.Definition() == b.declaringDef {
		b.declaringType = owner
	} else if b.declaringType != nil && s != nil {
		b.declaringType = b.declaringType.AcceptVisitor(s)
	}
	b.returnType = substituteReference(ctx, b.returnType, s)
	b.definition = original
	return b
}

func (b *memberBase) sameSignature(o *memberBase) bool {
	if b.name != o.name || b.static != o.static {
		return false
	}
	if (b.declaringType == nil) != (o.declaringType == nil) {
		return false
	}
	if b.declaringType != nil && !b.declaringType.Equals(o.declaringType) {
		return false
	}
	return ReferencesEqual(b.returnType, o.returnType)
}

// Method is a method or constructor.
type Method struct {
	memberBase
	parameters     []*Parameter
	typeParameters []*TypeParameter
	constructor    bool
}

// AddParameter appends a parameter.
func (m *Method) AddParameter(name string, typ TypeReference) *Parameter {
	m.checkMutable()
	p := NewParameter(name, typ)
	m.parameters = append(m.parameters, p)
	return p
}

// AddTypeParameter declares a method-level type parameter.
func (m *Method) AddTypeParameter(name string) *TypeParameter {
	m.checkMutable()
	tp := NewTypeParameter(OwnerMethod, len(m.typeParameters), name)
	m.typeParameters = append(m.typeParameters, tp)
	return tp
}

// Parameters returns the parameters.
func (m *Method) Parameters() []*Parameter { return slices.Clone(m.parameters) }

// TypeParameters returns the method-level type parameters.
func (m *Method) TypeParameters() []*TypeParameter { return slices.Clone(m.typeParameters) }

// IsConstructor reports whether the method is a constructor.
func (m *Method) IsConstructor() bool { return m.constructor }

// EntityKind returns EntityConstructor or EntityMethod.
func (m *Method) EntityKind() EntityKind {
	if m.constructor {
		return EntityConstructor
	}
	return EntityMethod
}

// ReflectionName appends ``N for generic methods.
func (m *Method) ReflectionName() string {
	name := m.memberBase.ReflectionName()
	if n := len(m.typeParameters); n > 0 {
		name += "``" + strconv.Itoa(n)
	}
	return name
}

// MemberDefinition returns the unspecialized method.
func (m *Method) MemberDefinition() Member {
	if m.definition != nil {
		return m.definition
	}
	return m
}

// Specialize returns a copy declared by owner with s applied to the signature.
func (m *Method) Specialize(ctx ResolveContext, owner Type, s *TypeParameterSubstitution) *Method {
	return &Method{
		memberBase:     m.memberBase.specialize(ctx, owner, s, m.MemberDefinition()),
		parameters:     specializeParameters(ctx, m.parameters, s),
		typeParameters: m.typeParameters,
		constructor:    m.constructor,
	}
}

// Equals reports whether other is the same declaration with an equal signature.
func (m *Method) Equals(other Member) bool {
	o, ok := other.(*Method)
	if !ok {
		return false
	}
	if m == o {
		return true
	}
	return m.MemberDefinition() == o.MemberDefinition() &&
		m.sameSignature(&o.memberBase) &&
		m.constructor == o.constructor &&
		parametersEqual(m.parameters, o.parameters)
}

func (m *Method) String() string {
	return fmt.Sprintf("%s(%s):%s", m.ReflectionName(), formatParameters(m.parameters), m.returnType)
}

// Property is a property or indexer.
type Property struct {
	memberBase
	parameters []*Parameter
	canGet     bool
	canSet     bool
}

// AddParameter appends an indexer parameter.
func (p *Property) AddParameter(name string, typ TypeReference) *Parameter {
	p.checkMutable()
	param := NewParameter(name, typ)
	p.parameters = append(p.parameters, param)
	return param
}

// SetAccessors declares which accessors exist.
func (p *Property) SetAccessors(canGet, canSet bool) {
	p.checkMutable()
	p.canGet, p.canSet = canGet, canSet
}

// Parameters returns the indexer parameters.
func (p *Property) Parameters() []*Parameter { return slices.Clone(p.parameters) }

// CanGet reports whether the property has a getter.
func (p *Property) CanGet() bool { return p.canGet }

// CanSet reports whether the property has a setter.
func (p *Property) CanSet() bool { return p.canSet }

// IsIndexer reports whether the property takes parameters.
func (p *Property) IsIndexer() bool { return len(p.parameters) > 0 }

// EntityKind returns EntityIndexer or EntityProperty.
func (p *Property) EntityKind() EntityKind {
	if p.IsIndexer() {
		return EntityIndexer
	}
	return EntityProperty
}

// MemberDefinition returns the unspecialized property.
func (p *Property) MemberDefinition() Member {
	if p.definition != nil {
		return p.definition
	}
	return p
}

// Specialize returns a copy declared by owner with s applied to the signature.
func (p *Property) Specialize(ctx ResolveContext, owner Type, s *TypeParameterSubstitution) *Property {
	return &Property{
		memberBase: p.memberBase.specialize(ctx, owner, s, p.MemberDefinition()),
		parameters: specializeParameters(ctx, p.parameters, s),
		canGet:     p.canGet,
		canSet:     p.canSet,
	}
}

// Equals reports whether other is the same declaration with an equal signature.
func (p *Property) Equals(other Member) bool {
	o, ok := other.(*Property)
	if !ok {
		return false
	}
	if p == o {
		return true
	}
	return p.MemberDefinition() == o.MemberDefinition() &&
		p.sameSignature(&o.memberBase) &&
		parametersEqual(p.parameters, o.parameters)
}

func (p *Property) String() string {
	if p.IsIndexer() {
		return fmt.Sprintf("%s[%s]:%s", p.ReflectionName(), formatParameters(p.parameters), p.returnType)
	}
	return fmt.Sprintf("%s:%s", p.ReflectionName(), p.returnType)
}

// Field is a field or constant.
type Field struct {
	memberBase
	readOnly bool
	constant bool
}

// SetReadOnly marks the field read-only.
func (f *Field) SetReadOnly(v bool) {
	f.checkMutable()
	f.readOnly = v
}

// SetConstant marks the field as a compile-time constant. Constants are static.
func (f *Field) SetConstant(v bool) {
	f.checkMutable()
	f.constant = v
	if v {
		f.static = true
	}
}

// IsReadOnly reports whether the field is read-only.
func (f *Field) IsReadOnly() bool { return f.readOnly }

// IsConstant reports whether the field is a constant.
func (f *Field) IsConstant() bool { return f.constant }

// EntityKind returns EntityField.
func (f *Field) EntityKind() EntityKind { return EntityField }

// MemberDefinition returns the unspecialized field.
func (f *Field) MemberDefinition() Member {
	if f.definition != nil {
		return f.definition
	}
	return f
}

// Specialize returns a copy declared by owner with s applied to the field type.
func (f *Field) Specialize(ctx ResolveContext, owner Type, s *TypeParameterSubstitution) *Field {
	return &Field{
		memberBase: f.memberBase.specialize(ctx, owner, s, f.MemberDefinition()),
		readOnly:   f.readOnly,
		constant:   f.constant,
	}
}

// Equals reports whether other is the same declaration with an equal type.
func (f *Field) Equals(other Member) bool {
	o, ok := other.(*Field)
	if !ok {
		return false
	}
	if f == o {
		return true
	}
	return f.MemberDefinition() == o.MemberDefinition() && f.sameSignature(&o.memberBase)
}

func (f *Field) String() string {
	return fmt.Sprintf("%s:%s", f.ReflectionName(), f.returnType)
}

// Event is an event whose return type is its delegate type.
type Event struct {
	memberBase
}

// EntityKind returns EntityEvent.
func (e *Event) EntityKind() EntityKind { return EntityEvent }

// MemberDefinition returns the unspecialized event.
func (e *Event) MemberDefinition() Member {
	if e.definition != nil {
		return e.definition
	}
	return e
}

// Specialize returns a copy declared by owner with s applied to the delegate type.
func (e *Event) Specialize(ctx ResolveContext, owner Type, s *TypeParameterSubstitution) *Event {
	return &Event{memberBase: e.memberBase.specialize(ctx, owner, s, e.MemberDefinition())}
}

// Equals reports whether other is the same declaration with an equal type.
func (e *Event) Equals(other Member) bool {
	o, ok := other.(*Event)
	if !ok {
		return false
	}
	if e == o {
		return true
	}
	return e.MemberDefinition() == o.MemberDefinition() && e.sameSignature(&o.memberBase)
}

func (e *Event) String() string {
	return fmt.Sprintf("%s:%s", e.ReflectionName(), e.returnType)
}
