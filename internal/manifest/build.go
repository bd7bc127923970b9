package manifest

import (
	"fmt"

	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// Build turns a document into frozen definitions. All problems are reported
// together as an ErrorList.
func Build(doc *Document) (*project.Content, error) {
	b := &builder{doc: doc}
	if doc.Assembly == "" {
		b.fail(&ManifestError{
			Code:       ErrMissingAssembly,
			Message:    "manifest does not name its assembly",
			Suggestion: "add a top-level 'assembly:' key",
		})
		return nil, b.errs
	}

	content := project.NewContent(doc.Assembly)
	seen := make(map[string]bool)
	for i := range doc.Types {
		spec := &doc.Types[i]
		def := b.topLevel(spec)
		if def == nil {
			continue
		}
		key := def.ReflectionName()
		if seen[key] {
			b.fail(&ManifestError{
				Code:    ErrDuplicateType,
				Message: fmt.Sprintf("type %s is declared more than once", key),
				Type:    key,
			})
			continue
		}
		seen[key] = true
		if err := content.Add(def); err != nil {
			b.fail(&ManifestError{Code: ErrDuplicateType, Message: err.Error(), Type: key, Cause: err})
		}
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return content, nil
}

type builder struct {
	doc  *Document
	errs ErrorList
}

func (b *builder) fail(err *ManifestError) {
	err.File = b.doc.Source
	b.errs = append(b.errs, err)
}

func (b *builder) topLevel(spec *TypeSpec) *typesystem.TypeDefinition {
	kind, ok := b.kind(spec, spec.Name)
	if !ok {
		return nil
	}
	def := typesystem.NewTypeDefinition(b.doc.Assembly, spec.Namespace, spec.Name, kind, b.typeParameterNames(spec.Name, spec.TypeParameters)...)
	b.fill(def, spec)
	return def
}

func (b *builder) kind(spec *TypeSpec, where string) (typesystem.Kind, bool) {
	if spec.Name == "" {
		b.fail(&ManifestError{
			Code:    ErrMissingName,
			Message: "type without a name",
			Type:    where,
		})
		return 0, false
	}
	if spec.Kind == "" {
		return typesystem.KindClass, true
	}
	kind, err := typesystem.ParseKind(spec.Kind)
	if err != nil || !kind.IsDeclaration() {
		b.fail(&ManifestError{
			Code:       ErrUnknownKind,
			Message:    fmt.Sprintf("unknown type kind %q", spec.Kind),
			Type:       where,
			Suggestion: "use one of class, interface, struct, delegate, enum, module or void",
			Cause:      err,
		})
		return 0, false
	}
	return kind, true
}

func (b *builder) typeParameterNames(where string, specs []TypeParameterSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			b.fail(&ManifestError{
				Code:    ErrMissingName,
				Message: fmt.Sprintf("type parameter %d has no name", i),
				Type:    where,
			})
		}
		names[i] = s.Name
	}
	return names
}

// fill declares bases, constraints, members and nested types of def.
func (b *builder) fill(def *typesystem.TypeDefinition, spec *TypeSpec) {
	where := def.ReflectionName()
	scope := &typesystem.ParseScope{TypeParameters: def.TypeParameters()}

	own := def.TypeParameters()[def.TypeParameterCount()-def.OwnTypeParameterCount():]
	b.constrain(own, spec.TypeParameters, scope, where, "")

	for _, base := range spec.Bases {
		if ref := b.reference(base, scope, where, ""); ref != nil {
			def.AddBaseType(ref)
		}
	}

	for _, m := range spec.Constructors {
		ctor := def.NewConstructor()
		ctor.SetStatic(m.Static)
		b.parameters(ctor.AddParameter, m.Parameters, scope, where, typesystem.ConstructorName)
	}

	for _, m := range spec.Methods {
		b.method(def, m, scope, where)
	}

	for _, p := range spec.Properties {
		if !b.named(p.Name, where, "property") {
			continue
		}
		ref := b.memberType(p.Type, scope, where, p.Name)
		if ref == nil {
			continue
		}
		prop := def.NewProperty(p.Name, ref)
		prop.SetStatic(p.Static)
		prop.SetAccessors(!p.WriteOnly, !p.ReadOnly)
		b.parameters(prop.AddParameter, p.Parameters, scope, where, p.Name)
	}

	for _, f := range spec.Fields {
		if !b.named(f.Name, where, "field") {
			continue
		}
		ref := b.memberType(f.Type, scope, where, f.Name)
		if ref == nil {
			continue
		}
		field := def.NewField(f.Name, ref)
		field.SetStatic(f.Static)
		field.SetReadOnly(f.ReadOnly)
		field.SetConstant(f.Const)
	}

	for _, e := range spec.Events {
		if !b.named(e.Name, where, "event") {
			continue
		}
		ref := b.memberType(e.Type, scope, where, e.Name)
		if ref == nil {
			continue
		}
		def.NewEvent(e.Name, ref).SetStatic(e.Static)
	}

	for i := range spec.Nested {
		n := &spec.Nested[i]
		kind, ok := b.kind(n, where)
		if !ok {
			continue
		}
		nested := def.NewNestedType(n.Name, kind, b.typeParameterNames(where+"+"+n.Name, n.TypeParameters)...)
		b.fill(nested, n)
	}
}

func (b *builder) method(def *typesystem.TypeDefinition, spec MethodSpec, typeScope *typesystem.ParseScope, where string) {
	if !b.named(spec.Name, where, "method") {
		return
	}

	// The return type may mention method type parameters, so it is set
	// after they are declared.
	m := def.NewMethod(spec.Name, typesystem.RefVoid)
	names := b.typeParameterNames(where, spec.TypeParameters)
	for _, name := range names {
		m.AddTypeParameter(name)
	}
	scope := &typesystem.ParseScope{
		TypeParameters:       typeScope.TypeParameters,
		MethodTypeParameters: m.TypeParameters(),
	}
	b.constrain(m.TypeParameters(), spec.TypeParameters, scope, where, spec.Name)

	m.SetStatic(spec.Static)
	if spec.Returns != "" {
		if ref := b.reference(spec.Returns, scope, where, spec.Name); ref != nil {
			m.SetReturnType(ref)
		}
	}
	b.parameters(m.AddParameter, spec.Parameters, scope, where, spec.Name)
}

func (b *builder) constrain(params []*typesystem.TypeParameter, specs []TypeParameterSpec, scope *typesystem.ParseScope, where, member string) {
	for i, s := range specs {
		if i >= len(params) {
			return
		}
		tp := params[i]
		tp.SetReferenceTypeConstraint(s.Class)
		tp.SetValueTypeConstraint(s.Struct)
		tp.SetDefaultConstructorConstraint(s.New)
		for _, c := range s.Constraints {
			if ref := b.reference(c, scope, where, member); ref != nil {
				tp.AddConstraint(ref)
			}
		}
	}
}

func (b *builder) parameters(add func(string, typesystem.TypeReference) *typesystem.Parameter, specs []ParameterSpec, scope *typesystem.ParseScope, where, member string) {
	for _, p := range specs {
		if ref := b.memberType(p.Type, scope, where, member); ref != nil {
			add(p.Name, ref)
		}
	}
}

func (b *builder) named(name, where, what string) bool {
	if name != "" {
		return true
	}
	b.fail(&ManifestError{
		Code:    ErrMissingName,
		Message: fmt.Sprintf("%s without a name", what),
		Type:    where,
	})
	return false
}

func (b *builder) memberType(name string, scope *typesystem.ParseScope, where, member string) typesystem.TypeReference {
	if name == "" {
		b.fail(&ManifestError{
			Code:       ErrMissingType,
			Message:    "member has no type",
			Type:       where,
			Member:     member,
			Suggestion: "add a 'type:' key with a reflection name such as System.Int32",
		})
		return nil
	}
	return b.reference(name, scope, where, member)
}

func (b *builder) reference(name string, scope *typesystem.ParseScope, where, member string) typesystem.TypeReference {
	ref, err := typesystem.ParseReflectionName(name, scope)
	if err != nil {
		b.fail(&ManifestError{
			Code:       ErrInvalidReference,
			Message:    err.Error(),
			Type:       where,
			Member:     member,
			Suggestion: "type references use reflection names, e.g. System.Collections.Generic.List`1[[System.String]]",
			Cause:      err,
		})
		return nil
	}
	return ref
}
