package typesystem

import "iter"

// busySet records the types whose members are being collected, so that
// malformed inheritance cycles terminate.
type busySet map[Type]bool

func (b busySet) enter(t Type) bool {
	if b[t] {
		return false
	}
	b[t] = true
	return true
}

func (b busySet) leave(t Type) { delete(b, t) }

// memberKind describes how one member variant is declared, inherited and specialized.
type memberKind[M Member] struct {
	own        func(*TypeDefinition) []M
	specialize func(M, ResolveContext, Type, *TypeParameterSubstitution) M
	inherited  bool

	// fromTypeParameter supplies members of a type parameter for kinds that
	// are not inherited through constraints.
	fromTypeParameter func(*TypeParameter) []M
}

var (
	constructorKind = memberKind[*Method]{
		own:               (*TypeDefinition).DeclaredConstructors,
		specialize:        (*Method).Specialize,
		fromTypeParameter: (*TypeParameter).defaultConstructors,
	}
	methodKind = memberKind[*Method]{
		own:        (*TypeDefinition).DeclaredMethods,
		specialize: (*Method).Specialize,
		inherited:  true,
	}
	propertyKind = memberKind[*Property]{
		own:        (*TypeDefinition).DeclaredProperties,
		specialize: (*Property).Specialize,
		inherited:  true,
	}
	fieldKind = memberKind[*Field]{
		own:        (*TypeDefinition).DeclaredFields,
		specialize: (*Field).Specialize,
		inherited:  true,
	}
	eventKind = memberKind[*Event]{
		own:        (*TypeDefinition).DeclaredEvents,
		specialize: (*Event).Specialize,
		inherited:  true,
	}
)

func membersSeq[M Member](ctx ResolveContext, t Type, k *memberKind[M], filter func(M) bool) iter.Seq[M] {
	requireContext(ctx)
	return lazy(func() []M { return collectMembers(ctx, t, k, filter, busySet{}) })
}

func allMembersSeq(ctx ResolveContext, t Type, filter func(Member) bool) iter.Seq[Member] {
	requireContext(ctx)
	return lazy(func() []Member {
		var out []Member
		out = appendMembers(out, collectMembers(ctx, t, &fieldKind, adaptFilter[*Field](filter), busySet{}))
		out = appendMembers(out, collectMembers(ctx, t, &propertyKind, adaptFilter[*Property](filter), busySet{}))
		out = appendMembers(out, collectMembers(ctx, t, &methodKind, adaptFilter[*Method](filter), busySet{}))
		out = appendMembers(out, collectMembers(ctx, t, &eventKind, adaptFilter[*Event](filter), busySet{}))
		return out
	})
}

func adaptFilter[M Member](filter func(Member) bool) func(M) bool {
	if filter == nil {
		return nil
	}
	return func(m M) bool { return filter(m) }
}

func appendMembers[M Member](out []Member, ms []M) []Member {
	for _, m := range ms {
		out = append(out, m)
	}
	return out
}

func filtered[M Member](ms []M, filter func(M) bool) []M {
	if filter == nil {
		return ms
	}
	var out []M
	for _, m := range ms {
		if filter(m) {
			out = append(out, m)
		}
	}
	return out
}

// collectMembers gathers the members of kind k visible on t. The filter is
// applied to declarations before any specialization.
func collectMembers[M Member](ctx ResolveContext, t Type, k *memberKind[M], filter func(M) bool, busy busySet) []M {
	switch t := t.(type) {
	case *TypeDefinition:
		if !busy.enter(t) {
			return nil
		}
		defer busy.leave(t)
		var out []M
		if k.inherited {
			sources := 0
			for _, base := range t.resolveBaseTypes(ctx) {
				def := base.Definition()
				if def == nil || (def.Kind() == KindInterface && t.Kind() != KindInterface) {
					continue
				}
				out = append(out, collectMembers(ctx, base, k, filter, busy)...)
				sources++
			}
			if sources > 1 {
				out = distinctMembers(out)
			}
		}
		return append(out, filtered(k.own(t), filter)...)

	case *ParameterizedType:
		out := collectMembers(ctx, t.definition, k, filter, busy)
		subst := t.Substitution()
		for i, m := range out {
			out[i] = k.specialize(m, ctx, t, subst)
		}
		return out

	case *ArrayType:
		if !k.inherited {
			return nil
		}
		base := RefArray.Resolve(ctx)
		if base.Definition() == nil {
			return nil
		}
		return collectMembers(ctx, base, k, filter, busy)

	case *TypeParameter:
		if !k.inherited {
			if k.fromTypeParameter == nil {
				return nil
			}
			return filtered(k.fromTypeParameter(t), filter)
		}
		if !busy.enter(t) {
			return nil
		}
		defer busy.leave(t)
		var out []M
		for base := range t.BaseTypes(ctx) {
			out = append(out, collectMembers(ctx, base, k, filter, busy)...)
		}
		return distinctMembers(out)
	}
	return nil
}

func distinctMembers[M Member](ms []M) []M {
	out := ms[:0:0]
	for _, m := range ms {
		dup := false
		for _, seen := range out {
			if seen.Equals(m) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}

func nestedTypesSeq(ctx ResolveContext, t Type, filter func(*TypeDefinition) bool) iter.Seq[Type] {
	requireContext(ctx)
	return lazy(func() []Type { return collectNestedTypes(ctx, t, filter) })
}

// collectNestedTypes returns the nested types of t and of its base classes.
//
// Outer type parameter slots take their values from the parameterized type the
// nested type was found through, or stay self-parameterized when found through
// a bare definition. Slots for the nested type's own parameters are set to
// UnboundTypeArgument: they cannot be leaked like the outer ones because their
// indices could collide with those of the queried type.
func collectNestedTypes(ctx ResolveContext, t Type, filter func(*TypeDefinition) bool) []Type {
	var out []Type
	for _, cls := range classChain(ctx, t) {
		def := cls.Definition()
		pt, _ := cls.(*ParameterizedType)
		outer := def.TypeParameterCount()
		for _, nested := range def.nested {
			if filter != nil && !filter(nested) {
				continue
			}
			total := nested.TypeParameterCount()
			if total == 0 || (pt == nil && total == outer) {
				out = append(out, nested)
				continue
			}
			args := make([]Type, total)
			for i := 0; i < outer; i++ {
				if pt != nil {
					args[i] = pt.arguments[i]
				} else {
					args[i] = def.typeParameters[i]
				}
			}
			for i := outer; i < total; i++ {
				args[i] = UnboundTypeArgument
			}
			out = append(out, NewParameterizedType(nested, args))
		}
	}
	return out
}

// classChain returns t followed by its base classes, most derived first.
// Interfaces are not followed.
func classChain(ctx ResolveContext, t Type) []Type {
	var chain []Type
	seen := map[*TypeDefinition]bool{}
	for cur := t; cur != nil; {
		def := cur.Definition()
		if def == nil || seen[def] {
			break
		}
		seen[def] = true
		chain = append(chain, cur)
		var next Type
		for base := range cur.BaseTypes(ctx) {
			if bd := base.Definition(); bd != nil && bd.Kind() != KindInterface {
				next = base
				break
			}
		}
		cur = next
	}
	return chain
}

// AllBaseTypes returns t and all of its transitive base types, each once,
// depth first with t first. A base whose definition is already being
// expanded further up the path is skipped, so self-referential chains such
// as A<T> : A<List<T>> stop after one step.
func AllBaseTypes(ctx ResolveContext, t Type) []Type {
	requireContext(ctx)
	set := NewTypeSet()
	collectBaseTypes(ctx, t, map[*TypeDefinition]bool{}, set)
	return set.Slice()
}

func collectBaseTypes(ctx ResolveContext, t Type, active map[*TypeDefinition]bool, set *TypeSet) {
	if def := t.Definition(); def != nil {
		if active[def] {
			return
		}
		active[def] = true
		defer delete(active, def)
	}
	if !set.Add(t) {
		return
	}
	for base := range t.BaseTypes(ctx) {
		collectBaseTypes(ctx, base, active, set)
	}
}
