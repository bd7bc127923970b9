package typesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionNames(t *testing.T) {
	outer := NewTypeDefinition("app", "App.Models", "Outer", KindClass, "T")
	inner := outer.NewNestedType("Inner", KindClass, "U")
	plain := outer.NewNestedType("Plain", KindStruct)
	global := NewTypeDefinition("app", "", "Program", KindClass)

	tests := []struct {
		name       string
		def        *TypeDefinition
		fullName   string
		reflection string
		namespace  string
		total      int
		own        int
	}{
		{"generic top-level", outer, "App.Models.Outer", "App.Models.Outer`1", "App.Models", 1, 1},
		{"generic nested", inner, "App.Models.Outer.Inner", "App.Models.Outer`1+Inner`1", "App.Models", 2, 1},
		{"nested without own parameters", plain, "App.Models.Outer.Plain", "App.Models.Outer`1+Plain", "App.Models", 1, 0},
		{"global namespace", global, "Program", "Program", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fullName, tt.def.FullName())
			assert.Equal(t, tt.reflection, tt.def.ReflectionName())
			assert.Equal(t, tt.namespace, tt.def.Namespace())
			assert.Equal(t, tt.total, tt.def.TypeParameterCount())
			assert.Equal(t, tt.own, tt.def.OwnTypeParameterCount())
		})
	}
}

func TestNestedTypeSharesOuterTypeParameters(t *testing.T) {
	outer := NewTypeDefinition("app", "Ns", "Outer", KindClass, "T")
	inner := outer.NewNestedType("Inner", KindClass, "U")

	params := inner.TypeParameters()
	require.Len(t, params, 2)
	assert.Same(t, outer.TypeParameters()[0], params[0])
	assert.Equal(t, "U", params[1].Name())
	assert.Equal(t, 1, params[1].Index())
	assert.Same(t, outer, inner.DeclaringTypeDefinition())
	assert.Same(t, outer, inner.DeclaringType())
}

func TestParameterizedTypeNames(t *testing.T) {
	c := newCorlib()
	newContext(c.defs()...)

	listOfString := NewParameterizedType(c.list, []Type{c.str})
	assert.Equal(t, "System.Collections.Generic.List`1[[System.String]]", listOfString.ReflectionName())
	assert.Equal(t, "System.Collections.Generic.List", listOfString.FullName())
	assert.Equal(t, "List", listOfString.Name())
	assert.Equal(t, KindClass, listOfString.Kind())
	assert.Zero(t, listOfString.TypeParameterCount())
	assert.Same(t, c.list, listOfString.Definition())

	dict := NewParameterizedType(c.dictionary, []Type{c.str, NewArrayType(c.int32, 2)})
	assert.Equal(t, "System.Collections.Generic.Dictionary`2[[System.String],[System.Int32[,]]]", dict.ReflectionName())
}

func TestParameterizedDeclaringType(t *testing.T) {
	c := newCorlib()
	outer := NewTypeDefinition("app", "Ns", "Outer", KindClass, "T")
	inner := outer.NewNestedType("Inner", KindClass, "U")
	newContext(outer)

	pt := NewParameterizedType(inner, []Type{c.str, c.int32})
	want := NewParameterizedType(outer, []Type{c.str})
	assert.True(t, want.Equals(pt.DeclaringType()))
	assert.Nil(t, want.DeclaringType())
}

func TestNewParameterizedTypeValidates(t *testing.T) {
	c := newCorlib()

	assert.Panics(t, func() { NewParameterizedType(nil, nil) })
	assert.Panics(t, func() { NewParameterizedType(c.list, nil) })
	assert.Panics(t, func() { NewParameterizedType(c.list, []Type{c.str, c.str}) })
	assert.Panics(t, func() { NewParameterizedType(c.list, []Type{nil}) })
}

func TestBaseTypes(t *testing.T) {
	c := newCorlib()
	point := NewTypeDefinition("app", "App", "Point", KindStruct)
	color := NewTypeDefinition("app", "App", "Color", KindEnum)
	handler := NewTypeDefinition("app", "App", "Handler", KindDelegate)
	ctx := c.context(point, color, handler)

	tests := []struct {
		name string
		typ  Type
		want []string
	}{
		{"root has no base", c.object, []string{}},
		{"class gets implicit object", c.str, []string{"System.Object"}},
		{"struct gets value type", point, []string{"System.ValueType"}},
		{"enum gets enum", color, []string{"System.Enum"}},
		{"delegate gets delegate", handler, []string{"System.Delegate"}},
		{"declared base wins", c.enum, []string{"System.ValueType"}},
		{"interface has no implicit base", c.ilist, []string{}},
		{"class before interfaces", c.list, []string{"System.Object", "System.Collections.Generic.IList`1[[`0]]"}},
		{
			"substituted through parameterized type",
			NewParameterizedType(c.list, []Type{c.str}),
			[]string{"System.Object", "System.Collections.Generic.IList`1[[System.String]]"},
		},
		{"array", NewArrayType(c.str, 1), []string{"System.Array", "System.Collections.Generic.IList`1[[System.String]]"}},
		{"multi-dimensional array", NewArrayType(c.str, 2), []string{"System.Array"}},
		{"pointer", NewPointerType(c.int32), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reflectionNames(Collect(tt.typ.BaseTypes(ctx))))
		})
	}
}

func TestImplicitBaseSkippedWhenUnresolvable(t *testing.T) {
	lonely := NewTypeDefinition("app", "App", "Lonely", KindClass)
	ctx := newContext(lonely)

	assert.Empty(t, Collect(lonely.BaseTypes(ctx)))
}

func TestExplicitUnresolvedBaseIsKept(t *testing.T) {
	def := NewTypeDefinition("app", "App", "Widget", KindClass)
	def.AddBaseType(NewClassTypeReference("Missing", "Control", 0))
	ctx := newContext(def)

	bases := Collect(def.BaseTypes(ctx))
	require.Len(t, bases, 1)
	assert.Same(t, Unknown, bases[0])
}

func TestAllBaseTypes(t *testing.T) {
	c := newCorlib()
	ctx := c.context()

	all := AllBaseTypes(ctx, NewParameterizedType(c.list, []Type{c.str}))
	assert.Equal(t, []string{
		"System.Collections.Generic.List`1[[System.String]]",
		"System.Object",
		"System.Collections.Generic.IList`1[[System.String]]",
	}, reflectionNames(all))
}

func TestFrozenDefinitionPanics(t *testing.T) {
	c := newCorlib()
	ctx := c.context()

	assert.True(t, c.list.IsFrozen())
	assert.Panics(t, func() { c.list.NewMethod("Clear", RefVoid) })
	assert.Panics(t, func() { c.list.AddBaseType(RefObject) })
	assert.Panics(t, func() { c.list.NewNestedType("Enumerator", KindStruct) })
	assert.Panics(t, func() { c.list.DeclaredMethods()[0].AddParameter("index", RefInt32) })
	assert.Panics(t, func() { c.list.DeclaredFields()[0].SetReadOnly(true) })
	assert.Panics(t, func() { c.list.TypeParameters()[0].AddConstraint(RefObject) })

	specialized := Collect(NewParameterizedType(c.list, []Type{c.str}).Properties(ctx, nil))
	require.NotEmpty(t, specialized)
	assert.Panics(t, func() { specialized[0].SetStatic(true) })
}

func TestFreezeIsRecursive(t *testing.T) {
	outer := NewTypeDefinition("app", "Ns", "Outer", KindClass)
	inner := outer.NewNestedType("Inner", KindClass, "U")
	m := inner.NewMethod("Map", RefVoid)
	mtp := m.AddTypeParameter("R")

	outer.Freeze()

	assert.True(t, inner.IsFrozen())
	assert.Panics(t, func() { inner.NewField("x", RefInt32) })
	assert.Panics(t, func() { mtp.SetReferenceTypeConstraint(true) })
	assert.Panics(t, func() { m.AddTypeParameter("S") })
}

func TestDefinitionEquals(t *testing.T) {
	a := NewTypeDefinition("app", "Ns", "Widget", KindClass, "T")
	b := NewTypeDefinition("app", "Ns", "Widget", KindClass, "U")
	other := NewTypeDefinition("lib", "Ns", "Widget", KindClass, "T")
	arity := NewTypeDefinition("app", "Ns", "Widget", KindClass)

	assert.True(t, a.Equals(a))
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(other))
	assert.False(t, a.Equals(arity))
	assert.False(t, a.Equals(Unknown))
}
