package typesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReferenceType(t *testing.T) {
	c := newCorlib()
	callback := NewTypeDefinition("a", "App", "Callback", KindDelegate)
	ctx := c.context(callback)

	classTP := NewTypeParameter(OwnerType, 0, "TClass")
	classTP.SetReferenceTypeConstraint(true)
	structTP := NewTypeParameter(OwnerType, 0, "TStruct")
	structTP.SetValueTypeConstraint(true)
	baseTP := NewTypeParameter(OwnerType, 1, "TBase")
	baseTP.AddConstraint(RefString)
	chainedTP := NewTypeParameter(OwnerMethod, 0, "TChained")
	chainedTP.AddConstraint(classTP)
	delegateTP := NewTypeParameter(OwnerType, 2, "TDelegate")
	delegateTP.AddConstraint(NewClassTypeReference("App", "Callback", 0))
	enumTP := NewTypeParameter(OwnerType, 3, "TEnum")
	enumTP.AddConstraint(RefEnum)

	tests := []struct {
		name string
		typ  Type
		want Tristate
	}{
		{"class", c.str, TriTrue},
		{"interface", c.ilist, TriTrue},
		{"delegate", NewTypeDefinition("a", "", "Callback", KindDelegate), TriTrue},
		{"module", NewTypeDefinition("a", "", "Helpers", KindModule), TriTrue},
		{"struct", c.int32, TriFalse},
		{"enum", NewTypeDefinition("a", "", "Color", KindEnum), TriFalse},
		{"void", c.void, TriFalse},
		{"parameterized class", NewParameterizedType(c.list, []Type{c.int32}), TriTrue},
		{"array", NewArrayType(c.int32, 1), TriTrue},
		{"pointer", NewPointerType(c.int32), TriFalse},
		{"by reference", NewByReferenceType(c.str), TriFalse},
		{"unknown", Unknown, TriUnknown},
		{"unbound", UnboundTypeArgument, TriUnknown},
		{"null", Null, TriTrue},
		{"dynamic", Dynamic, TriTrue},
		{"unconstrained type parameter", NewTypeParameter(OwnerType, 0, "T"), TriUnknown},
		{"class constraint", classTP, TriTrue},
		{"struct constraint", structTP, TriFalse},
		{"class base constraint", baseTP, TriTrue},
		{"constraint through type parameter", chainedTP, TriTrue},
		{"delegate base constraint", delegateTP, TriTrue},
		{"enum base constraint", enumTP, TriUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.IsReferenceType(ctx))
		})
	}
}

func TestUnresolvedReferences(t *testing.T) {
	ctx := newCorlib().context()

	refs := []TypeReference{
		NewClassTypeReference("Missing", "Type", 0),
		NewClassTypeReference("System", "String", 1),
		NewNestedTypeReference(RefString, "Inner", 0),
		NewParameterizedTypeReference(NewClassTypeReference("Missing", "Generic", 1), []TypeReference{RefString}),
	}
	for _, ref := range refs {
		t.Run(ref.String(), func(t *testing.T) {
			assert.Same(t, Unknown, ref.Resolve(ctx))
		})
	}
}

func TestUnknownHasNoStructure(t *testing.T) {
	ctx := newCorlib().context()

	for _, typ := range []Type{Unknown, UnboundTypeArgument, Null, Dynamic} {
		t.Run(typ.Kind().String(), func(t *testing.T) {
			assert.Empty(t, Collect(typ.BaseTypes(ctx)))
			assert.Empty(t, Collect(typ.NestedTypes(ctx, nil)))
			assert.Empty(t, Collect(typ.Constructors(ctx, nil)))
			assert.Empty(t, Collect(typ.Methods(ctx, nil)))
			assert.Empty(t, Collect(typ.Properties(ctx, nil)))
			assert.Empty(t, Collect(typ.Fields(ctx, nil)))
			assert.Empty(t, Collect(typ.Events(ctx, nil)))
			assert.Empty(t, Collect(typ.Members(ctx, nil)))
			assert.Nil(t, typ.Definition())
			assert.Nil(t, typ.DeclaringType())
			assert.Zero(t, typ.TypeParameterCount())
			assert.Empty(t, typ.Namespace())
		})
	}

	assert.Equal(t, "?", Unknown.Name())
	assert.Equal(t, "", UnboundTypeArgument.Name())
}

func TestNilContextPanics(t *testing.T) {
	c := newCorlib()
	newContext(c.defs()...)

	types := []Type{
		c.list,
		NewParameterizedType(c.list, []Type{c.str}),
		NewArrayType(c.str, 1),
		NewPointerType(c.int32),
		NewTypeParameter(OwnerType, 0, "T"),
		Unknown,
	}
	for _, typ := range types {
		t.Run(typ.ReflectionName(), func(t *testing.T) {
			assert.PanicsWithValue(t, "typesystem: nil ResolveContext", func() { typ.Methods(nil, nil) })
			assert.PanicsWithValue(t, "typesystem: nil ResolveContext", func() { typ.BaseTypes(nil) })
			assert.PanicsWithValue(t, "typesystem: nil ResolveContext", func() { typ.IsReferenceType(nil) })
		})
	}
	assert.PanicsWithValue(t, "typesystem: nil ResolveContext", func() { RefString.Resolve(nil) })
	assert.PanicsWithValue(t, "typesystem: nil TypeVisitor", func() { c.str.AcceptVisitor(nil) })
}

func TestSequencesAreReenumerable(t *testing.T) {
	c := newCorlib()
	ctx := c.context()
	seq := NewParameterizedType(c.list, []Type{c.str}).Methods(ctx, nil)

	first := Collect(seq)
	second := Collect(seq)
	require.Len(t, first, 4)
	assert.Equal(t, reflectionNames(first), reflectionNames(second))

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestKindParse(t *testing.T) {
	for k := KindOther; k <= KindByReference; k++ {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("record")
	assert.Error(t, err)
}

func TestTristate(t *testing.T) {
	assert.Equal(t, TriTrue, TristateOf(true))
	assert.Equal(t, TriFalse, TristateOf(false))
	assert.True(t, TriFalse.Known())
	assert.False(t, TriUnknown.Known())
}
