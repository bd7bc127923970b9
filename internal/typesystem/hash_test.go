package typesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashConsistentWithEquals(t *testing.T) {
	c := newCorlib()

	a := NewParameterizedType(c.list, []Type{NewArrayType(c.str, 1)})
	b := NewParameterizedType(c.list, []Type{NewArrayType(c.str, 1)})
	assert.True(t, a.Equals(b))
	assert.Equal(t, Hash(a), Hash(b))

	assert.NotEqual(t, Hash(c.str), Hash(NewArrayType(c.str, 1)))
	assert.NotEqual(t, Hash(Unknown), Hash(UnboundTypeArgument))
}

func TestTypeSet(t *testing.T) {
	c := newCorlib()

	set := NewTypeSet(c.str, NewParameterizedType(c.list, []Type{c.str}))
	assert.Equal(t, 2, set.Len())

	assert.False(t, set.Add(c.str))
	assert.False(t, set.Add(NewParameterizedType(c.list, []Type{c.str})))
	assert.True(t, set.Add(NewParameterizedType(c.list, []Type{c.int32})))
	assert.True(t, set.Contains(NewParameterizedType(c.list, []Type{c.int32})))
	assert.False(t, set.Contains(c.boolean))

	assert.Equal(t, []string{
		"System.String",
		"System.Collections.Generic.List`1[[System.String]]",
		"System.Collections.Generic.List`1[[System.Int32]]",
	}, reflectionNames(set.Slice()))
	assert.Len(t, Collect(set.All()), 3)
}
