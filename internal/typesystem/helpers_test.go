package typesystem

import (
	"iter"
	"slices"
	"sort"
)

type mapContext struct {
	defs []*TypeDefinition
}

func newContext(defs ...*TypeDefinition) *mapContext {
	for _, d := range defs {
		d.Freeze()
	}
	return &mapContext{defs: defs}
}

func (c *mapContext) GetTypeDefinition(namespace, name string, n int) *TypeDefinition {
	for _, d := range c.defs {
		if d.namespace == namespace && d.name == name && d.TypeParameterCount() == n {
			return d
		}
	}
	return nil
}

func (c *mapContext) TypeDefinitions() iter.Seq[*TypeDefinition] { return slices.Values(c.defs) }

func (c *mapContext) Namespaces() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range c.defs {
		if !seen[d.namespace] {
			seen[d.namespace] = true
			out = append(out, d.namespace)
		}
	}
	sort.Strings(out)
	return out
}

// corlib is a small base class library shared by the tests.
type corlib struct {
	object, valueType, enum, delegate, array *TypeDefinition
	void, str, int32, boolean                *TypeDefinition
	ilist, list, dictionary                  *TypeDefinition
}

func newCorlib() *corlib {
	c := &corlib{}
	c.object = NewTypeDefinition("corlib", "System", "Object", KindClass)
	c.object.NewConstructor()
	c.object.NewMethod("ToString", RefString)
	c.object.NewMethod("GetHashCode", RefInt32)
	c.object.NewMethod("Equals", RefBoolean).AddParameter("obj", RefObject)

	c.valueType = NewTypeDefinition("corlib", "System", "ValueType", KindClass)
	c.enum = NewTypeDefinition("corlib", "System", "Enum", KindClass)
	c.enum.AddBaseType(RefValueType)
	c.delegate = NewTypeDefinition("corlib", "System", "Delegate", KindClass)
	c.array = NewTypeDefinition("corlib", "System", "Array", KindClass)
	c.array.NewProperty("Length", RefInt32).SetAccessors(true, false)

	c.void = NewTypeDefinition("corlib", "System", "Void", KindVoid)
	c.str = NewTypeDefinition("corlib", "System", "String", KindClass)
	c.str.NewProperty("Length", RefInt32).SetAccessors(true, false)
	c.int32 = NewTypeDefinition("corlib", "System", "Int32", KindStruct)
	c.boolean = NewTypeDefinition("corlib", "System", "Boolean", KindStruct)

	c.ilist = NewTypeDefinition("corlib", "System.Collections.Generic", "IList", KindInterface, "T")
	c.ilist.NewMethod("Add", RefVoid).AddParameter("item", c.ilist.TypeParameters()[0])

	c.list = NewTypeDefinition("corlib", "System.Collections.Generic", "List", KindClass, "T")
	t := c.list.TypeParameters()[0]
	c.list.AddBaseType(NewParameterizedTypeReference(RefIListOfT, []TypeReference{t}))
	c.list.NewConstructor()
	c.list.NewMethod("Add", RefVoid).AddParameter("item", t)
	c.list.NewProperty("Count", RefInt32).SetAccessors(true, false)
	c.list.NewField("items", NewArrayTypeReference(t, 1))
	c.list.NewEvent("Changed", RefDelegate)

	c.dictionary = NewTypeDefinition("corlib", "System.Collections.Generic", "Dictionary", KindClass, "TKey", "TValue")
	return c
}

func (c *corlib) defs() []*TypeDefinition {
	return []*TypeDefinition{
		c.object, c.valueType, c.enum, c.delegate, c.array,
		c.void, c.str, c.int32, c.boolean,
		c.ilist, c.list, c.dictionary,
	}
}

func (c *corlib) context(extra ...*TypeDefinition) *mapContext {
	return newContext(append(c.defs(), extra...)...)
}

func names[T NamedElement](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name()
	}
	return out
}

func reflectionNames[T NamedElement](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ReflectionName()
	}
	return out
}
