package server

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/typesystem/internal/typesystem"
)

// ErrTypeNotFound is wrapped by Resolve when part of a name does not resolve
var ErrTypeNotFound = errors.New("type not found")

// TypeView is the JSON shape of a type
type TypeView struct {
	Name               string   `json:"name"`
	Namespace          string   `json:"namespace,omitempty"`
	FullName           string   `json:"fullName"`
	ReflectionName     string   `json:"reflectionName"`
	Kind               string   `json:"kind"`
	IsReferenceType    string   `json:"isReferenceType"`
	TypeParameterCount int      `json:"typeParameterCount,omitempty"`
	TypeArguments      []string `json:"typeArguments,omitempty"`
	DeclaringType      string   `json:"declaringType,omitempty"`
	Definition         string   `json:"definition,omitempty"`
	Assembly           string   `json:"assembly,omitempty"`
}

// MemberView is the JSON shape of a member
type MemberView struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	ReflectionName string          `json:"reflectionName"`
	DeclaringType  string          `json:"declaringType"`
	ReturnType     string          `json:"returnType"`
	Static         bool            `json:"static,omitempty"`
	Parameters     []ParameterView `json:"parameters,omitempty"`
	TypeParameters []string        `json:"typeParameters,omitempty"`
	Signature      string          `json:"signature"`
}

// ParameterView is the JSON shape of a parameter
type ParameterView struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DescribeType builds the view of t
func DescribeType(ctx typesystem.ResolveContext, t typesystem.Type) TypeView {
	v := TypeView{
		Name:               t.Name(),
		Namespace:          t.Namespace(),
		FullName:           t.FullName(),
		ReflectionName:     t.ReflectionName(),
		Kind:               t.Kind().String(),
		IsReferenceType:    t.IsReferenceType(ctx).String(),
		TypeParameterCount: t.TypeParameterCount(),
	}
	if pt, ok := t.(*typesystem.ParameterizedType); ok {
		for _, a := range pt.TypeArguments() {
			v.TypeArguments = append(v.TypeArguments, a.ReflectionName())
		}
	}
	if d := t.DeclaringType(); d != nil {
		v.DeclaringType = d.ReflectionName()
	}
	if def := t.Definition(); def != nil {
		v.Definition = def.ReflectionName()
		v.Assembly = def.Assembly()
	}
	return v
}

// DescribeTypes builds views for a list of types
func DescribeTypes(ctx typesystem.ResolveContext, types []typesystem.Type) []TypeView {
	out := make([]TypeView, len(types))
	for i, t := range types {
		out[i] = DescribeType(ctx, t)
	}
	return out
}

// DescribeMember builds the view of m. Types are resolved in ctx.
func DescribeMember(ctx typesystem.ResolveContext, m typesystem.Member) MemberView {
	v := MemberView{
		Name:           m.Name(),
		Kind:           m.EntityKind().String(),
		ReflectionName: m.ReflectionName(),
		DeclaringType:  m.DeclaringType().ReflectionName(),
		ReturnType:     m.ReturnType().Resolve(ctx).ReflectionName(),
		Static:         m.IsStatic(),
		Signature:      m.String(),
	}

	var params []*typesystem.Parameter
	switch m := m.(type) {
	case *typesystem.Method:
		params = m.Parameters()
		for _, tp := range m.TypeParameters() {
			v.TypeParameters = append(v.TypeParameters, tp.Name())
		}
	case *typesystem.Property:
		params = m.Parameters()
	}
	for _, p := range params {
		v.Parameters = append(v.Parameters, ParameterView{
			Name: p.Name(),
			Type: p.Type().Resolve(ctx).ReflectionName(),
		})
	}
	return v
}

// Resolve parses a reflection name and resolves it in ctx. Malformed names
// fail with a *typesystem.ReflectionNameError.
func Resolve(ctx typesystem.ResolveContext, name string) (typesystem.Type, error) {
	ref, err := typesystem.ParseReflectionName(name, nil)
	if err != nil {
		return nil, err
	}
	t := ref.Resolve(ctx)
	if typesystem.ContainsUnknown(t) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
	}
	return t, nil
}
