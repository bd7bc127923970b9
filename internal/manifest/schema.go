// Package manifest reads type definitions from YAML manifests.
//
// A manifest describes one assembly:
//
//	assembly: corlib
//	types:
//	  - namespace: System.Collections.Generic
//	    name: List
//	    kind: class
//	    typeParameters: [T]
//	    bases: ["System.Collections.Generic.IList`1[[`0]]"]
//	    constructors:
//	      - parameters: []
//	    methods:
//	      - name: Add
//	        returns: System.Void
//	        parameters:
//	          - {name: item, type: "`0"}
//
// Type references are reflection names. Inside a type, `N refers to the
// type's N-th type parameter (outer type parameters first); inside a
// method, ``N refers to the method's own type parameters.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a decoded manifest
type Document struct {
	Assembly string     `yaml:"assembly"`
	Types    []TypeSpec `yaml:"types"`

	// Source is the file the document was read from.
	Source string `yaml:"-"`
}

// TypeSpec declares a type. Namespace is ignored for nested types.
type TypeSpec struct {
	Namespace      string              `yaml:"namespace,omitempty"`
	Name           string              `yaml:"name"`
	Kind           string              `yaml:"kind,omitempty"`
	TypeParameters []TypeParameterSpec `yaml:"typeParameters,omitempty"`
	Bases          []string            `yaml:"bases,omitempty"`
	Nested         []TypeSpec          `yaml:"nested,omitempty"`
	Constructors   []MethodSpec        `yaml:"constructors,omitempty"`
	Methods        []MethodSpec        `yaml:"methods,omitempty"`
	Properties     []PropertySpec      `yaml:"properties,omitempty"`
	Fields         []FieldSpec         `yaml:"fields,omitempty"`
	Events         []EventSpec         `yaml:"events,omitempty"`
}

// TypeParameterSpec declares a type parameter. A plain string is accepted as
// shorthand for an unconstrained parameter.
type TypeParameterSpec struct {
	Name        string   `yaml:"name"`
	Class       bool     `yaml:"class,omitempty"`
	Struct      bool     `yaml:"struct,omitempty"`
	New         bool     `yaml:"new,omitempty"`
	Constraints []string `yaml:"constraints,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *TypeParameterSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Name = node.Value
		return nil
	}
	type plain TypeParameterSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = TypeParameterSpec(p)
	return nil
}

// ParameterSpec declares a method or indexer parameter
type ParameterSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// MethodSpec declares a method or constructor. Returns defaults to System.Void.
type MethodSpec struct {
	Name           string              `yaml:"name"`
	Returns        string              `yaml:"returns,omitempty"`
	Static         bool                `yaml:"static,omitempty"`
	TypeParameters []TypeParameterSpec `yaml:"typeParameters,omitempty"`
	Parameters     []ParameterSpec     `yaml:"parameters,omitempty"`
}

// PropertySpec declares a property, or an indexer when it has parameters
type PropertySpec struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type,omitempty"`
	Static     bool            `yaml:"static,omitempty"`
	ReadOnly   bool            `yaml:"readOnly,omitempty"`
	WriteOnly  bool            `yaml:"writeOnly,omitempty"`
	Parameters []ParameterSpec `yaml:"parameters,omitempty"`
}

// FieldSpec declares a field or constant
type FieldSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type,omitempty"`
	Static   bool   `yaml:"static,omitempty"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`
	Const    bool   `yaml:"const,omitempty"`
}

// EventSpec declares an event
type EventSpec struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Static bool   `yaml:"static,omitempty"`
}

// Decode parses a manifest document
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ManifestError{
			Code:       ErrInvalidYAML,
			Message:    fmt.Sprintf("invalid manifest: %v", err),
			Suggestion: "check indentation and that lists use '-' entries",
			Cause:      err,
		}
	}
	return &doc, nil
}

// Encode serializes a manifest document
func Encode(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}
