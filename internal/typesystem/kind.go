package typesystem

import (
	"fmt"
	"strings"
)

// Kind classifies a Type. Every type carries exactly one kind.
type Kind uint8

const (
	// KindOther is used for types that do not fit any other category.
	KindOther Kind = iota
	// KindClass is a class declaration.
	KindClass
	// KindInterface is an interface declaration.
	KindInterface
	// KindStruct is a value-type declaration.
	KindStruct
	// KindDelegate is a delegate declaration.
	KindDelegate
	// KindEnum is an enumeration declaration.
	KindEnum
	// KindModule is a module (static class) declaration.
	KindModule
	// KindVoid is the void type.
	KindVoid
	// KindUnknown is a type that failed to resolve.
	KindUnknown
	// KindNull is the type of the null literal.
	KindNull
	// KindDynamic is the dynamically-typed type.
	KindDynamic
	// KindUnboundTypeArgument marks a type argument slot that is left open.
	KindUnboundTypeArgument
	// KindTypeParameter is a generic type parameter.
	KindTypeParameter
	// KindArray is an array type.
	KindArray
	// KindPointer is an unmanaged pointer type.
	KindPointer
	// KindByReference is a managed reference (ref/out) type.
	KindByReference
)

var kindNames = [...]string{
	KindOther:               "other",
	KindClass:               "class",
	KindInterface:           "interface",
	KindStruct:              "struct",
	KindDelegate:            "delegate",
	KindEnum:                "enum",
	KindModule:              "module",
	KindVoid:                "void",
	KindUnknown:             "unknown",
	KindNull:                "null",
	KindDynamic:             "dynamic",
	KindUnboundTypeArgument: "unbound",
	KindTypeParameter:       "type-parameter",
	KindArray:               "array",
	KindPointer:             "pointer",
	KindByReference:         "by-reference",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsDeclaration reports whether the kind can back a TypeDefinition.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindClass, KindInterface, KindStruct, KindDelegate, KindEnum, KindModule, KindVoid, KindOther:
		return true
	}
	return false
}

// ParseKind converts a kind name (as produced by Kind.String) back to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindOther, fmt.Errorf("unknown type kind %q", s)
}

// Tristate is a boolean that may also be unknown.
type Tristate int8

const (
	// TriUnknown means the answer cannot be determined.
	TriUnknown Tristate = iota
	// TriFalse is a definite false.
	TriFalse
	// TriTrue is a definite true.
	TriTrue
)

// TristateOf converts a bool to a definite Tristate.
func TristateOf(b bool) Tristate {
	if b {
		return TriTrue
	}
	return TriFalse
}

// Known reports whether the value is definite.
func (t Tristate) Known() bool {
	return t != TriUnknown
}

func (t Tristate) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}
