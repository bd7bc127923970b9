package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific manifest error code
type ErrorCode string

const (
	// ErrInvalidYAML indicates the document is not valid YAML or does not match the schema.
	ErrInvalidYAML ErrorCode = "MAN100"
	// ErrMissingAssembly indicates the document does not name its assembly.
	ErrMissingAssembly ErrorCode = "MAN101"
	// ErrMissingName indicates a type, member or type parameter without a name.
	ErrMissingName ErrorCode = "MAN102"
	// ErrUnknownKind indicates a type kind that is not recognized.
	ErrUnknownKind ErrorCode = "MAN103"
	// ErrInvalidReference indicates a type reference that is not a valid reflection name.
	ErrInvalidReference ErrorCode = "MAN104"
	// ErrDuplicateType indicates two top-level types with the same name and arity.
	ErrDuplicateType ErrorCode = "MAN105"
	// ErrMissingType indicates a member declared without a type.
	ErrMissingType ErrorCode = "MAN106"
	// ErrReadFailed indicates the manifest file could not be read.
	ErrReadFailed ErrorCode = "MAN107"
	// ErrDuplicateAssembly indicates two manifest files declaring the same assembly.
	ErrDuplicateAssembly ErrorCode = "MAN108"
)

// ManifestError describes a problem in a type manifest with enough context to
// locate it in the source document
type ManifestError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	File       string    `json:"file,omitempty"`
	Type       string    `json:"type,omitempty"`
	Member     string    `json:"member,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *ManifestError) Error() string {
	return e.Format()
}

// Unwrap returns the underlying cause, if any
func (e *ManifestError) Unwrap() error {
	return e.Cause
}

// Format returns a human-readable error message for terminal output
func (e *ManifestError) Format() string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "<manifest>"
	}
	fmt.Fprintf(&b, "%s: %s [%s]", file, e.Message, e.Code)

	if e.Type != "" {
		fmt.Fprintf(&b, "\n  in type %s", e.Type)
		if e.Member != "" {
			fmt.Fprintf(&b, ", member %s", e.Member)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// ToJSON returns the error as a JSON string
func (e *ManifestError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewDuplicateAssemblyError reports file declaring an assembly that the
// manifest other already provides
func NewDuplicateAssemblyError(assembly, file, other string) *ManifestError {
	return &ManifestError{
		Code:       ErrDuplicateAssembly,
		Message:    fmt.Sprintf("assembly %q is already declared by %s", assembly, other),
		File:       file,
		Suggestion: "Give each manifest file its own assembly name",
	}
}

// ErrorList is a collection of manifest errors
type ErrorList []*ManifestError

// Error implements the error interface
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	var b strings.Builder
	for i, err := range el {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Format())
	}
	return b.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As
func (el ErrorList) Unwrap() []error {
	out := make([]error, len(el))
	for i, err := range el {
		out[i] = err
	}
	return out
}
