package typesystem

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode identifies a reflection-name syntax error.
type ErrorCode string

const (
	// ErrUnexpectedEnd indicates the input ended in the middle of a name.
	ErrUnexpectedEnd ErrorCode = "RN100"
	// ErrUnexpectedChar indicates a character that is not valid at its position.
	ErrUnexpectedChar ErrorCode = "RN101"
	// ErrInvalidArity indicates a malformed `N arity or type parameter index.
	ErrInvalidArity ErrorCode = "RN102"
	// ErrTypeParameterRange indicates a type parameter index outside the scope.
	ErrTypeParameterRange ErrorCode = "RN103"
	// ErrEmptyName indicates a missing identifier.
	ErrEmptyName ErrorCode = "RN104"
)

// ReflectionNameError describes why a reflection name could not be parsed.
type ReflectionNameError struct {
	Code     ErrorCode `json:"code"`
	Input    string    `json:"input"`
	Position int       `json:"position"`
	Message  string    `json:"message"`
}

func (e *ReflectionNameError) Error() string {
	return fmt.Sprintf("invalid reflection name %q at position %d: %s [%s]", e.Input, e.Position, e.Message, e.Code)
}

// ToJSON returns the error as indented JSON.
func (e *ReflectionNameError) ToJSON() (string, error) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseScope supplies the type parameters that `N and ``N refer to.
type ParseScope struct {
	TypeParameters       []*TypeParameter
	MethodTypeParameters []*TypeParameter
}

// ParseReflectionName parses a reflection name such as
// "System.Collections.Generic.Dictionary`2[[System.String],[`0]]" into a
// reference. Nested types use '+', arrays "[]" or "[,]", pointers '*' and
// by-reference types '&'. An empty type argument slot ("[]" inside the
// argument list) denotes UnboundTypeArgument. Assembly qualifiers inside type
// arguments are accepted and ignored. scope may be nil when the name contains
// no type parameters.
func ParseReflectionName(name string, scope *ParseScope) (TypeReference, error) {
	p := &reflectionParser{input: name, scope: scope}
	ref, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.fail(ErrUnexpectedChar, "unexpected %q", p.peek())
	}
	return ref, nil
}

// MustParseReflectionName is like ParseReflectionName but panics on error.
func MustParseReflectionName(name string, scope *ParseScope) TypeReference {
	ref, err := ParseReflectionName(name, scope)
	if err != nil {
		panic(err)
	}
	return ref
}

type reflectionParser struct {
	input string
	pos   int
	scope *ParseScope
}

func (p *reflectionParser) eof() bool { return p.pos >= len(p.input) }

func (p *reflectionParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *reflectionParser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.input) {
		return 0
	}
	return p.input[p.pos+offset]
}

func (p *reflectionParser) skipSpace() {
	for !p.eof() && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *reflectionParser) fail(code ErrorCode, format string, args ...any) *ReflectionNameError {
	return &ReflectionNameError{Code: code, Input: p.input, Position: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *reflectionParser) expect(c byte) error {
	if p.eof() {
		return p.fail(ErrUnexpectedEnd, "expected %q", c)
	}
	if p.peek() != c {
		return p.fail(ErrUnexpectedChar, "expected %q, found %q", c, p.peek())
	}
	p.pos++
	return nil
}

func isNameTerminator(c byte) bool {
	switch c {
	case '[', ']', ',', '+', '*', '&', '`', ' ':
		return true
	}
	return false
}

func (p *reflectionParser) identifier() (string, error) {
	start := p.pos
	for !p.eof() && !isNameTerminator(p.peek()) {
		p.pos++
	}
	if start == p.pos {
		if p.eof() {
			return "", p.fail(ErrUnexpectedEnd, "expected a type name")
		}
		return "", p.fail(ErrEmptyName, "expected a type name, found %q", p.peek())
	}
	return p.input[start:p.pos], nil
}

func (p *reflectionParser) number() (int, error) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.fail(ErrInvalidArity, "expected a number")
	}
	n, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return 0, p.fail(ErrInvalidArity, "invalid number %q", p.input[start:p.pos])
	}
	return n, nil
}

// arity parses an optional `N suffix.
func (p *reflectionParser) arity() (int, error) {
	if p.peek() != '`' {
		return 0, nil
	}
	p.pos++
	return p.number()
}

func (p *reflectionParser) parseType() (TypeReference, error) {
	p.skipSpace()
	var ref TypeReference
	var err error
	if p.peek() == '`' {
		ref, err = p.typeParameter()
	} else {
		ref, err = p.namedType()
	}
	if err != nil {
		return nil, err
	}
	return p.suffixes(ref)
}

func (p *reflectionParser) typeParameter() (TypeReference, error) {
	p.pos++
	owner := OwnerType
	if p.peek() == '`' {
		p.pos++
		owner = OwnerMethod
	}
	index, err := p.number()
	if err != nil {
		return nil, err
	}
	var params []*TypeParameter
	if p.scope != nil {
		params = p.scope.TypeParameters
		if owner == OwnerMethod {
			params = p.scope.MethodTypeParameters
		}
	}
	if index >= len(params) {
		return nil, p.fail(ErrTypeParameterRange, "%s type parameter %d is not in scope", owner, index)
	}
	return params[index], nil
}

func (p *reflectionParser) namedType() (TypeReference, error) {
	full, err := p.identifier()
	if err != nil {
		return nil, err
	}
	n, err := p.arity()
	if err != nil {
		return nil, err
	}
	namespace, name := "", full
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		namespace, name = full[:i], full[i+1:]
	}
	if name == "" {
		return nil, p.fail(ErrEmptyName, "type name %q ends with '.'", full)
	}
	var ref TypeReference = NewClassTypeReference(namespace, name, n)
	for p.peek() == '+' {
		p.pos++
		nestedName, err := p.identifier()
		if err != nil {
			return nil, err
		}
		extra, err := p.arity()
		if err != nil {
			return nil, err
		}
		ref = NewNestedTypeReference(ref, nestedName, extra)
	}
	if p.peek() == '[' && p.peekAt(1) == '[' {
		return p.typeArguments(ref)
	}
	return ref, nil
}

func (p *reflectionParser) typeArguments(generic TypeReference) (TypeReference, error) {
	p.pos++ // outer '['
	var args []TypeReference
	for {
		p.skipSpace()
		if err := p.expect('['); err != nil {
			return nil, err
		}
		if p.peek() == ']' {
			args = append(args, UnboundTypeArgument)
		} else {
			arg, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipAssemblyQualifier()
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return NewParameterizedTypeReference(generic, args), nil
		case 0:
			return nil, p.fail(ErrUnexpectedEnd, "unterminated type argument list")
		default:
			return nil, p.fail(ErrUnexpectedChar, "expected ',' or ']', found %q", p.peek())
		}
	}
}

func (p *reflectionParser) skipAssemblyQualifier() {
	if p.peek() != ',' {
		return
	}
	for !p.eof() && p.peek() != ']' {
		p.pos++
	}
}

func (p *reflectionParser) suffixes(ref TypeReference) (TypeReference, error) {
	for {
		switch p.peek() {
		case '*':
			p.pos++
			ref = NewPointerTypeReference(ref)
		case '&':
			p.pos++
			ref = NewByReferenceTypeReference(ref)
		case '[':
			next := p.peekAt(1)
			if next != ']' && next != ',' {
				return ref, nil
			}
			p.pos++
			dimensions := 1
			for p.peek() == ',' {
				dimensions++
				p.pos++
			}
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			ref = NewArrayTypeReference(ref, dimensions)
		default:
			return ref, nil
		}
	}
}
