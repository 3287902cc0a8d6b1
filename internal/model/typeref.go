// Package model defines the immutable binding model consumed by the resolver.
package model

import (
	"fmt"
	"strings"
)

// TypeKind represents the shape of a type reference.
type TypeKind int

const (
	KindNamed TypeKind = iota
	KindArray
	KindParam
)

// Well-known generic type names with built-in semantics.
const (
	TypeEnumerable      = "IEnumerable"
	TypeAsyncEnumerable = "IAsyncEnumerable"
	TypeSpan            = "Span"
	TypeReadOnlySpan    = "ReadOnlySpan"
	TypeFunc            = "Func"
	TypeLazy            = "Lazy"
)

// TypeRef identifies a type. Named types may carry type arguments, arrays carry
// their element in Args[0] and params are open type parameters.
type TypeRef struct {
	Kind TypeKind
	Name string
	Args []TypeRef
}

func Named(name string, args ...TypeRef) TypeRef {
	return TypeRef{Kind: KindNamed, Name: name, Args: args}
}

func ArrayOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindArray, Args: []TypeRef{elem}}
}

func Param(name string) TypeRef {
	return TypeRef{Kind: KindParam, Name: name}
}

func (t TypeRef) IsZero() bool {
	return t.Kind == KindNamed && t.Name == "" && len(t.Args) == 0
}

// Elem returns the element type of an array.
func (t TypeRef) Elem() TypeRef {
	if t.Kind != KindArray || len(t.Args) == 0 {
		return TypeRef{}
	}
	return t.Args[0]
}

// IsOpen reports whether the type mentions any unbound type parameter.
func (t TypeRef) IsOpen() bool {
	if t.Kind == KindParam {
		return true
	}
	for _, arg := range t.Args {
		if arg.IsOpen() {
			return true
		}
	}
	return false
}

// Params returns the distinct type parameter names in order of appearance.
func (t TypeRef) Params() []string {
	var names []string
	seen := make(map[string]struct{})
	var walk func(TypeRef)
	walk = func(t TypeRef) {
		if t.Kind == KindParam {
			if _, ok := seen[t.Name]; !ok {
				seen[t.Name] = struct{}{}
				names = append(names, t.Name)
			}
			return
		}
		for _, arg := range t.Args {
			walk(arg)
		}
	}
	walk(t)
	return names
}

// Erase returns the unbound key of a generic type: its name and arity with the
// arguments dropped. Non-generic types erase to themselves.
func (t TypeRef) Erase() string {
	switch t.Kind {
	case KindArray:
		return "[]"
	case KindParam:
		return "?"
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "<" + strings.Repeat(",", len(t.Args)-1) + ">"
}

// IsGeneric reports whether the type has type arguments or is an array.
func (t TypeRef) IsGeneric() bool {
	return len(t.Args) > 0
}

// Substitute replaces type parameters using the given mapping.
func (t TypeRef) Substitute(m map[string]TypeRef) TypeRef {
	if len(m) == 0 {
		return t
	}
	if t.Kind == KindParam {
		if r, ok := m[t.Name]; ok {
			return r
		}
		return t
	}
	if len(t.Args) == 0 {
		return t
	}
	args := make([]TypeRef, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.Substitute(m)
	}
	return TypeRef{Kind: t.Kind, Name: t.Name, Args: args}
}

func (t TypeRef) Equal(o TypeRef) bool {
	if t.Kind != o.Kind || t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Collection returns the element type when t is a collection type that the
// resolver can construct from sibling bindings.
func (t TypeRef) Collection() (TypeRef, bool) {
	if t.Kind == KindArray {
		return t.Elem(), true
	}
	if t.Kind != KindNamed || len(t.Args) != 1 {
		return TypeRef{}, false
	}
	switch t.Name {
	case TypeEnumerable, TypeAsyncEnumerable, TypeSpan, TypeReadOnlySpan:
		return t.Args[0], true
	}
	return TypeRef{}, false
}

// IsSpecial reports whether t has built-in semantics and must never be
// auto-bound.
func (t TypeRef) IsSpecial() bool {
	if _, ok := t.Collection(); ok {
		return true
	}
	if t.Kind == KindParam {
		return true
	}
	switch t.Name {
	case TypeFunc, TypeLazy:
		return true
	}
	return false
}

func (t TypeRef) String() string {
	switch t.Kind {
	case KindArray:
		return t.Elem().String() + "[]"
	case KindParam:
		return t.Name
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(args, ",") + ">"
}

// ParseType parses the canonical text form of a type. Identifiers listed in
// params are read as type parameters.
func ParseType(s string, params ...string) (TypeRef, error) {
	p := &typeParser{src: s, params: params}
	t, err := p.parse()
	if err != nil {
		return TypeRef{}, fmt.Errorf("parse type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("parse type %q: unexpected %q at %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(s string, params ...string) TypeRef {
	t, err := ParseType(s, params...)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src    string
	pos    int
	params []string
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() (TypeRef, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return TypeRef{}, fmt.Errorf("expected identifier at %d", start)
	}
	name := p.src[start:p.pos]

	var t TypeRef
	isParam := false
	for _, param := range p.params {
		if param == name {
			isParam = true
			break
		}
	}
	if isParam {
		t = Param(name)
	} else {
		t = Named(name)
	}

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		if isParam {
			return TypeRef{}, fmt.Errorf("type parameter %s cannot take arguments", name)
		}
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return TypeRef{}, fmt.Errorf("unterminated type argument list")
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return TypeRef{}, fmt.Errorf("unexpected %q at %d", p.src[p.pos], p.pos)
		}
	}

	for {
		p.skipSpace()
		if p.pos+1 < len(p.src) && p.src[p.pos] == '[' && p.src[p.pos+1] == ']' {
			p.pos += 2
			t = ArrayOf(t)
			continue
		}
		break
	}

	return t, nil
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
