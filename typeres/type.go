package typeres

import (
	"fmt"
	"strings"
	"unicode"
)

// Ref classifies what a named type refers to once the model is normalized.
type Ref int

const (
	// RefNone is the state of every type straight out of Resolve.
	RefNone Ref = iota
	// RefClass marks a reference to a declared class.
	RefClass
	// RefGeneric marks a reference to a generic parameter in scope.
	RefGeneric
)

// Type is a declared type: a kind, a name for named kinds and generic arguments.
type Type struct {
	Kind Kind
	Name string
	Args []Type
	Ref  Ref
}

// Void is the return type of methods that return nothing.
var Void = Type{Kind: KindVoid}

// Resolve classifies name and attaches args. Unknown identifiers become
// named references; whether they exist is checked during model normalization.
func Resolve(name string, args []Type) Type {
	k := KindOf(name)
	t := Type{Kind: k, Args: args}
	if k == KindNamed {
		t.Name = name
	}
	return t
}

// IsVoid reports whether t is the unit type.
func (t Type) IsVoid() bool { return t.Kind == KindVoid }

// IsPrimitive reports whether t is stored inline.
func (t Type) IsPrimitive() bool { return t.Kind.IsPrimitive() }

// IsGeneric reports whether t names a generic parameter.
func (t Type) IsGeneric() bool { return t.Kind == KindNamed && t.Ref == RefGeneric }

// IsClass reports whether t names a declared class.
func (t Type) IsClass() bool { return t.Kind == KindNamed && t.Ref != RefGeneric }

func (t Type) String() string { return t.Native() }

// Parse reads a type expression such as "u32", "String" or "Pair<T, Point<i32>>".
func Parse(expr string) (Type, error) {
	p := &typeParser{src: expr}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, fmt.Errorf("type %q: unexpected %q at offset %d", expr, p.src[p.pos:], p.pos)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parseType() (Type, error) {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "()") {
		p.pos += 2
		return Void, nil
	}
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':') {
			break
		}
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return Type{}, fmt.Errorf("type %q: expected identifier at offset %d", p.src, start)
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '<' {
		return Resolve(name, nil), nil
	}
	p.pos++
	var args []Type
	for {
		arg, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return Type{}, fmt.Errorf("type %q: unterminated generic arguments", p.src)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return Resolve(name, args), nil
		default:
			return Type{}, fmt.Errorf("type %q: unexpected %q at offset %d", p.src, p.src[p.pos], p.pos)
		}
	}
}
