// Package model holds the normalized class records both generators read.
//
// A Unit is built once from an ir.Unit by Build and is never mutated
// afterward. Every named type in it is resolved: it either refers to a
// declared class or to a generic parameter in scope.
package model

import (
	"github.com/chazu/jbridge/ir"
	"github.com/chazu/jbridge/typeres"
)

// Unit is a normalized compilation unit.
type Unit struct {
	Package string
	Classes []*Class

	byName map[string]*Class
}

// Class returns the class declared under name, or nil.
func (u *Unit) Class(name string) *Class {
	return u.byName[name]
}

// Fingerprint returns a short stable digest of the normalized unit.
func (u *Unit) Fingerprint() (string, error) {
	return ir.Fingerprint(u)
}

// Dump encodes the normalized unit as canonical CBOR.
func (u *Unit) Dump() ([]byte, error) {
	return ir.MarshalCBOR(u)
}

// Class is one exposed class.
type Class struct {
	Name     string
	Package  string
	Generics []TypeGeneric
	// Wrapped classes embed the whole underlying value in their shadow.
	Wrapped bool
	// Real is the underlying native type. It defaults to the class name
	// applied to the class generics.
	Real    typeres.Type
	Fields  []Field
	Methods []Method
}

// SelfType is the class applied to all of its own generic parameters.
func (c *Class) SelfType() typeres.Type {
	t := typeres.Type{Kind: typeres.KindNamed, Name: c.Name, Ref: typeres.RefClass}
	for _, g := range c.Generics {
		t.Args = append(t.Args, g.Type())
	}
	return t
}

// HostGenerics returns the generics visible on the host class.
func (c *Class) HostGenerics() []TypeGeneric {
	var out []TypeGeneric
	for _, g := range c.Generics {
		if !g.NativeOnly {
			out = append(out, g)
		}
	}
	return out
}

// HostFields returns the fields that get host accessors.
func (c *Class) HostFields() []Field {
	var out []Field
	for _, f := range c.Fields {
		if !f.NativeOnly {
			out = append(out, f)
		}
	}
	return out
}

// HandleFields returns the fields stored behind their own shadow pointer.
func (c *Class) HandleFields() []Field {
	var out []Field
	for _, f := range c.Fields {
		if f.IsHandle() {
			out = append(out, f)
		}
	}
	return out
}

// Field returns the field named name, or nil.
func (c *Class) Field(name string) *Field {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// Method returns the method named name, or nil.
func (c *Class) Method(name string) *Method {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i]
		}
	}
	return nil
}

// Field is a field of the underlying value.
type Field struct {
	Name string
	Type typeres.Type
	// NativeOnly fields live in the shadow but get no accessors.
	NativeOnly bool
}

// IsPrimitive reports whether the field is stored inline in its shadow.
func (f Field) IsPrimitive() bool { return f.Type.IsPrimitive() }

// IsHandle reports whether the field is stored behind an owned pointer.
func (f Field) IsHandle() bool { return !f.Type.IsPrimitive() }

// Method is a bound method, constructor or free function.
type Method struct {
	Name    string
	Args    []FunctionArg
	Returns typeres.Type

	Static   bool
	Mut      bool
	Init     bool
	Optional bool
	Consumed bool
	Boxed    bool

	// Source is the native type or module the call is made on, when it
	// differs from the class's real type.
	Source string
	// Native is the native function name, when it differs from Name.
	Native string
}

// NativeName returns the name of the native function the bridge calls.
func (m *Method) NativeName() string {
	if m.Native != "" {
		return m.Native
	}
	return m.Name
}

// Callee returns the path the bridge calls for m on class c, e.g. "Line::length".
func (m *Method) Callee(c *Class) string {
	src := m.Source
	if src == "" {
		src = c.Real.Name
		if c.Real.Kind != typeres.KindNamed {
			src = c.Real.Native()
		}
	}
	return src + "::" + m.NativeName()
}

// HasReceiver reports whether the method is called on an existing instance.
func (m *Method) HasReceiver() bool { return !m.Static && !m.Init }

// FunctionArg is a method argument.
type FunctionArg struct {
	Name   string
	Type   typeres.Type
	Borrow bool
	Mut    bool
	// Into asks the bridge to convert the argument with .into().
	Into bool
}

// TypeGeneric is a generic parameter with its bounds.
type TypeGeneric struct {
	Name   string
	Bounds []typeres.Type
	// NativeOnly generics are not declared on the host class.
	NativeOnly bool
	// Free generics carry no bounds on the host side.
	Free bool
}

// Type returns the generic parameter as a resolved type reference.
func (g TypeGeneric) Type() typeres.Type {
	return typeres.Type{Kind: typeres.KindNamed, Name: g.Name, Ref: typeres.RefGeneric}
}
