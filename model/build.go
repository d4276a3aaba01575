package model

import (
	"fmt"

	"github.com/chazu/jbridge/ir"
	"github.com/chazu/jbridge/naming"
	"github.com/chazu/jbridge/typeres"
)

// DefaultTraits are the native traits accepted as generic bounds without a
// matching class declaration.
var DefaultTraits = []string{
	"Clone", "Copy", "Debug", "Default", "PartialEq", "Eq", "Hash",
	"PartialOrd", "Ord", "Send", "Sync", "Sized", "ToString", "Display",
}

// Options controls normalization.
type Options struct {
	// Traits extends DefaultTraits.
	Traits []string
}

// Host member names every generated wrapper defines itself.
var reservedHostNames = map[string]bool{
	"free":        true,
	"from":        true,
	"getPointer":  true,
	"updateField": true,
}

// Methods every Java class inherits from java.lang.Object.
var objectMethods = map[string]bool{
	"clone": true, "equals": true, "finalize": true, "getClass": true, "hashCode": true,
	"notify": true, "notifyAll": true, "toString": true, "wait": true,
}

// Bridge function parameters and locals that arguments may not shadow.
var reservedArgNames = map[string]bool{
	"env":    true,
	"class":  true,
	"obj":    true,
	"ptr":    true,
	"it":     true,
	"base":   true,
	"result": true,
}

var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true,
}

// Strict and reserved Rust keywords, all editions.
var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "gen": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true, "self": true,
	"Self": true, "static": true, "struct": true, "super": true, "trait": true,
	"true": true, "type": true, "unsafe": true, "use": true, "where": true, "while": true,
	"abstract": true, "become": true, "box": true, "do": true, "final": true,
	"macro": true, "override": true, "priv": true, "try": true, "typeof": true,
	"unsized": true, "virtual": true, "yield": true,
}

// CtorName is the constructor that becomes the host class's public constructor.
// Other constructors become static factory methods.
const CtorName = "new"

// Build normalizes decls into a Unit. It fails with an *Error on the first
// invalid declaration.
func Build(decls *ir.Unit, opts Options) (*Unit, error) {
	u := &Unit{Package: decls.Package, byName: make(map[string]*Class)}
	for _, dc := range decls.Classes {
		if _, dup := u.byName[dc.Name]; dup {
			return nil, &Error{Class: dc.Name, Err: ErrDuplicateClass}
		}
		c := &Class{Name: dc.Name, Package: decls.Package, Wrapped: dc.Wrapped}
		u.byName[dc.Name] = c
		u.Classes = append(u.Classes, c)
	}

	b := &builder{unit: u, traits: make(map[string]bool)}
	for _, t := range DefaultTraits {
		b.traits[t] = true
	}
	for _, t := range opts.Traits {
		b.traits[t] = true
	}

	// Generics first: references to other classes check their arity.
	for i := range decls.Classes {
		if err := b.generics(u.Classes[i], &decls.Classes[i]); err != nil {
			return nil, err
		}
	}
	for i := range decls.Classes {
		if err := b.class(u.Classes[i], &decls.Classes[i]); err != nil {
			return nil, err
		}
	}
	return u, nil
}

type builder struct {
	unit   *Unit
	traits map[string]bool
}

// generics merges class-level and inline generics by name. Class-level
// declarations come first, then fields and methods in declaration order;
// the first declaration of a name wins.
func (b *builder) generics(c *Class, d *ir.Class) error {
	seen := make(map[string]bool)
	add := func(member string, gs []ir.Generic) error {
		for _, g := range gs {
			if seen[g.Name] {
				continue
			}
			if b.unit.byName[g.Name] != nil || typeres.KindOf(g.Name) != typeres.KindNamed {
				return &Error{Class: c.Name, Member: member, Err: ErrDuplicateMember,
					Detail: fmt.Sprintf("generic %s shadows a type", g.Name)}
			}
			seen[g.Name] = true
			tg := TypeGeneric{Name: g.Name, NativeOnly: g.NativeOnly, Free: g.Free}
			for _, expr := range g.Bounds {
				bt, err := b.bound(c, member, expr)
				if err != nil {
					return err
				}
				tg.Bounds = append(tg.Bounds, bt)
			}
			c.Generics = append(c.Generics, tg)
		}
		return nil
	}
	if err := add("", d.Generics); err != nil {
		return err
	}
	for _, f := range d.Fields {
		if err := add(f.Name, f.Generics); err != nil {
			return err
		}
	}
	for _, m := range d.Methods {
		if err := add(m.Name, m.Generics); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) bound(c *Class, member, expr string) (typeres.Type, error) {
	t, err := typeres.Parse(expr)
	if err != nil {
		return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnresolvedBound, Detail: err.Error()}
	}
	switch {
	case t.Kind != typeres.KindNamed:
	case b.unit.byName[t.Name] != nil:
		t.Ref = typeres.RefClass
		return t, nil
	case b.traits[t.Name]:
		return t, nil
	}
	return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnresolvedBound, Detail: expr}
}

func (b *builder) class(c *Class, d *ir.Class) error {
	scope := make(map[string]bool, len(c.Generics))
	for _, g := range c.Generics {
		scope[g.Name] = true
	}

	if err := b.real(c, d, scope); err != nil {
		return err
	}

	fieldNames := make(map[string]bool)
	hostNames := make(map[string]string)
	claim := func(member, host string) error {
		if reservedHostNames[host] {
			return &Error{Class: c.Name, Member: member, Err: ErrDuplicateMember,
				Detail: fmt.Sprintf("%s is generated for every class", host)}
		}
		if objectMethods[host] {
			return &Error{Class: c.Name, Member: member, Err: ErrDuplicateMember,
				Detail: fmt.Sprintf("%s is inherited from java.lang.Object", host)}
		}
		if prev, ok := hostNames[host]; ok {
			return &Error{Class: c.Name, Member: member, Err: ErrDuplicateMember,
				Detail: fmt.Sprintf("host name %s already used by %s", host, prev)}
		}
		hostNames[host] = member
		return nil
	}

	for _, df := range d.Fields {
		if fieldNames[df.Name] {
			return &Error{Class: c.Name, Member: df.Name, Err: ErrDuplicateMember}
		}
		fieldNames[df.Name] = true
		if rustKeywords[df.Name] {
			return &Error{Class: c.Name, Member: df.Name, Err: ErrInvalidField,
				Detail: fmt.Sprintf("%s is a native keyword", df.Name)}
		}
		t, err := b.resolve(c, df.Name, df.Type, scope)
		if err != nil {
			return err
		}
		if t.IsVoid() {
			return &Error{Class: c.Name, Member: df.Name, Err: ErrInvalidField, Detail: "field of unit type"}
		}
		f := Field{Name: df.Name, Type: t, NativeOnly: df.NativeOnly}
		if c.Wrapped && f.IsHandle() {
			return &Error{Class: c.Name, Member: df.Name, Err: ErrInvalidField,
				Detail: "wrapped classes expose only primitive fields"}
		}
		if !f.NativeOnly {
			if err := claim(f.Name, naming.GetterName(f.Name)); err != nil {
				return err
			}
			if err := claim(f.Name, naming.SetterName(f.Name)); err != nil {
				return err
			}
		}
		c.Fields = append(c.Fields, f)
	}

	methodNames := make(map[string]bool)
	for i := range d.Methods {
		dm := &d.Methods[i]
		if methodNames[dm.Name] {
			return &Error{Class: c.Name, Member: dm.Name, Err: ErrDuplicateMember}
		}
		methodNames[dm.Name] = true
		if rustKeywords[dm.Name] {
			return &Error{Class: c.Name, Member: dm.Name, Err: ErrInvalidMethod,
				Detail: fmt.Sprintf("%s is a native keyword", dm.Name)}
		}
		m, err := b.method(c, dm, scope)
		if err != nil {
			return err
		}
		if !(m.Init && m.Name == CtorName) {
			host := naming.ToCamel(m.Name)
			if javaKeywords[host] {
				return &Error{Class: c.Name, Member: m.Name, Err: ErrInvalidMethod,
					Detail: fmt.Sprintf("%s is a reserved host word", host)}
			}
			if err := claim(m.Name, host); err != nil {
				return err
			}
		}
		c.Methods = append(c.Methods, m)
	}
	return nil
}

func (b *builder) real(c *Class, d *ir.Class, scope map[string]bool) error {
	if d.Real == nil {
		c.Real = c.SelfType()
		c.Real.Ref = typeres.RefNone
		return nil
	}
	t, err := typeres.Parse(d.Real.Name)
	if err != nil {
		return &Error{Class: c.Name, Err: ErrUnknownType, Detail: err.Error()}
	}
	for _, expr := range d.Real.Generics {
		at, err := typeres.Parse(expr)
		if err != nil {
			return &Error{Class: c.Name, Err: ErrUnknownType, Detail: err.Error()}
		}
		t.Args = append(t.Args, at)
	}
	// The real type is native; only generic parameters in it are resolved.
	c.Real = markGenerics(t, scope)
	return nil
}

func markGenerics(t typeres.Type, scope map[string]bool) typeres.Type {
	if t.Kind == typeres.KindNamed && scope[t.Name] && len(t.Args) == 0 {
		t.Ref = typeres.RefGeneric
		return t
	}
	if len(t.Args) > 0 {
		args := make([]typeres.Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = markGenerics(a, scope)
		}
		t.Args = args
	}
	return t
}

// resolve parses expr and resolves every named reference in it against the
// declared classes and the generic scope of c.
func (b *builder) resolve(c *Class, member, expr string, scope map[string]bool) (typeres.Type, error) {
	if expr == "" {
		return typeres.Void, nil
	}
	t, err := typeres.Parse(expr)
	if err != nil {
		return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnknownType, Detail: err.Error()}
	}
	return b.resolveType(c, member, t, scope)
}

func (b *builder) resolveType(c *Class, member string, t typeres.Type, scope map[string]bool) (typeres.Type, error) {
	if t.Kind != typeres.KindNamed {
		if len(t.Args) > 0 {
			return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnknownType,
				Detail: fmt.Sprintf("%s takes no type arguments", t.Kind)}
		}
		return t, nil
	}
	if t.Name == "Self" && len(t.Args) == 0 {
		return c.SelfType(), nil
	}
	if scope[t.Name] {
		if len(t.Args) > 0 {
			return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnknownType,
				Detail: fmt.Sprintf("generic %s takes no type arguments", t.Name)}
		}
		t.Ref = typeres.RefGeneric
		return t, nil
	}
	target := b.unit.byName[t.Name]
	if target == nil {
		return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnknownType, Detail: t.Name}
	}
	if len(t.Args) != len(target.Generics) {
		return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnknownType,
			Detail: fmt.Sprintf("%s expects %d type arguments, got %d", t.Name, len(target.Generics), len(t.Args))}
	}
	args := make([]typeres.Type, len(t.Args))
	for i, a := range t.Args {
		ra, err := b.resolveType(c, member, a, scope)
		if err != nil {
			return typeres.Type{}, err
		}
		if ra.IsVoid() {
			return typeres.Type{}, &Error{Class: c.Name, Member: member, Err: ErrUnknownType,
				Detail: "unit type as type argument"}
		}
		args[i] = ra
	}
	t.Args = args
	t.Ref = typeres.RefClass
	return t, nil
}

func (b *builder) method(c *Class, d *ir.Method, scope map[string]bool) (Method, error) {
	m := Method{
		Name:     d.Name,
		Static:   d.Static,
		Mut:      d.Mut,
		Init:     d.Init,
		Optional: d.Optional,
		Consumed: d.Consumed,
		Boxed:    d.Boxed,
		Source:   d.Source,
		Native:   d.Native,
	}
	invalid := func(detail string) (Method, error) {
		return Method{}, &Error{Class: c.Name, Member: d.Name, Err: ErrInvalidMethod, Detail: detail}
	}

	argNames := make(map[string]bool)
	for _, da := range d.Args {
		if reservedArgNames[da.Name] {
			return invalid(fmt.Sprintf("argument name %s is reserved", da.Name))
		}
		if javaKeywords[da.Name] || rustKeywords[da.Name] {
			return invalid(fmt.Sprintf("argument name %s is a keyword", da.Name))
		}
		if argNames[da.Name] {
			return invalid(fmt.Sprintf("duplicate argument %s", da.Name))
		}
		argNames[da.Name] = true
		t, err := b.resolve(c, d.Name, da.Type, scope)
		if err != nil {
			return Method{}, err
		}
		if t.IsVoid() {
			return invalid(fmt.Sprintf("argument %s has unit type", da.Name))
		}
		m.Args = append(m.Args, FunctionArg{Name: da.Name, Type: t, Borrow: da.Borrow || da.Mut, Mut: da.Mut, Into: da.Into})
	}

	if m.Init {
		switch {
		case m.Consumed:
			return invalid("a constructor cannot consume its receiver")
		case m.Optional:
			return invalid("a constructor cannot have an optional return")
		case m.Mut:
			return invalid("a constructor has no receiver to mutate")
		case d.Returns != "" && d.Returns != "Self" && d.Returns != c.Name:
			return invalid(fmt.Sprintf("a constructor returns %s, not %s", c.Name, d.Returns))
		}
		if m.Name == CtorName && len(m.Args) == 1 && m.Args[0].Type.IsGeneric() {
			return invalid("constructor signature collides with the handle constructor")
		}
		m.Static = true
		m.Boxed = false
		m.Returns = c.SelfType()
		return m, nil
	}

	ret, err := b.resolve(c, d.Name, d.Returns, scope)
	if err != nil {
		return Method{}, err
	}
	m.Returns = ret

	switch {
	case m.Static && m.Mut:
		return invalid("a static method has no receiver to mutate")
	case m.Static && m.Consumed:
		return invalid("a static method has no receiver to consume")
	case m.Optional && m.Boxed:
		return invalid("optional and boxed returns are exclusive")
	case (m.Optional || m.Boxed) && ret.IsVoid():
		return invalid("optional or boxed return of unit type")
	case m.Boxed && !ret.IsPrimitive():
		return invalid("boxed applies to primitive returns")
	}
	return m, nil
}
