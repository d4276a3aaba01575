// Package bridge generates the Rust side of the binding: one shadow struct
// per class plus one exported JNI entry point per accessor, method and
// destructor.
package bridge

import (
	"fmt"
	"strings"

	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/naming"
	"github.com/chazu/jbridge/ownership"
	"github.com/chazu/jbridge/typeres"
)

// Options configures generation.
type Options struct {
	Plan ownership.Plan
}

// Fragment is the generated code for one class.
type Fragment struct {
	Class   string
	Code    string
	Symbols []string
}

const allowAttr = "#[allow(unused_mut, unused_variables, unused_unsafe, non_snake_case, improper_ctypes_definitions, no_mangle_generic_items, deprecated, missing_docs, unsafe_op_in_unsafe_fn)]"

// Prelude is emitted once at the top of the bridge file.
const Prelude = `use jni::JNIEnv;
use jni::objects::{JClass, JString};
use jni::sys::{jboolean, jbyte, jchar, jdouble, jfloat, jint, jlong, jshort, jstring};
`

// GenerateFile produces the complete bridge file for u: header, prelude and
// every class fragment in declaration order.
func GenerateFile(u *model.Unit, opts Options, header string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(Prelude)
	for _, c := range u.Classes {
		sb.WriteString("\n")
		sb.WriteString(Generate(u, c, opts).Code)
	}
	return sb.String()
}

// Generate produces the shadow struct and entry points of c.
func Generate(u *model.Unit, c *model.Class, opts Options) Fragment {
	g := &generator{unit: u, class: c, plan: opts.Plan, self: c.SelfType()}
	g.generateStruct()
	g.emitLine("")
	g.generateImpl()
	for _, f := range c.HostFields() {
		g.emitLine("")
		g.generateGetter(f)
		g.emitLine("")
		g.generateSetter(f)
	}
	for i := range c.Methods {
		g.emitLine("")
		g.generateMethod(&c.Methods[i])
	}
	g.emitLine("")
	g.generateFree()
	return Fragment{Class: c.Name, Code: g.sb.String(), Symbols: g.symbols}
}

// Symbols returns the exported symbols Generate emits for c, in order.
func Symbols(u *model.Unit, c *model.Class) []string {
	return Generate(u, c, Options{}).Symbols
}

type generator struct {
	sb      strings.Builder
	indent  int
	unit    *model.Unit
	class   *model.Class
	plan    ownership.Plan
	self    typeres.Type
	symbols []string
}

func (g *generator) emitLinef(format string, args ...any) {
	g.emitLine(fmt.Sprintf(format, args...))
}

func (g *generator) emitLine(s string) {
	if s == "" {
		g.sb.WriteString("\n")
		return
	}
	g.sb.WriteString(strings.Repeat("    ", g.indent))
	g.sb.WriteString(s)
	g.sb.WriteString("\n")
}

func (g *generator) incIndent() { g.indent++ }
func (g *generator) decIndent() { g.indent-- }

// --- Generics ---

// genericsDecl renders the generic parameter list with bounds. Every
// parameter is Clone: handles are read by cloning the pointee.
func (g *generator) genericsDecl(lifetime bool) string {
	var parts []string
	if lifetime {
		parts = append(parts, "'local")
	}
	for _, tg := range g.class.Generics {
		bounds := []string{"Clone"}
		for _, b := range tg.Bounds {
			if b.Ref == typeres.RefClass || b.Name == "Clone" {
				continue
			}
			bounds = append(bounds, b.Native())
		}
		parts = append(parts, tg.Name+": "+strings.Join(bounds, " + "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (g *generator) shadowType() string { return g.self.ShadowType() }

// --- Shadow struct ---

func (g *generator) generateStruct() {
	g.emitLine("#[allow(non_camel_case_types)]")
	g.emitLinef("pub struct %s%s {", typeres.Shadow(g.class.Name), g.genericsDecl(false))
	g.incIndent()
	if g.class.Wrapped {
		g.emitLinef("pub __inner: %s,", g.class.Real.Native())
	} else {
		for _, f := range g.class.Fields {
			g.emitLinef("pub %s: %s,", f.Name, f.Type.FieldNative())
		}
	}
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateImpl() {
	g.emitLinef("impl%s %s {", g.genericsDecl(false), g.shadowType())
	g.incIndent()
	g.generateOf()
	g.emitLine("")
	g.generateToRust()
	if g.plan.Mutation == ownership.WriteBack {
		g.emitLine("")
		g.generateStore()
	}
	g.emitLine("")
	g.generateRelease()
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateOf() {
	g.emitLine(allowAttr)
	g.emitLinef("pub unsafe fn of(base: %s) -> Self {", g.class.Real.Native())
	g.incIndent()
	if g.class.Wrapped {
		g.emitLine("Self { __inner: base }")
	} else {
		g.emitLine("Self {")
		g.incIndent()
		for _, f := range g.class.Fields {
			v := "base." + f.Name
			switch {
			case f.IsPrimitive():
				g.emitLinef("%s: %s,", f.Name, v)
			case f.Type.IsGeneric():
				g.emitLinef("%s: Box::into_raw(Box::new(%s)),", f.Name, v)
			default:
				g.emitLinef("%s: Box::into_raw(Box::new(%s::of(%s))),", f.Name, f.Type.ShadowPath(), v)
			}
		}
		g.decIndent()
		g.emitLine("}")
	}
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateToRust() {
	g.emitLine(allowAttr)
	g.emitLinef("pub unsafe fn to_rust(&self) -> %s {", g.class.Real.Native())
	g.incIndent()
	if g.class.Wrapped {
		g.emitLine("self.__inner.clone()")
	} else {
		g.emitLinef("%s {", g.class.Real.Name)
		g.incIndent()
		for _, f := range g.class.Fields {
			switch {
			case f.IsPrimitive():
				g.emitLinef("%s: self.%s.clone(),", f.Name, f.Name)
			case f.Type.IsGeneric():
				g.emitLinef("%s: (&*self.%s).clone(),", f.Name, f.Name)
			default:
				g.emitLinef("%s: (&*self.%s).to_rust(),", f.Name, f.Name)
			}
		}
		g.decIndent()
		g.emitLine("}")
	}
	g.decIndent()
	g.emitLine("}")
}

// generateStore writes a mutated value back into the existing shadow tree
// without reallocating any handle field.
func (g *generator) generateStore() {
	g.emitLine(allowAttr)
	g.emitLinef("pub unsafe fn __store(&mut self, base: %s) {", g.class.Real.Native())
	g.incIndent()
	if g.class.Wrapped {
		g.emitLine("self.__inner = base;")
	} else {
		for _, f := range g.class.Fields {
			switch {
			case f.IsPrimitive():
				g.emitLinef("self.%s = base.%s;", f.Name, f.Name)
			case f.Type.IsGeneric():
				g.emitLinef("*self.%s = base.%s;", f.Name, f.Name)
			default:
				g.emitLinef("(&mut *self.%s).__store(base.%s);", f.Name, f.Name)
			}
		}
	}
	g.decIndent()
	g.emitLine("}")
}

// generateRelease frees a shadow and the handle fields named by its free plan.
func (g *generator) generateRelease() {
	g.emitLine(allowAttr)
	g.emitLine("pub unsafe fn __release(ptr: *mut Self) {")
	g.incIndent()
	plan := ownership.FreePlan(g.class, g.plan.Free)
	if len(plan) == 0 {
		g.emitLine("drop(Box::from_raw(ptr));")
	} else {
		g.emitLine("let it = Box::from_raw(ptr);")
		for _, r := range plan {
			if r.Recurse {
				g.emitLinef("%s::__release(it.%s);", r.Field.Type.ShadowPath(), r.Field.Name)
			} else {
				g.emitLinef("drop(Box::from_raw(it.%s));", r.Field.Name)
			}
		}
	}
	g.decIndent()
	g.emitLine("}")
}

// --- Entry points ---

type param struct {
	name string
	ty   string
}

func (g *generator) entryPoint(m naming.Member, params []param, ret string, body func()) {
	sym := naming.Symbol(g.unit.Package, g.class.Name, m)
	g.symbols = append(g.symbols, sym)

	parts := []string{"mut env: JNIEnv<'local>", "class: JClass<'local>"}
	for _, p := range params {
		parts = append(parts, p.name+": "+p.ty)
	}
	retStr := ""
	if ret != "" {
		retStr = " -> " + ret
	}
	g.emitLine("#[unsafe(no_mangle)]")
	g.emitLine(allowAttr)
	g.emitLinef("pub unsafe extern \"system\" fn %s%s(%s)%s {", sym, g.genericsDecl(true), strings.Join(parts, ", "), retStr)
	g.incIndent()
	body()
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) receiver(mutable bool) {
	if mutable {
		g.emitLinef("let it = &mut *(ptr as *mut %s);", g.shadowType())
	} else {
		g.emitLinef("let it = &*(ptr as *mut %s);", g.shadowType())
	}
}

func (g *generator) fieldPath(f model.Field) string {
	if g.class.Wrapped {
		return "it.__inner." + f.Name
	}
	return "it." + f.Name
}

func (g *generator) generateGetter(f model.Field) {
	ret := f.Type.Wire()
	g.entryPoint(naming.Member{Kind: naming.Getter, Name: f.Name}, []param{{"ptr", "jlong"}}, ret, func() {
		g.receiver(false)
		if ownership.FieldAccess(f) == ownership.Handle {
			g.emitLinef("%s as jlong", g.fieldPath(f))
			return
		}
		g.emitLine(f.Type.NativeToWire(g.fieldPath(f) + ".clone()"))
	})
}

func (g *generator) generateSetter(f model.Field) {
	params := []param{{"ptr", "jlong"}, {"val", f.Type.WireArg()}}
	g.entryPoint(naming.Member{Kind: naming.Setter, Name: f.Name}, params, "", func() {
		g.receiver(true)
		if ownership.FieldAccess(f) == ownership.Handle {
			g.emitLinef("%s = val as %s;", g.fieldPath(f), f.Type.FieldNative())
			return
		}
		g.emitLinef("%s = %s;", g.fieldPath(f), f.Type.WireToNative("val"))
	})
}

func (g *generator) generateMethod(m *model.Method) {
	member := naming.Member{Kind: naming.Method, Name: m.Name}
	if m.Init {
		member.Kind = naming.Init
	}
	recv := ownership.ReceiverOf(m)
	ret := ownership.ReturnOf(m)

	var params []param
	if recv != ownership.NoReceiver {
		params = append(params, param{"ptr", "jlong"})
	}
	for _, a := range m.Args {
		params = append(params, param{a.Name, a.Type.WireArg()})
	}

	retType := ""
	switch ret {
	case ownership.ReturnVoid:
	case ownership.ReturnDirect:
		retType = m.Returns.Wire()
	default:
		retType = "jlong"
	}

	g.entryPoint(member, params, retType, func() {
		if recv != ownership.NoReceiver {
			g.receiver(recv == ownership.OwnedCopy)
		}
		for _, a := range m.Args {
			mut := ""
			if a.Mut {
				mut = "mut "
			}
			g.emitLinef("let %s%s = %s;", mut, a.Name, a.Type.WireToNative(a.Name))
		}

		var callArgs []string
		switch recv {
		case ownership.Borrowed:
			g.emitLine("let base = it.to_rust();")
			callArgs = append(callArgs, "&base")
		case ownership.OwnedCopy:
			g.emitLine("let mut base = it.to_rust();")
			callArgs = append(callArgs, "&mut base")
		case ownership.Consumed:
			g.emitLine("let base = it.to_rust();")
			callArgs = append(callArgs, "base")
		}
		for _, a := range m.Args {
			callArgs = append(callArgs, argExpr(a))
		}
		call := fmt.Sprintf("%s(%s)", m.Callee(g.class), strings.Join(callArgs, ", "))

		if ret == ownership.ReturnVoid {
			g.emitLine(call + ";")
		} else {
			g.emitLinef("let result = %s;", call)
		}
		switch {
		case recv == ownership.Consumed:
			g.emitLinef("%s::__release(ptr as *mut %s);", g.self.ShadowPath(), g.shadowType())
		case g.plan.WritesBack(m):
			g.emitLine("it.__store(base);")
		}

		switch ret {
		case ownership.ReturnDirect, ownership.ReturnHandle:
			g.emitLine(m.Returns.NativeToWire("result"))
		case ownership.ReturnOptional:
			g.emitLine("match result {")
			g.incIndent()
			g.emitLinef("Some(v) => %s,", m.Returns.NativeToBox("v"))
			g.emitLine("None => 0,")
			g.decIndent()
			g.emitLine("}")
		case ownership.ReturnBoxed:
			g.emitLine(m.Returns.NativeToBox("result"))
		}
	})
}

func argExpr(a model.FunctionArg) string {
	v := a.Name
	if a.Into {
		v += ".into()"
	}
	switch {
	case a.Mut:
		return "&mut " + v
	case a.Borrow:
		return "&" + v
	}
	return v
}

func (g *generator) generateFree() {
	g.entryPoint(naming.Member{Kind: naming.Free}, []param{{"ptr", "jlong"}}, "", func() {
		g.emitLinef("%s::__release(ptr as *mut %s);", g.self.ShadowPath(), g.shadowType())
	})
}
