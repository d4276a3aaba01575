// Package wrapper generates the Java class that holds a bridge handle.
//
// Each generated class declares the bridge entry points as private static
// natives, keeps the handle in __ptr, and links child wrappers to their
// owner so a write at any depth is pushed back up through updateField.
package wrapper

import (
	"fmt"
	"path"
	"strings"

	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/naming"
	"github.com/chazu/jbridge/ownership"
	"github.com/chazu/jbridge/typeres"
)

// Options configures generation.
type Options struct {
	// Annotations adds JetBrains @Nullable/@NotNull annotations.
	Annotations bool
}

// File is one generated Java source file.
type File struct {
	Class string
	// Path is relative to the Java output root, e.g. "com/example/Line.java".
	Path    string
	Code    string
	Symbols []string
}

// OwnerInterface and MarkerInterface are the support interfaces every
// wrapper implements.
const (
	OwnerInterface  = "HandleOwner"
	MarkerInterface = "NativeClass"
)

// Generate produces the wrapper class for c.
func Generate(u *model.Unit, c *model.Class, opts Options, header string) File {
	g := &generator{unit: u, class: c, opts: opts}
	g.sb.WriteString(header)
	g.generate()
	return File{
		Class:   c.Name,
		Path:    path.Join(naming.PackageDir(u.Package), c.Name+".java"),
		Code:    g.sb.String(),
		Symbols: g.symbols,
	}
}

// Symbols returns the bridge symbols the wrapper for c binds to, in the
// order its natives are declared.
func Symbols(u *model.Unit, c *model.Class) []string {
	return Generate(u, c, Options{}, "").Symbols
}

type generator struct {
	sb      strings.Builder
	indent  int
	unit    *model.Unit
	class   *model.Class
	opts    Options
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

func (g *generator) nullable() string {
	if g.opts.Annotations {
		return "@Nullable "
	}
	return ""
}

func (g *generator) notNull(t typeres.Type) string {
	if g.opts.Annotations && t.IsClass() {
		return "@NotNull "
	}
	return ""
}

// --- Generics ---

func (g *generator) genericsDecl() string {
	var parts []string
	for _, tg := range g.class.HostGenerics() {
		var bounds []string
		for _, b := range tg.Bounds {
			if b.Ref == typeres.RefClass {
				bounds = append(bounds, b.Host())
			}
		}
		switch {
		case len(bounds) > 0:
			parts = append(parts, tg.Name+" extends "+strings.Join(bounds, " & "))
		case tg.Free:
			parts = append(parts, tg.Name)
		default:
			parts = append(parts, tg.Name+" extends "+MarkerInterface)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (g *generator) genericsUse() string {
	var names []string
	for _, tg := range g.class.HostGenerics() {
		names = append(names, tg.Name)
	}
	if len(names) == 0 {
		return ""
	}
	return "<" + strings.Join(names, ", ") + ">"
}

func (g *generator) diamond() string {
	if len(g.class.HostGenerics()) > 0 {
		return "<>"
	}
	return ""
}

func (g *generator) selfType() string { return g.class.Name + g.genericsUse() }

// --- Class ---

func (g *generator) generate() {
	if g.unit.Package != "" {
		g.emitLinef("package %s;", g.unit.Package)
		g.emitLine("")
	}
	if g.opts.Annotations {
		g.emitLine("import org.jetbrains.annotations.NotNull;")
		g.emitLine("import org.jetbrains.annotations.Nullable;")
		g.emitLine("")
	}
	g.emitLinef("public class %s%s implements %s, %s {", g.class.Name, g.genericsDecl(), MarkerInterface, OwnerInterface)
	g.incIndent()

	g.generateNatives()
	g.emitLine("")
	g.emitLine("private long __ptr;")
	g.emitLinef("private %s __parent;", OwnerInterface)
	g.emitLine("private String __parentField;")
	g.emitLine("")
	g.generateConstructors()
	for _, f := range g.class.HostFields() {
		g.emitLine("")
		g.generateGetter(f)
		g.emitLine("")
		g.generateSetter(f)
	}
	for i := range g.class.Methods {
		g.emitLine("")
		g.generateMethod(&g.class.Methods[i])
	}
	g.emitLine("")
	g.generateUpdateField()
	g.emitLine("")
	g.generateTail()

	g.decIndent()
	g.emitLine("}")
}

func (g *generator) native(m naming.Member, ret string, params ...string) {
	g.symbols = append(g.symbols, naming.Symbol(g.unit.Package, g.class.Name, m))
	g.emitLinef("private static native %s %s(%s);", ret, naming.NativeMethod(m), strings.Join(params, ", "))
}

func (g *generator) generateNatives() {
	for _, f := range g.class.HostFields() {
		g.native(naming.Member{Kind: naming.Getter, Name: f.Name}, f.Type.JavaNative(), "long ptr")
		g.native(naming.Member{Kind: naming.Setter, Name: f.Name}, "void", "long ptr", f.Type.JavaNative()+" value")
	}
	for i := range g.class.Methods {
		m := &g.class.Methods[i]
		var params []string
		if m.HasReceiver() {
			params = append(params, "long ptr")
		}
		for _, a := range m.Args {
			params = append(params, a.Type.JavaNative()+" "+a.Name)
		}
		g.native(memberOf(m), nativeReturn(m), params...)
	}
	g.native(naming.Member{Kind: naming.Free}, "void", "long ptr")
}

func memberOf(m *model.Method) naming.Member {
	if m.Init {
		return naming.Member{Kind: naming.Init, Name: m.Name}
	}
	return naming.Member{Kind: naming.Method, Name: m.Name}
}

func nativeReturn(m *model.Method) string {
	switch ownership.ReturnOf(m) {
	case ownership.ReturnVoid:
		return "void"
	case ownership.ReturnDirect:
		return m.Returns.JavaNative()
	}
	return "long"
}

func (g *generator) generateConstructors() {
	g.emitLinef("private %s(long ptr) {", g.class.Name)
	g.incIndent()
	g.emitLine("__ptr = ptr;")
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")
	g.emitLinef("private %s(long ptr, %s parent, String parentField) {", g.class.Name, OwnerInterface)
	g.incIndent()
	g.emitLine("__ptr = ptr;")
	g.emitLine("__parent = parent;")
	g.emitLine("__parentField = parentField;")
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")

	decl := g.genericsDecl()
	if decl != "" {
		decl += " "
	}
	g.emitLinef("public static %s%s from(long ptr) {", decl, g.selfType())
	g.incIndent()
	g.emitLinef("return new %s%s(ptr);", g.class.Name, g.diamond())
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")
	g.emitLinef("public static %s%s from(long ptr, %s parent, String parentField) {", decl, g.selfType(), OwnerInterface)
	g.incIndent()
	g.emitLinef("return new %s%s(ptr, parent, parentField);", g.class.Name, g.diamond())
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateGetter(f model.Field) {
	host := f.Type.Host()
	call := fmt.Sprintf("%s(__ptr)", naming.NativeMethod(naming.Member{Kind: naming.Getter, Name: f.Name}))
	g.emitLinef("public %s%s %s() {", g.notNull(f.Type), host, naming.GetterName(f.Name))
	g.incIndent()
	if f.Type.IsClass() {
		g.emitLinef("return %s.from(%s, this, %q);", f.Type.Name, call, f.Name)
	} else {
		g.emitLinef("return %s;", call)
	}
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateSetter(f model.Field) {
	g.emitLinef("public void %s(%s%s value) {", naming.SetterName(f.Name), g.notNull(f.Type), f.Type.Host())
	g.incIndent()
	g.emitLinef("%s(__ptr, %s);", naming.NativeMethod(naming.Member{Kind: naming.Setter, Name: f.Name}), f.Type.HostToWire("value"))
	g.emitLine("__notifyParent();")
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) params(m *model.Method) string {
	var parts []string
	for _, a := range m.Args {
		parts = append(parts, g.notNull(a.Type)+a.Type.Host()+" "+a.Name)
	}
	return strings.Join(parts, ", ")
}

func (g *generator) nativeCall(m *model.Method) string {
	var args []string
	if m.HasReceiver() {
		args = append(args, "__ptr")
	}
	for _, a := range m.Args {
		args = append(args, a.Type.HostToWire(a.Name))
	}
	return fmt.Sprintf("%s(%s)", naming.NativeMethod(memberOf(m)), strings.Join(args, ", "))
}

func (g *generator) generateMethod(m *model.Method) {
	if m.Init {
		g.generateInit(m)
		return
	}
	ret := ownership.ReturnOf(m)
	static := ""
	if !m.HasReceiver() {
		static = "static "
	}
	retType := "void"
	annot := ""
	switch ret {
	case ownership.ReturnVoid:
	case ownership.ReturnOptional:
		retType = m.Returns.Host()
		if m.Returns.IsGeneric() {
			retType = "Long"
		}
		annot = g.nullable()
	default:
		retType = m.Returns.Host()
		annot = g.notNull(m.Returns)
	}
	if static != "" && len(g.class.HostGenerics()) > 0 {
		static += g.genericsDecl() + " "
	}

	g.emitLinef("public %s%s%s %s(%s) {", annot, static, retType, naming.ToCamel(m.Name), g.params(m))
	g.incIndent()
	call := g.nativeCall(m)
	notify := ownership.Notifies(naming.Method, m)
	switch ret {
	case ownership.ReturnVoid:
		g.emitLine(call + ";")
		if notify {
			g.emitLine("__notifyParent();")
		}
	case ownership.ReturnOptional:
		g.emitLinef("long __h = %s;", call)
		if notify {
			g.emitLine("__notifyParent();")
		}
		g.emitLinef("return __h == 0 ? null : %s;", m.Returns.BoxToHost("__h"))
	default:
		result := m.Returns.WireToHost(call)
		if ret.Indirect() {
			result = m.Returns.BoxToHost(call)
		}
		if notify {
			g.emitLinef("%s __result = %s;", retType, result)
			g.emitLine("__notifyParent();")
			g.emitLine("return __result;")
		} else {
			g.emitLinef("return %s;", result)
		}
	}
	g.decIndent()
	g.emitLine("}")
}

// generateInit emits a constructor as the public Java constructor when it
// is named "new", and as a static factory otherwise.
func (g *generator) generateInit(m *model.Method) {
	call := g.nativeCall(m)
	if m.Name == model.CtorName {
		g.emitLinef("public %s(%s) {", g.class.Name, g.params(m))
		g.incIndent()
		g.emitLinef("__ptr = %s;", call)
	} else {
		decl := g.genericsDecl()
		if decl != "" {
			decl += " "
		}
		g.emitLinef("public static %s%s%s %s(%s) {", g.notNull(m.Returns), decl, g.selfType(), naming.ToCamel(m.Name), g.params(m))
		g.incIndent()
		g.emitLinef("return new %s%s(%s);", g.class.Name, g.diamond(), call)
	}
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateUpdateField() {
	g.emitLine("@Override")
	g.emitLine("public void updateField(String field, long pointer) {")
	g.incIndent()
	var handles []model.Field
	for _, f := range g.class.HostFields() {
		if ownership.FieldAccess(f) == ownership.Handle {
			handles = append(handles, f)
		}
	}
	if len(handles) > 0 {
		g.emitLine("switch (field) {")
		g.incIndent()
		for _, f := range handles {
			g.emitLinef("case %q:", f.Name)
			g.incIndent()
			g.emitLinef("%s(__ptr, pointer);", naming.NativeMethod(naming.Member{Kind: naming.Setter, Name: f.Name}))
			g.emitLine("break;")
			g.decIndent()
		}
		g.emitLine("default:")
		g.incIndent()
		g.emitLine("return;")
		g.decIndent()
		g.decIndent()
		g.emitLine("}")
	}
	g.emitLine("__notifyParent();")
	g.decIndent()
	g.emitLine("}")
}

func (g *generator) generateTail() {
	g.emitLine("private void __notifyParent() {")
	g.incIndent()
	g.emitLine("if (__parent != null) {")
	g.incIndent()
	g.emitLine("__parent.updateField(__parentField, __ptr);")
	g.decIndent()
	g.emitLine("}")
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("@Override")
	g.emitLine("public long getPointer() {")
	g.incIndent()
	g.emitLine("return __ptr;")
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")
	g.emitLine("public void free() {")
	g.incIndent()
	g.emitLinef("%s(__ptr);", naming.NativeMethod(naming.Member{Kind: naming.Free}))
	g.decIndent()
	g.emitLine("}")
}
