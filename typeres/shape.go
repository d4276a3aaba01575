package typeres

import (
	"fmt"
	"strings"
)

// ShadowPrefix prefixes the Rust shadow struct generated for each class.
const ShadowPrefix = "__JNI_"

// Shadow returns the Rust shadow struct name for a class name.
func Shadow(class string) string { return ShadowPrefix + class }

func joinTypes(ts []Type, f func(Type) string) string {
	if len(ts) == 0 {
		return ""
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = f(t)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// Native returns the Rust type of the underlying value (e.g. "u32", "Point<i32>").
func (t Type) Native() string {
	if t.Kind != KindNamed {
		return kinds[t.Kind].native
	}
	return t.Name + joinTypes(t.Args, Type.Native)
}

// ShadowType returns the Rust type a handle for t points to: the shadow
// struct for classes, the value itself for generic parameters.
func (t Type) ShadowType() string {
	if t.IsGeneric() {
		return t.Name
	}
	return Shadow(t.Name) + joinTypes(t.Args, Type.Native)
}

// ShadowPath is ShadowType written for expression position, e.g.
// "__JNI_Pair::<T, i32>".
func (t Type) ShadowPath() string {
	if t.IsGeneric() || len(t.Args) == 0 {
		return t.ShadowType()
	}
	return Shadow(t.Name) + "::" + joinTypes(t.Args, Type.Native)
}

// FieldNative returns the Rust type of a shadow field holding t.
func (t Type) FieldNative() string {
	if t.IsPrimitive() {
		return t.Native()
	}
	return "*mut " + t.ShadowType()
}

// Wire returns the JNI type used for returns and fields.
func (t Type) Wire() string { return kinds[t.Kind].wire }

// WireArg returns the JNI type used for arguments. Strings arrive as objects.
func (t Type) WireArg() string {
	if t.Kind == KindString {
		return "JString<'local>"
	}
	return t.Wire()
}

// JavaNative returns the Java type used in a native method declaration.
func (t Type) JavaNative() string { return kinds[t.Kind].java }

// Host returns the Java surface type. Primitives are boxed so absence can be
// represented; generic parameters surface as raw handles.
func (t Type) Host() string {
	switch {
	case t.Kind != KindNamed:
		return kinds[t.Kind].boxed
	case t.IsGeneric():
		return "long"
	}
	return t.Name + joinTypes(t.Args, Type.hostArg)
}

func (t Type) hostArg() string {
	if t.IsGeneric() {
		return t.Name
	}
	return t.Host()
}

// UnboxFunc returns the host call that reads a heap-indirected value of this type.
func (t Type) UnboxFunc() string {
	if t.Kind == KindNamed {
		if t.IsGeneric() {
			return ""
		}
		return t.Name + ".from"
	}
	return kinds[t.Kind].unbox
}

// WireToNative converts the JNI argument v into an owned Rust value.
// Strings need the JNI environment and are converted by WireStringToNative.
func (t Type) WireToNative(v string) string {
	switch {
	case t.Kind == KindBool:
		return fmt.Sprintf("%s != 0", v)
	case t.Kind == KindChar:
		return fmt.Sprintf("char::from_u32(%s as u32).unwrap_or('\\0')", v)
	case t.Kind.IsNumeric():
		return fmt.Sprintf("%s as %s", v, t.Native())
	case t.Kind == KindString:
		return WireStringToNative(v)
	case t.IsGeneric():
		return fmt.Sprintf("(&*(%s as *mut %s)).clone()", v, t.Name)
	case t.Kind == KindNamed:
		return fmt.Sprintf("(&*(%s as *mut %s)).to_rust()", v, t.ShadowType())
	}
	return v
}

// WireStringToNative reads a JString argument into an owned String.
func WireStringToNative(v string) string {
	return fmt.Sprintf("env.get_string(&%s).unwrap().to_str().unwrap().to_string()", v)
}

// NativeToWire converts an owned Rust value into its JNI return form.
// Named values are moved into a fresh heap shadow and returned as a handle.
func (t Type) NativeToWire(expr string) string {
	switch {
	case t.Kind == KindVoid:
		return expr
	case t.Kind == KindString:
		return fmt.Sprintf("env.new_string(%s).unwrap().as_raw()", expr)
	case t.Kind.IsPrimitive():
		return fmt.Sprintf("(%s) as %s", expr, t.Wire())
	case t.IsGeneric():
		return fmt.Sprintf("Box::into_raw(Box::new(%s)) as jlong", expr)
	}
	return fmt.Sprintf("Box::into_raw(Box::new(%s::of(%s))) as jlong", t.ShadowPath(), expr)
}

// NativeToBox moves an owned Rust value onto the heap and returns the handle.
// This is the extra indirection used for optional and boxed returns.
func (t Type) NativeToBox(expr string) string {
	if t.Kind == KindNamed {
		return t.NativeToWire(expr)
	}
	return fmt.Sprintf("Box::into_raw(Box::new(%s)) as jlong", expr)
}

// HostToWire converts the Java argument name into the value passed to the native call.
func (t Type) HostToWire(name string) string {
	if t.IsClass() {
		return name + ".getPointer()"
	}
	return name
}

// WireToHost converts the value returned by a native call into the Java surface type.
func (t Type) WireToHost(expr string) string {
	if t.IsClass() {
		return fmt.Sprintf("%s.from(%s)", t.Name, expr)
	}
	return expr
}

// BoxToHost converts a heap-indirected handle into the Java surface type.
func (t Type) BoxToHost(expr string) string {
	if t.IsGeneric() {
		return expr
	}
	return fmt.Sprintf("%s(%s)", t.UnboxFunc(), expr)
}
