// Package typeres maps declared types to their native, wire and host shapes.
//
// The bridge between a Rust library and the JVM has three views of every value:
// the native in-memory type, the JNI wire type that crosses the boundary, and
// the Java surface type the host programmer sees. A Kind fixes the first two
// for primitives; every named type crosses the wire as a jlong handle.
package typeres

// Kind is the kind of a declared type.
type Kind int

const (
	KindVoid Kind = iota
	KindString
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindBool
	KindChar
	KindNamed
)

type kindInfo struct {
	native  string // Rust type
	wire    string // JNI return/field type
	java    string // Java primitive used in native declarations
	boxed   string // Java surface type
	unbox   string // NativeTools helper reading a heap-indirected value
	signed  Kind   // signed wire counterpart for unsigned kinds
	numeric bool
}

var kinds = map[Kind]kindInfo{
	KindVoid:   {native: "()", wire: "()", java: "void", boxed: "void"},
	KindString: {native: "String", wire: "jstring", java: "String", boxed: "String", unbox: "NativeTools.getString"},
	KindI8:     {native: "i8", wire: "jbyte", java: "byte", boxed: "Byte", unbox: "NativeTools.getByte", numeric: true},
	KindI16:    {native: "i16", wire: "jshort", java: "short", boxed: "Short", unbox: "NativeTools.getShort", numeric: true},
	KindI32:    {native: "i32", wire: "jint", java: "int", boxed: "Integer", unbox: "NativeTools.getInt", numeric: true},
	KindI64:    {native: "i64", wire: "jlong", java: "long", boxed: "Long", unbox: "NativeTools.getLong", numeric: true},
	KindU8:     {native: "u8", wire: "jbyte", java: "byte", boxed: "Byte", unbox: "NativeTools.getByte", signed: KindI8, numeric: true},
	KindU16:    {native: "u16", wire: "jshort", java: "short", boxed: "Short", unbox: "NativeTools.getShort", signed: KindI16, numeric: true},
	KindU32:    {native: "u32", wire: "jint", java: "int", boxed: "Integer", unbox: "NativeTools.getInt", signed: KindI32, numeric: true},
	KindU64:    {native: "u64", wire: "jlong", java: "long", boxed: "Long", unbox: "NativeTools.getLong", signed: KindI64, numeric: true},
	KindF32:    {native: "f32", wire: "jfloat", java: "float", boxed: "Float", unbox: "NativeTools.getFloat", numeric: true},
	KindF64:    {native: "f64", wire: "jdouble", java: "double", boxed: "Double", unbox: "NativeTools.getDouble", numeric: true},
	KindBool:   {native: "bool", wire: "jboolean", java: "boolean", boxed: "Boolean", unbox: "NativeTools.getBool"},
	KindChar:   {native: "char", wire: "jchar", java: "char", boxed: "Character", unbox: "NativeTools.getChar", numeric: true},
	KindNamed:  {wire: "jlong", java: "long"},
}

var kindNames = map[string]Kind{
	"()":     KindVoid,
	"void":   KindVoid,
	"String": KindString,
	"str":    KindString,
	"i8":     KindI8,
	"i16":    KindI16,
	"i32":    KindI32,
	"i64":    KindI64,
	"u8":     KindU8,
	"u16":    KindU16,
	"u32":    KindU32,
	"u64":    KindU64,
	"f32":    KindF32,
	"f64":    KindF64,
	"bool":   KindBool,
	"char":   KindChar,
}

// KindOf returns the kind for a type name. Any identifier that is not a
// builtin is assumed to name another declared class.
func KindOf(name string) Kind {
	if k, ok := kindNames[name]; ok {
		return k
	}
	return KindNamed
}

// IsPrimitive reports whether values of this kind are stored inline in a
// shadow object. Strings count as primitive: they are marshalled by value.
func (k Kind) IsPrimitive() bool { return k != KindNamed }

// IsNumeric reports whether the kind converts to its wire type with a plain cast.
func (k Kind) IsNumeric() bool { return kinds[k].numeric }

// IsUnsigned reports whether the kind has no wire counterpart of its own.
func (k Kind) IsUnsigned() bool {
	switch k {
	case KindU8, KindU16, KindU32, KindU64:
		return true
	}
	return false
}

// WireSigned returns the signed kind whose wire type carries k.
func (k Kind) WireSigned() Kind {
	if k.IsUnsigned() {
		return kinds[k].signed
	}
	return k
}

func (k Kind) String() string {
	if k == KindNamed {
		return "named"
	}
	return kinds[k].native
}
