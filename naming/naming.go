// Package naming derives every name shared by the bridge and the wrapper.
//
// The Rust bridge and the Java wrapper are generated independently and meet
// only through JNI symbol resolution, so both generators call Symbol and
// NativeMethod from here instead of formatting names themselves.
package naming

import (
	"fmt"
	"strings"
	"unicode"
)

// MemberKind is the role a bridge entry point plays for its class.
type MemberKind int

const (
	Method MemberKind = iota
	Init
	Getter
	Setter
	Free
)

// BridgePrefix starts every native method name.
const BridgePrefix = "jni"

// Member identifies one bridge entry point of a class.
type Member struct {
	Kind MemberKind
	Name string
}

// NativeMethod returns the Java native method name for a member, e.g.
// "jni_get_x", "jni_init_new" or "jni_free".
func NativeMethod(m Member) string {
	switch m.Kind {
	case Init:
		return BridgePrefix + "_init_" + m.Name
	case Getter:
		return BridgePrefix + "_get_" + m.Name
	case Setter:
		return BridgePrefix + "_set_" + m.Name
	case Free:
		return BridgePrefix + "_free"
	}
	return BridgePrefix + "_" + m.Name
}

// Symbol returns the exported bridge symbol for a member of class in pkg:
// "Java_" + <escaped-package>_<Class>_<escaped native method name>.
func Symbol(pkg, class string, m Member) string {
	var b strings.Builder
	b.WriteString("Java_")
	if pkg != "" {
		b.WriteString(EscapePackage(pkg))
		b.WriteByte('_')
	}
	b.WriteString(Escape(class))
	b.WriteByte('_')
	b.WriteString(Escape(NativeMethod(m)))
	return b.String()
}

// EscapePackage converts a dotted Java package into its JNI symbol form.
// Each component is escaped separately and joined with "_".
func EscapePackage(pkg string) string {
	parts := strings.FieldsFunc(pkg, func(r rune) bool { return r == '.' || r == '/' })
	for i, p := range parts {
		parts[i] = Escape(p)
	}
	return strings.Join(parts, "_")
}

// Escape applies JNI name mangling to a single identifier.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_':
			b.WriteString("_1")
		case r == ';':
			b.WriteString("_2")
		case r == '[':
			b.WriteString("_3")
		case r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_0%04x", r)
		}
	}
	return b.String()
}

// PackageDir converts a dotted Java package into a relative directory.
func PackageDir(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}

// GetterName returns the Java getter for a field, e.g. "first_name" -> "getFirstName".
func GetterName(field string) string { return ToCamel("get_" + field) }

// SetterName returns the Java setter for a field, e.g. "first_name" -> "setFirstName".
func SetterName(field string) string { return ToCamel("set_" + field) }

// ToCamel converts a snake_case or kebab-case name to camelCase.
// e.g. "say_with" -> "sayWith", "length" -> "length"
func ToCamel(s string) string {
	p := toPascal(s)
	if p == "" {
		return p
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// toPascal converts a string to PascalCase.
// Handles hyphenated and underscore-separated names.
func toPascal(s string) string {
	if len(s) == 0 {
		return s
	}

	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '-' || r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
