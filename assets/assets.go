// Package assets holds the runtime support sources emitted once per run.
//
// The Java side is a handful of interfaces and the NativeTools helper that
// reads heap-indirected values; the Rust side implements NativeTools. Both
// are placed in the unit's package so generated wrappers can refer to them
// unqualified.
package assets

import (
	"embed"
	"path"
	"strings"

	"github.com/chazu/jbridge/naming"
)

//go:embed java/*.java rust/*.rs
var files embed.FS

// File is one emitted support source.
type File struct {
	// Path is relative to the Java output root.
	Path string
	Code string
}

// JavaNames lists the support classes, in emission order. NativeLoader is
// only emitted when a library name is configured.
var JavaNames = []string{"NativeClass", "HandleOwner", "NativeTools"}

// NativeToolsGetters are the NativeTools natives implemented by Rust().
var NativeToolsGetters = []string{
	"getString", "getBool", "getByte", "getShort", "getInt",
	"getLong", "getFloat", "getDouble", "getChar",
}

func read(name string) string {
	data, err := files.ReadFile(name)
	if err != nil {
		panic("assets: missing embedded file " + name)
	}
	return string(data)
}

func expand(text, pkg, library string) string {
	return strings.NewReplacer(
		"$package$", pkg,
		"$prefix$", symbolPrefix(pkg),
		"$library$", library,
	).Replace(text)
}

// Java returns the support classes for pkg. When library is non-empty a
// NativeLoader that loads it is included.
func Java(pkg, library, header string) []File {
	names := JavaNames
	if library != "" {
		names = append(names[:len(names):len(names)], "NativeLoader")
	}
	out := make([]File, 0, len(names))
	for _, name := range names {
		text := read("java/" + name + ".java")
		if pkg == "" {
			text = strings.TrimPrefix(text, "package $package$;\n\n")
		}
		out = append(out, File{
			Path: path.Join(naming.PackageDir(pkg), name+".java"),
			Code: header + expand(text, pkg, library),
		})
	}
	return out
}

// Rust returns the NativeTools implementation for pkg. It expects the
// bridge prelude to be in scope.
func Rust(pkg string) string {
	return expand(read("rust/support.rs"), pkg, "")
}

func symbolPrefix(pkg string) string {
	if pkg == "" {
		return "Java_"
	}
	return "Java_" + naming.EscapePackage(pkg) + "_"
}

// Symbols returns the NativeTools symbols Rust exports for pkg.
func Symbols(pkg string) []string {
	out := make([]string, len(NativeToolsGetters))
	for i, g := range NativeToolsGetters {
		out[i] = symbolPrefix(pkg) + "NativeTools_" + naming.Escape(g)
	}
	return out
}
