package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/jbridge/ir"
	"github.com/chazu/jbridge/typeres"
	"github.com/google/go-cmp/cmp"
)

func lineDecls() *ir.Unit {
	return &ir.Unit{
		Package: "com.example",
		Classes: []ir.Class{
			{
				Name: "Point",
				Fields: []ir.Field{
					{Name: "x", Type: "i32"},
					{Name: "y", Type: "i32"},
				},
				Methods: []ir.Method{
					{Name: "new", Init: true, Args: []ir.Arg{{Name: "x", Type: "i32"}, {Name: "y", Type: "i32"}}},
				},
			},
			{
				Name: "Line",
				Fields: []ir.Field{
					{Name: "a", Type: "Point"},
					{Name: "b", Type: "Point"},
				},
				Methods: []ir.Method{
					{Name: "length", Returns: "f64"},
				},
			},
		},
	}
}

func mustBuild(t *testing.T, decls *ir.Unit) *Unit {
	t.Helper()
	u, err := Build(decls, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return u
}

func TestBuildClassifiesFields(t *testing.T) {
	u := mustBuild(t, lineDecls())

	point := u.Class("Point")
	if point == nil {
		t.Fatal("Point not found")
	}
	for _, f := range point.Fields {
		if !f.IsPrimitive() {
			t.Errorf("Point.%s should be primitive", f.Name)
		}
	}

	line := u.Class("Line")
	if got := len(line.HandleFields()); got != 2 {
		t.Errorf("Line handle fields = %d, want 2", got)
	}
	a := line.Field("a")
	if a.Type.Ref != typeres.RefClass || a.Type.Name != "Point" {
		t.Errorf("Line.a type = %+v, want resolved Point", a.Type)
	}
	if line.Real.Native() != "Line" {
		t.Errorf("Line real = %s", line.Real.Native())
	}
}

func TestConstructorNormalized(t *testing.T) {
	u := mustBuild(t, lineDecls())
	m := u.Class("Point").Method("new")
	if !m.Static || !m.Init {
		t.Errorf("constructor flags: static=%v init=%v", m.Static, m.Init)
	}
	if m.Returns.Name != "Point" || !m.Returns.IsClass() {
		t.Errorf("constructor returns %+v, want Point", m.Returns)
	}
	if m.HasReceiver() {
		t.Error("constructor should have no receiver")
	}
}

func TestGenericMergeFirstWins(t *testing.T) {
	decls := &ir.Unit{
		Package: "com.example",
		Classes: []ir.Class{
			{Name: "Marker"},
			{
				Name:     "Pair",
				Generics: []ir.Generic{{Name: "T", Bounds: []string{"Clone"}}},
				Fields: []ir.Field{
					{Name: "first", Type: "T", Generics: []ir.Generic{{Name: "T", Bounds: []string{"Debug"}}}},
					{Name: "second", Type: "U", Generics: []ir.Generic{{Name: "U", Bounds: []string{"Marker"}}}},
				},
				Methods: []ir.Method{
					{Name: "swap", Returns: "Pair<U, T>", Generics: []ir.Generic{{Name: "U", Bounds: []string{"Hash"}}}},
				},
			},
		},
	}
	u := mustBuild(t, decls)
	pair := u.Class("Pair")

	var names []string
	for _, g := range pair.Generics {
		names = append(names, g.Name)
	}
	if diff := cmp.Diff([]string{"T", "U"}, names); diff != "" {
		t.Errorf("generics (-want +got):\n%s", diff)
	}
	if b := pair.Generics[0].Bounds; len(b) != 1 || b[0].Name != "Clone" {
		t.Errorf("T bounds = %v, want [Clone]", b)
	}
	if b := pair.Generics[1].Bounds; len(b) != 1 || b[0].Name != "Marker" || b[0].Ref != typeres.RefClass {
		t.Errorf("U bounds = %v, want [Marker class]", b)
	}
	if f := pair.Field("first"); !f.Type.IsGeneric() || f.IsPrimitive() {
		t.Errorf("first should be a generic handle field: %+v", f.Type)
	}
	swap := pair.Method("swap")
	if swap.Returns.Native() != "Pair<U, T>" {
		t.Errorf("swap returns %s", swap.Returns.Native())
	}
}

func TestSourceAndNativeName(t *testing.T) {
	decls := lineDecls()
	decls.Classes[1].Methods = append(decls.Classes[1].Methods,
		ir.Method{Name: "distance", Static: true, Source: "geometry", Native: "line_distance",
			Args: []ir.Arg{{Name: "p", Type: "Point"}, {Name: "q", Type: "Point"}}, Returns: "f64"})
	u := mustBuild(t, decls)
	line := u.Class("Line")

	if got := line.Method("length").Callee(line); got != "Line::length" {
		t.Errorf("length callee = %s", got)
	}
	d := line.Method("distance")
	if got := d.Callee(line); got != "geometry::line_distance" {
		t.Errorf("distance callee = %s", got)
	}
	if d.Name != "distance" {
		t.Errorf("host name changed to %s", d.Name)
	}
}

func TestWrappedRealType(t *testing.T) {
	decls := &ir.Unit{
		Package: "com.example",
		Classes: []ir.Class{{
			Name:     "StrVec",
			Wrapped:  true,
			Real:     &ir.Real{Name: "Vec", Generics: []string{"String"}},
			Methods:  []ir.Method{{Name: "push", Mut: true, Args: []ir.Arg{{Name: "item", Type: "String"}}}},
			Generics: nil,
		}},
	}
	u := mustBuild(t, decls)
	c := u.Class("StrVec")
	if c.Real.Native() != "Vec<String>" {
		t.Errorf("real = %s", c.Real.Native())
	}
	if got := c.Method("push").Callee(c); got != "Vec::push" {
		t.Errorf("callee = %s", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *ir.Unit)
		want   error
		member string
	}{
		{
			name:   "duplicate class",
			mutate: func(u *ir.Unit) { u.Classes = append(u.Classes, ir.Class{Name: "Point"}) },
			want:   ErrDuplicateClass,
		},
		{
			name: "duplicate field",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Fields = append(u.Classes[0].Fields, ir.Field{Name: "x", Type: "i64"})
			},
			want:   ErrDuplicateMember,
			member: "x",
		},
		{
			name: "accessor collides with method",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Methods = append(u.Classes[0].Methods, ir.Method{Name: "get_x", Returns: "i32"})
			},
			want:   ErrDuplicateMember,
			member: "get_x",
		},
		{
			name: "reserved host name",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Methods = append(u.Classes[0].Methods, ir.Method{Name: "free"})
			},
			want:   ErrDuplicateMember,
			member: "free",
		},
		{
			name: "unknown field type",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Fields = append(u.Classes[1].Fields, ir.Field{Name: "c", Type: "Circle"})
			},
			want:   ErrUnknownType,
			member: "c",
		},
		{
			name: "wrong arity",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Fields = append(u.Classes[1].Fields, ir.Field{Name: "c", Type: "Point<i32>"})
			},
			want:   ErrUnknownType,
			member: "c",
		},
		{
			name: "unresolvable bound",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Generics = []ir.Generic{{Name: "T", Bounds: []string{"Frobnicate"}}}
			},
			want: ErrUnresolvedBound,
		},
		{
			name: "consuming constructor",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Methods[0].Consumed = true
			},
			want:   ErrInvalidMethod,
			member: "new",
		},
		{
			name: "optional constructor",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Methods[0].Optional = true
			},
			want:   ErrInvalidMethod,
			member: "new",
		},
		{
			name: "optional void",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "reset", Optional: true})
			},
			want:   ErrInvalidMethod,
			member: "reset",
		},
		{
			name: "static mutating",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "grow", Static: true, Mut: true})
			},
			want:   ErrInvalidMethod,
			member: "grow",
		},
		{
			name: "reserved argument",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods,
					ir.Method{Name: "scale", Args: []ir.Arg{{Name: "ptr", Type: "i64"}}})
			},
			want:   ErrInvalidMethod,
			member: "scale",
		},
		{
			name: "java keyword",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "switch"})
			},
			want:   ErrInvalidMethod,
			member: "switch",
		},
		{
			name: "argument shadows receiver copy",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods,
					ir.Method{Name: "scale", Args: []ir.Arg{{Name: "base", Type: "f64"}}})
			},
			want:   ErrInvalidMethod,
			member: "scale",
		},
		{
			name: "argument shadows call result",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods,
					ir.Method{Name: "scale", Returns: "f64", Args: []ir.Arg{{Name: "result", Type: "f64"}}})
			},
			want:   ErrInvalidMethod,
			member: "scale",
		},
		{
			name: "java keyword argument",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods,
					ir.Method{Name: "scale", Args: []ir.Arg{{Name: "default", Type: "f64"}}})
			},
			want:   ErrInvalidMethod,
			member: "scale",
		},
		{
			name: "native keyword argument",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods,
					ir.Method{Name: "scale", Args: []ir.Arg{{Name: "fn", Type: "f64"}}})
			},
			want:   ErrInvalidMethod,
			member: "scale",
		},
		{
			name: "native keyword field",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Fields = append(u.Classes[0].Fields, ir.Field{Name: "type", Type: "i32"})
			},
			want:   ErrInvalidField,
			member: "type",
		},
		{
			name: "native keyword method",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "move"})
			},
			want:   ErrInvalidMethod,
			member: "move",
		},
		{
			name: "getter overrides getClass",
			mutate: func(u *ir.Unit) {
				u.Classes[0].Fields = append(u.Classes[0].Fields, ir.Field{Name: "class", Type: "i32"})
			},
			want:   ErrDuplicateMember,
			member: "class",
		},
		{
			name: "method overrides hashCode",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "hash_code", Returns: "i32"})
			},
			want:   ErrDuplicateMember,
			member: "hash_code",
		},
		{
			name: "method overrides wait",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "wait"})
			},
			want:   ErrDuplicateMember,
			member: "wait",
		},
		{
			name: "boxed class return",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "start", Boxed: true, Returns: "Point"})
			},
			want:   ErrInvalidMethod,
			member: "start",
		},
		{
			name: "boxed generic return",
			mutate: func(u *ir.Unit) {
				u.Classes[1].Generics = []ir.Generic{{Name: "T"}}
				u.Classes[1].Methods = append(u.Classes[1].Methods, ir.Method{Name: "start", Boxed: true, Returns: "T"})
			},
			want:   ErrInvalidMethod,
			member: "start",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls := lineDecls()
			tt.mutate(decls)
			_, err := Build(decls, Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build error = %v, want %v", err, tt.want)
			}
			me, ok := IsModelError(err)
			if !ok {
				t.Fatalf("error %T is not a model error", err)
			}
			if me.Class == "" {
				t.Error("model error carries no class")
			}
			if tt.member != "" && me.Member != tt.member {
				t.Errorf("member = %q, want %q", me.Member, tt.member)
			}
		})
	}
}

func TestExtraTraits(t *testing.T) {
	decls := lineDecls()
	decls.Classes[1].Generics = []ir.Generic{{Name: "T", Bounds: []string{"Serialize"}}}
	if _, err := Build(decls, Options{}); err == nil {
		t.Fatal("expected unresolvable bound without extra traits")
	}
	if _, err := Build(decls, Options{Traits: []string{"Serialize"}}); err != nil {
		t.Fatalf("Build with extra trait: %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Class: "Line", Member: "c", Err: ErrUnknownType, Detail: "Circle"}
	if got, want := err.Error(), "class Line.c: unknown type: Circle"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFingerprintTracksModel(t *testing.T) {
	a, _ := mustBuild(t, lineDecls()).Fingerprint()
	b, _ := mustBuild(t, lineDecls()).Fingerprint()
	if a != b || a == "" {
		t.Fatalf("fingerprints %q and %q should be equal and non-empty", a, b)
	}
	decls := lineDecls()
	decls.Classes[0].Fields[0].Type = "i64"
	c, _ := mustBuild(t, decls).Fingerprint()
	if c == a {
		t.Error("fingerprint unchanged after type edit")
	}
	if data, err := mustBuild(t, lineDecls()).Dump(); err != nil || len(data) == 0 {
		t.Errorf("Dump = %d bytes, %v", len(data), err)
	}
	if strings.Contains(a, " ") {
		t.Errorf("fingerprint %q should be hex", a)
	}
}
