package bridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/jbridge/ir"
	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/ownership"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

func loadFixture(t *testing.T, name string) (*model.Unit, *txtar.Archive) {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	var src []byte
	for _, f := range ar.Files {
		if f.Name == "unit.yaml" {
			src = f.Data
		}
	}
	decls, err := ir.Decode("unit.yaml", src)
	if err != nil {
		t.Fatalf("decoding fixture unit: %v", err)
	}
	u, err := model.Build(decls, model.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return u, ar
}

func section(ar *txtar.Archive, name string) []string {
	var out []string
	for _, f := range ar.Files {
		if f.Name != name {
			continue
		}
		for _, line := range strings.Split(string(f.Data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

func lines(code string) map[string]bool {
	set := make(map[string]bool)
	for _, l := range strings.Split(code, "\n") {
		set[strings.TrimSpace(l)] = true
	}
	return set
}

func TestGenerateFixtures(t *testing.T) {
	for _, name := range []string{"line.txtar", "generics.txtar"} {
		t.Run(name, func(t *testing.T) {
			u, ar := loadFixture(t, name)
			code := GenerateFile(u, Options{}, "")
			got := lines(code)
			for _, want := range section(ar, "contains") {
				if !got[want] {
					t.Errorf("missing line: %s", want)
				}
			}
			for _, bad := range section(ar, "absent") {
				if strings.Contains(code, bad) {
					t.Errorf("unexpected text: %s", bad)
				}
			}
			if t.Failed() {
				t.Logf("generated:\n%s", code)
			}
		})
	}
}

func TestOneEntryPointPerMember(t *testing.T) {
	u, _ := loadFixture(t, "line.txtar")
	line := u.Class("Line")
	frag := Generate(u, line, Options{})

	// a getter and a setter per field, one per method, one destructor
	if got, want := len(frag.Symbols), 2*2+len(line.Methods)+1; got != want {
		t.Errorf("symbols = %d, want %d: %v", got, want, frag.Symbols)
	}
	if n := strings.Count(frag.Code, "jni_1free"); n != 1 {
		t.Errorf("destructor emitted %d times", n)
	}
	seen := make(map[string]bool)
	for _, s := range frag.Symbols {
		if seen[s] {
			t.Errorf("duplicate symbol %s", s)
		}
		seen[s] = true
		if !strings.Contains(frag.Code, "fn "+s+"<") {
			t.Errorf("symbol %s not defined in code", s)
		}
	}
}

func TestSymbolsIndependentOfPlan(t *testing.T) {
	u, _ := loadFixture(t, "line.txtar")
	for _, c := range u.Classes {
		plain := Generate(u, c, Options{}).Symbols
		other := Generate(u, c, Options{Plan: ownership.Plan{Free: ownership.Recursive, Mutation: ownership.WriteBack}}).Symbols
		if diff := cmp.Diff(plain, other); diff != "" {
			t.Errorf("%s symbols depend on plan (-default +other):\n%s", c.Name, diff)
		}
	}
}

func TestWriteBackPlan(t *testing.T) {
	u, _ := loadFixture(t, "line.txtar")
	code := GenerateFile(u, Options{Plan: ownership.Plan{Mutation: ownership.WriteBack}}, "")
	got := lines(code)
	for _, want := range []string{
		"pub unsafe fn __store(&mut self, base: Line) {",
		"(&mut *self.a).__store(base.a);",
		"self.x = base.x;",
		"it.__store(base);",
		"let it = &mut *(ptr as *mut __JNI_Line);",
	} {
		if !got[want] {
			t.Errorf("missing line: %s", want)
		}
	}
	// read-only calls never store back
	if strings.Count(code, "it.__store(base);") != 1 {
		t.Errorf("expected exactly one write-back call site")
	}
}

func TestRecursivePlan(t *testing.T) {
	u, _ := loadFixture(t, "line.txtar")
	code := GenerateFile(u, Options{Plan: ownership.Plan{Free: ownership.Recursive}}, "")
	got := lines(code)
	if !got["__JNI_Point::__release(it.a);"] || !got["__JNI_Point::__release(it.b);"] {
		t.Errorf("recursive plan does not release through field shadows:\n%s", code)
	}
	if got["drop(Box::from_raw(it.a));"] {
		t.Error("recursive plan still drops a field shallowly")
	}
}

func TestGenerateFileHeader(t *testing.T) {
	u, _ := loadFixture(t, "line.txtar")
	header := "// Code generated by jbridge. DO NOT EDIT.\n\n"
	code := GenerateFile(u, Options{}, header)
	if !strings.HasPrefix(code, header+Prelude) {
		t.Errorf("file does not start with header and prelude:\n%s", code[:200])
	}
	if strings.Index(code, "struct __JNI_Point") > strings.Index(code, "struct __JNI_Line") {
		t.Error("classes not emitted in declaration order")
	}
}

func TestGolden(t *testing.T) {
	u, _ := loadFixture(t, "line.txtar")
	code := GenerateFile(u, Options{}, "")
	path := filepath.Join("testdata", "line.rs.golden")
	if os.Getenv("UPDATE_GOLDEN") != "" {
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("%v (run with UPDATE_GOLDEN=1 to regenerate)", err)
	}
	if diff := cmp.Diff(string(want), code); diff != "" {
		t.Errorf("output differs from %s (-want +got):\n%s", path, diff)
	}
}
