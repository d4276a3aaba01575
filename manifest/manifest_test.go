package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/jbridge/ownership"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
package = "com.example"
library = "shapes"

[input]
files = ["ir/*.yaml", "extra.cbor"]

[output]
bridge = "native/src/bindings.rs"
java = "java/src/generated"

[codegen]
annotations = true
free-policy = "recursive"
mutation = "write-back"
traits = ["Serialize"]
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Package != "com.example" {
		t.Errorf("project package = %q, want com.example", m.Project.Package)
	}
	if m.Project.Library != "shapes" {
		t.Errorf("project library = %q, want shapes", m.Project.Library)
	}
	if len(m.Input.Files) != 2 {
		t.Errorf("input files count = %d, want 2", len(m.Input.Files))
	}
	if !m.Codegen.Annotations {
		t.Error("codegen annotations = false, want true")
	}
	if len(m.Codegen.Traits) != 1 || m.Codegen.Traits[0] != "Serialize" {
		t.Errorf("codegen traits = %v", m.Codegen.Traits)
	}
	if got := m.BridgePath(); got != filepath.Join(m.Dir, "native/src/bindings.rs") {
		t.Errorf("bridge path = %s", got)
	}
	if got := m.JavaDir(); got != filepath.Join(m.Dir, "java/src/generated") {
		t.Errorf("java dir = %s", got)
	}

	plan, err := m.Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Free != ownership.Recursive || plan.Mutation != ownership.WriteBack {
		t.Errorf("plan = %+v", plan)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
package = "com.example"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Input.Files) != 1 || m.Input.Files[0] != "bindings/*.yaml" {
		t.Errorf("input files = %v, want [bindings/*.yaml]", m.Input.Files)
	}
	if m.Output.Bridge != "src/bindings.rs" {
		t.Errorf("output bridge = %q", m.Output.Bridge)
	}
	if m.Output.Java != "java" {
		t.Errorf("output java = %q", m.Output.Java)
	}
	plan, _ := m.Plan()
	if plan.Free != ownership.Shallow || plan.Mutation != ownership.Copy {
		t.Errorf("default plan = %+v", plan)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[project\n", "parse error"},
		{"unknown key", "[project]\nnamespace = \"x\"\n", "unknown key project.namespace"},
		{"free policy", "[codegen]\nfree-policy = \"deep\"\n", "codegen.free-policy"},
		{"mutation", "[codegen]\nmutation = \"inplace\"\n", "codegen.mutation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing jbridge.toml")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\npackage = \"com.example\"\n")
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	want, _ := filepath.Abs(root)
	if m.Dir != want {
		t.Errorf("dir = %s, want %s", m.Dir, want)
	}
}

func TestInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bindings/b.yaml", "bindings/a.yaml", "bindings/notes.txt", "extra.cbor"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeManifest(t, dir, `
[input]
files = ["bindings/*.yaml", "extra.cbor", "bindings/a.yaml"]
`)
	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.InputFiles()
	if err != nil {
		t.Fatalf("InputFiles: %v", err)
	}
	want := []string{
		filepath.Join(m.Dir, "bindings/a.yaml"),
		filepath.Join(m.Dir, "bindings/b.yaml"),
		filepath.Join(m.Dir, "extra.cbor"),
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("InputFiles = %v, want %v", got, want)
	}

	m.Input.Files = []string{"missing/*.yaml"}
	if _, err := m.InputFiles(); err == nil {
		t.Error("expected error for pattern without matches")
	}
}

func TestDefault(t *testing.T) {
	m, err := Default(".")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(m.Dir) {
		t.Errorf("dir = %s, want absolute", m.Dir)
	}
	if m.Output.Bridge == "" || m.Output.Java == "" {
		t.Errorf("outputs not defaulted: %+v", m.Output)
	}
}
