// Package manifest handles jbridge.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/chazu/jbridge/ownership"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "jbridge.toml"

// Manifest represents a jbridge.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Input   Input   `toml:"input"`
	Output  Output  `toml:"output"`
	Codegen Codegen `toml:"codegen"`

	// Dir is the directory containing the jbridge.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	// Package is the Java package every input unit must declare. Empty
	// adopts the package of the first unit.
	Package string `toml:"package"`
	// Library, when set, is the native library NativeLoader loads.
	Library string `toml:"library"`
}

// Input lists unit files. Entries are globs relative to Dir.
type Input struct {
	Files []string `toml:"files"`
}

// Output configures where artifacts are written.
type Output struct {
	Bridge string `toml:"bridge"`
	Java   string `toml:"java"`
	// NoSupport skips the embedded runtime-support sources.
	NoSupport bool `toml:"no-support"`
}

// Codegen configures the generators.
type Codegen struct {
	Annotations bool     `toml:"annotations"`
	FreePolicy  string   `toml:"free-policy"`
	Mutation    string   `toml:"mutation"`
	Traits      []string `toml:"traits"`
}

// Default returns the configuration used when dir has no jbridge.toml.
func Default(dir string) (*Manifest, error) {
	var m Manifest
	if err := m.finish(dir); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load parses a jbridge.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse error in %s: unknown key %s", path, undecoded[0])
	}
	if err := m.finish(dir); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) finish(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.Dir = abs

	// Defaults
	if len(m.Input.Files) == 0 {
		m.Input.Files = []string{"bindings/*.yaml"}
	}
	if m.Output.Bridge == "" {
		m.Output.Bridge = "src/bindings.rs"
	}
	if m.Output.Java == "" {
		m.Output.Java = "java"
	}

	if _, err := m.Plan(); err != nil {
		return err
	}
	return nil
}

// FindAndLoad walks up from startDir to find a jbridge.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Plan returns the ownership plan selected by [codegen].
func (m *Manifest) Plan() (ownership.Plan, error) {
	free, err := ownership.ParseFreePolicy(m.Codegen.FreePolicy)
	if err != nil {
		return ownership.Plan{}, fmt.Errorf("codegen.free-policy: %w", err)
	}
	mut, err := ownership.ParseMutationMode(m.Codegen.Mutation)
	if err != nil {
		return ownership.Plan{}, fmt.Errorf("codegen.mutation: %w", err)
	}
	return ownership.Plan{Free: free, Mutation: mut}, nil
}

// InputFiles expands the input globs relative to Dir. The result is sorted
// and deduplicated. A pattern matching nothing is an error.
func (m *Manifest) InputFiles() ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range m.Input.Files {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(m.Dir, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("input pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("input pattern %s matches no files", pattern)
		}
		for _, p := range matches {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// BridgePath returns the absolute path of the generated Rust file.
func (m *Manifest) BridgePath() string {
	return m.resolve(m.Output.Bridge)
}

// JavaDir returns the absolute Java output root.
func (m *Manifest) JavaDir() string {
	return m.resolve(m.Output.Java)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
