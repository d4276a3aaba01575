// Package generate runs a complete generation: load the unit files, build
// the class model, render every artifact in memory, then write them out.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/chazu/jbridge/assets"
	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/ir"
	"github.com/chazu/jbridge/manifest"
	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/wrapper"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jbridge.generate")

// Config is one generation run.
type Config struct {
	Manifest *manifest.Manifest
	// Files overrides the manifest's input globs when non-empty.
	Files []string
	// DumpModel, when set, receives the normalized model as canonical CBOR.
	DumpModel string
}

// Artifact is one file to be written.
type Artifact struct {
	Path string
	Data []byte
}

// Result is everything a run produced.
type Result struct {
	Unit        *model.Unit
	Fingerprint string
	Artifacts   []Artifact
}

// Header returns the banner stamped on every generated file.
func Header(fingerprint string) string {
	return "// Code generated by jbridge. DO NOT EDIT.\n// model: " + fingerprint + "\n\n"
}

// Run builds every artifact and writes them. Nothing is written unless
// every class generated successfully.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	res, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Write(ctx, res.Artifacts); err != nil {
		return nil, err
	}
	log.Noticef("wrote %d files for %d classes (model %s)", len(res.Artifacts), len(res.Unit.Classes), res.Fingerprint)
	return res, nil
}

// Build loads, validates and renders without touching the output tree.
func Build(ctx context.Context, cfg Config) (*Result, error) {
	m := cfg.Manifest
	plan, err := m.Plan()
	if err != nil {
		return nil, err
	}

	files := cfg.Files
	if len(files) == 0 {
		if files, err = m.InputFiles(); err != nil {
			return nil, err
		}
	}
	log.Infof("loading %d unit files", len(files))
	decls, err := ir.LoadAll(m.Project.Package, files)
	if err != nil {
		return nil, err
	}
	u, err := model.Build(decls, model.Options{Traits: m.Codegen.Traits})
	if err != nil {
		return nil, err
	}
	fp, err := u.Fingerprint()
	if err != nil {
		return nil, err
	}
	header := Header(fp)
	res := &Result{Unit: u, Fingerprint: fp}

	rust := bridge.GenerateFile(u, bridge.Options{Plan: plan}, header)
	if !m.Output.NoSupport {
		rust += "\n" + assets.Rust(u.Package)
	}
	res.add(m.BridgePath(), rust)

	javaDir := m.JavaDir()
	wopts := wrapper.Options{Annotations: m.Codegen.Annotations}
	for _, c := range u.Classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := wrapper.Generate(u, c, wopts, header)
		if native := bridge.Symbols(u, c); !slices.Equal(native, f.Symbols) {
			return nil, fmt.Errorf("class %s: wrapper binds %d symbols, bridge exports %d", c.Name, len(f.Symbols), len(native))
		}
		log.Debugf("class %s: %d entry points", c.Name, len(f.Symbols))
		res.add(filepath.Join(javaDir, filepath.FromSlash(f.Path)), f.Code)
	}
	if !m.Output.NoSupport {
		for _, f := range assets.Java(u.Package, m.Project.Library, header) {
			res.add(filepath.Join(javaDir, filepath.FromSlash(f.Path)), f.Code)
		}
	}

	if cfg.DumpModel != "" {
		data, err := u.Dump()
		if err != nil {
			return nil, err
		}
		res.Artifacts = append(res.Artifacts, Artifact{Path: cfg.DumpModel, Data: data})
	}
	return res, nil
}

func (r *Result) add(path, code string) {
	r.Artifacts = append(r.Artifacts, Artifact{Path: path, Data: []byte(code)})
}

// Write stages every artifact next to its destination and renames them into
// place only once all of them were staged.
func Write(ctx context.Context, artifacts []Artifact) error {
	staged := make([]string, 0, len(artifacts))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		tmp, err := stage(a)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}
	var errs []error
	for i, a := range artifacts {
		if err := os.Rename(staged[i], a.Path); err != nil {
			errs = append(errs, fmt.Errorf("cannot write %s: %w", a.Path, err))
			os.Remove(staged[i])
		}
	}
	return errors.Join(errs...)
}

func stage(a Artifact) (string, error) {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".*")
	if err != nil {
		return "", fmt.Errorf("cannot write %s: %w", a.Path, err)
	}
	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("cannot write %s: %w", a.Path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("cannot write %s: %w", a.Path, err)
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("cannot write %s: %w", a.Path, err)
	}
	return f.Name(), nil
}
