package ir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Decode parses a unit from data. The format is chosen by the extension of
// name: ".cbor" for CBOR, anything else is read as YAML (which covers JSON).
// The decoded unit is validated before it is returned.
func Decode(name string, data []byte) (*Unit, error) {
	var u *Unit
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cbor":
		var err error
		if u, err = UnmarshalUnit(data); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", name, err)
		}
	default:
		u = &Unit{}
		if err := yaml.UnmarshalWithOptions(data, u, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", name, err)
		}
	}
	if err := Validate(u); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return u, nil
}

// Load reads and decodes a unit file.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Decode(path, data)
}

// LoadAll loads every file and merges them into one unit for pkg.
func LoadAll(pkg string, paths []string) (*Unit, error) {
	units := make([]*Unit, 0, len(paths))
	for _, p := range paths {
		u, err := Load(p)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return Merge(pkg, units...)
}

// Merge concatenates the classes of units. A unit that names a package must
// agree with pkg; an empty pkg adopts the first package named.
func Merge(pkg string, units ...*Unit) (*Unit, error) {
	out := &Unit{Package: pkg}
	for _, u := range units {
		switch {
		case u.Package == "":
		case out.Package == "":
			out.Package = u.Package
		case u.Package != out.Package:
			return nil, fmt.Errorf("package mismatch: %q declared, %q expected", u.Package, out.Package)
		}
		out.Classes = append(out.Classes, u.Classes...)
	}
	return out, nil
}
