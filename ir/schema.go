package ir

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed unit.cue
var unitSchema string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

func loadSchema() {
	schemaCtx = cuecontext.New()
	v := schemaCtx.CompileString(unitSchema, cue.Filename("unit.cue"))
	if err := v.Err(); err != nil {
		schemaErr = fmt.Errorf("ir: compiling unit schema: %w", err)
		return
	}
	schemaDef = v.LookupPath(cue.ParsePath("#Unit"))
	if err := schemaDef.Err(); err != nil {
		schemaErr = fmt.Errorf("ir: unit schema has no #Unit: %w", err)
	}
}

// Validate checks u against the embedded unit schema: identifiers are
// well-formed, required keys are present and no unknown keys appear.
func Validate(u *Unit) error {
	schemaOnce.Do(loadSchema)
	if schemaErr != nil {
		return schemaErr
	}
	v := schemaCtx.Encode(u)
	if err := v.Err(); err != nil {
		return fmt.Errorf("ir: encoding unit: %w", err)
	}
	if err := schemaDef.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("ir: invalid unit: %w", err)
	}
	return nil
}
