package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/arthouse/internal/engine"
)

//go:embed genesis.cue
var genesisSchema string

// GenesisError reports an invalid genesis file.
type GenesisError struct {
	Message string
	Pos     token.Pos
}

func (e *GenesisError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadGenesis reads a CUE genesis file.
func LoadGenesis(path string) (engine.Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Genesis{}, fmt.Errorf("read genesis: %w", err)
	}
	return ParseGenesis(path, data)
}

// ParseGenesis validates src against the genesis schema. filename is only
// used in error positions.
//
//	owner: "gallery-owner"
//	royalty_rate: 5
//	accounts: [{address: "alice", coins: [{denom: "ucosm", amount: "1000"}]}]
func ParseGenesis(filename string, src []byte) (engine.Genesis, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(genesisSchema, cue.Filename("genesis.cue"))
	if err := schema.Err(); err != nil {
		return engine.Genesis{}, fmt.Errorf("genesis schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Genesis"))

	file := ctx.CompileBytes(src, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return engine.Genesis{}, formatCUEError(err)
	}

	v := def.Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return engine.Genesis{}, formatCUEError(err)
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return engine.Genesis{}, formatCUEError(err)
	}
	var g engine.Genesis
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return engine.Genesis{}, &GenesisError{Message: err.Error()}
	}
	return g, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &GenesisError{Message: err.Error()}
	}
	first := errs[0]
	ge := &GenesisError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ge.Pos = positions[0]
	}
	return ge
}
