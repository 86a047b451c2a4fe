package compiler

import (
	"context"

	"github.com/gogpu/naga"
)

// Naga compiles WGSL to SPIR-V in process. WGSL declares its entry points
// and their stages in the source, so the request stage only labels errors.
type Naga struct {
	Options naga.CompileOptions
}

// NewNaga returns a Naga backend with naga's default options.
func NewNaga() *Naga {
	return &Naga{Options: naga.DefaultOptions()}
}

func (n *Naga) Compile(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bin, err := naga.CompileWithOptions(req.Source, n.Options)
	if err != nil {
		return nil, &CompileError{Shader: req.Name, Stage: req.Stage, Err: err}
	}
	return bin, nil
}
