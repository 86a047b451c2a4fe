package pipeline

import (
	"fmt"
	"strings"
)

// ShaderError is a failure confined to one shader: a missing snippet or a
// compiler rejection. The shader is left out of the bundle.
type ShaderError struct {
	Shader string
	Err    error
}

func (e *ShaderError) Error() string { return e.Shader + ": " + e.Err.Error() }

func (e *ShaderError) Unwrap() error { return e.Err }

// BuildError aggregates the per-shader failures of a run. The bundle and
// cache are still written for every shader that succeeded.
type BuildError struct {
	Failures []*ShaderError
}

func (e *BuildError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Shader
	}
	return fmt.Sprintf("%d shader(s) failed: %s", len(e.Failures), strings.Join(names, ", "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}
