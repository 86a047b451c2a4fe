// Package compiler is the boundary to the tools that turn resolved shader
// source into binaries. The pipeline treats a Compiler as a black box: it
// passes include-free source plus a stage and gets back a binary or an error.
// Compilers do no caching and no retries of their own.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"shaderpack/internal/shader"
)

// Request is a single compilation unit.
type Request struct {
	Name     string // shader name, used for diagnostics and temp file names
	Source   string // fully resolved source
	Stage    shader.Stage
	Language shader.Language
}

// Compiler compiles one shader.
type Compiler interface {
	Compile(ctx context.Context, req Request) ([]byte, error)
}

// CompileError carries the compiler's diagnostic text for a failed shader.
type CompileError struct {
	Shader     string
	Stage      shader.Stage
	Diagnostic string
	Err        error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("compile %s (%s)", e.Shader, e.Stage)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// ErrNoBackend is returned by Router for a language it has no compiler for.
var ErrNoBackend = errors.New("no compiler for language")

// Router dispatches requests by source language.
type Router struct {
	GLSL Compiler
	WGSL Compiler
}

// Compile forwards req to the compiler registered for its language.
func (r Router) Compile(ctx context.Context, req Request) ([]byte, error) {
	var c Compiler
	switch req.Language {
	case shader.GLSL:
		c = r.GLSL
	case shader.WGSL:
		c = r.WGSL
	}
	if c == nil {
		return nil, fmt.Errorf("%s: %w %s", req.Name, ErrNoBackend, req.Language)
	}
	return c.Compile(ctx, req)
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, req Request) ([]byte, error)

func (f Func) Compile(ctx context.Context, req Request) ([]byte, error) { return f(ctx, req) }
