package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// DefaultGLSLangArgs are passed before the input file: SPIR-V for Vulkan
// 1.0 semantics (-V100) and size optimisation (-Os).
var DefaultGLSLangArgs = []string{"-V100", "-Os"}

// GLSLang compiles GLSL through the glslangValidator reference compiler.
//
// Each call writes the resolved source to a temporary ".parsed" file in
// WorkDir and asks the tool to write SPIR-V to a temporary ".spv" file
// there. Both files are removed before Compile returns, whatever the outcome.
type GLSLang struct {
	Bin     string
	Args    []string
	WorkDir string // "" means the OS temp directory
}

// NewGLSLang returns a GLSLang with the default binary name and arguments.
func NewGLSLang() *GLSLang {
	return &GLSLang{Bin: "glslangValidator", Args: DefaultGLSLangArgs}
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Compile runs: <Bin> <Args...> <parsed> -S <stage> -o <out>.
func (g *GLSLang) Compile(ctx context.Context, req Request) ([]byte, error) {
	if req.Stage.Tag() == "" {
		return nil, &CompileError{Shader: req.Name, Stage: req.Stage, Err: errors.New("not a stage shader")}
	}
	base := unsafeNameRe.ReplaceAllString(req.Name, "_")

	parsed, err := writeTemp(g.WorkDir, base+"-*.parsed", req.Source)
	if err != nil {
		return nil, fmt.Errorf("write parsed source for %s: %w", req.Name, err)
	}
	defer os.Remove(parsed)

	out, err := writeTemp(g.WorkDir, base+"-*.spv", "")
	if err != nil {
		return nil, fmt.Errorf("reserve output for %s: %w", req.Name, err)
	}
	defer os.Remove(out)

	args := make([]string, 0, len(g.Args)+5)
	args = append(args, g.Args...)
	args = append(args, parsed, "-S", req.Stage.Tag(), "-o", out)
	cmd := exec.CommandContext(ctx, g.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CompileError{
			Shader:     req.Name,
			Stage:      req.Stage,
			Diagnostic: diagnostic(stdout.String(), stderr.String()),
			Err:        fmt.Errorf("failed to run %v: %w", cmd.Args, err),
		}
	}

	bin, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("unable to read output %q: %w", out, err)
	}
	if len(bin) == 0 {
		return nil, &CompileError{
			Shader:     req.Name,
			Stage:      req.Stage,
			Diagnostic: diagnostic(stdout.String(), stderr.String()),
			Err:        errors.New("compiler produced no output"),
		}
	}
	return bin, nil
}

func writeTemp(dir, pattern, content string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// diagnostic joins the tool's stdout (where glslangValidator prints errors)
// and stderr.
func diagnostic(stdout, stderr string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{stdout, stderr} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
