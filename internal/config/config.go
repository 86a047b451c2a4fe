// Package config loads the optional HCL build file.
//
//	source  = "shaders"
//	output  = "build/shaders.dat"
//	cache   = "build/shaderCache.dat"
//	format  = "a"
//	exclude = ["drafts"]
//	compiler {
//	  bin  = env.GLSLANG
//	  args = ["-V100", "-Os"]
//	}
//
// Every attribute is optional. Unset attributes are nil so the CLI can tell
// them apart from explicit values.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// File is the decoded build file.
type File struct {
	Source   *string        `hcl:"source,optional"`
	Output   *string        `hcl:"output,optional"`
	Cache    *string        `hcl:"cache,optional"`
	Format   *string        `hcl:"format,optional"`
	WorkDir  *string        `hcl:"work_dir,optional"`
	Exclude  []string       `hcl:"exclude,optional"`
	Compiler *CompilerBlock `hcl:"compiler,block"`
}

// CompilerBlock configures the glslangValidator backend.
type CompilerBlock struct {
	Bin  *string  `hcl:"bin,optional"`
	Args []string `hcl:"args,optional"`
}

// Load reads and decodes the build file at path. environ is exposed to
// expressions as the env object, in os.Environ form.
func Load(path string, environ []string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(src, path, environ)
}

// Parse decodes build file contents. filename is used in diagnostics only.
func Parse(src []byte, filename string, environ []string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var out File
	diags = gohcl.DecodeBody(hclFile.Body, EvalContext(environ), &out)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if out.Format != nil {
		switch strings.ToLower(*out.Format) {
		case "a", "b":
		default:
			return nil, fmt.Errorf("%s: format must be \"a\" or \"b\", got %q", filename, *out.Format)
		}
	}
	return &out, nil
}

// EvalContext builds the expression context for the build file. Variables
// that appear more than once in environ keep their last value.
func EvalContext(environ []string) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}
