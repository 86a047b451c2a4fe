package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullFile(t *testing.T) {
	src := []byte(`
source  = "gfx/shaders"
output  = "build/shaders.dat"
cache   = "build/shaderCache.dat"
format  = "b"
exclude = ["drafts", "old"]

compiler {
  bin  = env.GLSLANG
  args = ["-V100", "-O"]
}
`)
	f, err := Parse(src, "build.hcl", []string{"GLSLANG=/opt/vulkan/bin/glslangValidator", "HOME=/root"})
	require.NoError(t, err)

	require.NotNil(t, f.Source)
	assert.Equal(t, "gfx/shaders", *f.Source)
	assert.Equal(t, "build/shaders.dat", *f.Output)
	assert.Equal(t, "build/shaderCache.dat", *f.Cache)
	assert.Equal(t, "b", *f.Format)
	assert.Nil(t, f.WorkDir)
	assert.Equal(t, []string{"drafts", "old"}, f.Exclude)
	require.NotNil(t, f.Compiler)
	require.NotNil(t, f.Compiler.Bin)
	assert.Equal(t, "/opt/vulkan/bin/glslangValidator", *f.Compiler.Bin)
	assert.Equal(t, []string{"-V100", "-O"}, f.Compiler.Args)
}

func TestParseEmptyFileLeavesEverythingUnset(t *testing.T) {
	f, err := Parse(nil, "empty.hcl", nil)
	require.NoError(t, err)
	assert.Nil(t, f.Source)
	assert.Nil(t, f.Output)
	assert.Nil(t, f.Format)
	assert.Nil(t, f.Compiler)
	assert.Empty(t, f.Exclude)
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	_, err := Parse([]byte(`format = "c"`), "bad.hcl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestParseRejectsUnknownAttribute(t *testing.T) {
	_, err := Parse([]byte(`sources = "x"`), "typo.hcl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo.hcl")
}

func TestParseUnknownEnvVariableFails(t *testing.T) {
	_, err := Parse([]byte(`source = env.MISSING`), "env.hcl", []string{"OTHER=1"})
	require.Error(t, err)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte(`source = `), "broken.hcl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shaderpack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`output = "out.dat"`), 0o644))

	f, err := Load(path, os.Environ())
	require.NoError(t, err)
	require.NotNil(t, f.Output)
	assert.Equal(t, "out.dat", *f.Output)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"), nil)
	require.Error(t, err)
}

func TestEvalContextLastValueWins(t *testing.T) {
	ctx := EvalContext([]string{"A=1", "A=2", "=skip", "NOEQUALS"})
	env := ctx.Variables["env"]
	assert.Equal(t, "2", env.GetAttr("A").AsString())
	assert.Len(t, env.Type().AttributeTypes(), 1)
}
