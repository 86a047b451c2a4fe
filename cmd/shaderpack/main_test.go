package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"shaderpack/internal/bundle"
	"shaderpack/internal/cache"
	"shaderpack/internal/config"
)

func TestParseFlagsBasic(t *testing.T) {
	args := []string{"-o", "out.dat", "--cache", "c.dat", "--compiler-arg=-V", "--compiler-arg=-g", "--exclude", "drafts,old", "src/gfx"}
	cfg, err := parseFlags(args)
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if cfg.out != "out.dat" {
		t.Fatalf("out got %q", cfg.out)
	}
	if cfg.cachePath != "c.dat" {
		t.Fatalf("cachePath got %q", cfg.cachePath)
	}
	if cfg.srcDir != filepath.Clean("src/gfx") {
		t.Fatalf("srcDir got %q", cfg.srcDir)
	}
	if !reflect.DeepEqual(cfg.compilerArgs, []string{"-V", "-g"}) {
		t.Fatalf("compilerArgs got %v", cfg.compilerArgs)
	}
	if !reflect.DeepEqual(cfg.exclude, []string{"drafts", "old"}) {
		t.Fatalf("exclude got %v", cfg.exclude)
	}
	if !cfg.changed["out"] || !cfg.changed["src_dir"] || cfg.changed["pack"] {
		t.Fatalf("changed got %v", cfg.changed)
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if cfg.srcDir != "shaders" || cfg.out != "shaders.dat" || cfg.cachePath != "shaderCache.dat" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.compilerArgs, []string{"-V100", "-Os"}) {
		t.Fatalf("compilerArgs got %v", cfg.compilerArgs)
	}
}

func TestParseFlagsTooManyPaths(t *testing.T) {
	if _, err := parseFlags([]string{"a", "b"}); err == nil {
		t.Fatalf("expected error for two <src_dir> arguments")
	}
}

func TestParseFlagsBadLogLevel(t *testing.T) {
	if _, err := parseFlags([]string{"--log-level", "loud"}); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestSelectMode(t *testing.T) {
	if m, _ := selectMode(Config{}); m != "compile" {
		t.Fatalf("mode=%s", m)
	}
	if m, _ := selectMode(Config{pack: true}); m != "pack" {
		t.Fatalf("mode=%s", m)
	}
	if _, err := selectMode(Config{pack: true, changed: map[string]bool{"cache": true}}); err == nil {
		t.Fatalf("expected error on --cache with --pack")
	}
}

func TestApplyFileFlagsWin(t *testing.T) {
	cfg, err := parseFlags([]string{"-o", "cli.dat"})
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	f, err := config.Parse([]byte(`
source = "assets/shaders"
output = "file.dat"
cache  = "file.cache"
format = "b"
compiler {
  bin = "/opt/glslang"
}
`), "build.hcl", nil)
	if err != nil {
		t.Fatalf("config error: %v", err)
	}
	applyFile(&cfg, f)
	if cfg.out != "cli.dat" {
		t.Fatalf("flag should win, out=%q", cfg.out)
	}
	if cfg.cachePath != "file.cache" || cfg.srcDir != filepath.Clean("assets/shaders") {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if !cfg.pack {
		t.Fatalf("format b should select pack mode")
	}
	if cfg.compilerBin != "/opt/glslang" {
		t.Fatalf("compilerBin got %q", cfg.compilerBin)
	}
	if !reflect.DeepEqual(cfg.compilerArgs, []string{"-V100", "-Os"}) {
		t.Fatalf("compilerArgs should keep defaults, got %v", cfg.compilerArgs)
	}
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--help"}, &out, &out); err != nil {
		t.Fatalf("help returned %v", err)
	}
	if !strings.Contains(out.String(), "--pack") {
		t.Fatalf("usage missing flags:\n%s", out.String())
	}
}

func TestRunUsageErrorExitCode(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"--no-such-flag"}, &out, &out)
	var ee *exitError
	if !errors.As(err, &ee) || ee.Code != 2 {
		t.Fatalf("want exit code 2, got %v", err)
	}
}

// fakeGLSLang writes "<stage>:<source>" to the -o path and fails on "#error".
const fakeGLSLang = `#!/bin/sh
in=""; out=""; stage=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
    -S) stage="$2"; shift ;;
    -*) ;;
    *) in="$1" ;;
  esac
  shift
done
if grep -q '#error' "$in"; then
  echo "ERROR: $in:1: '#error' : boom"
  exit 2
fi
printf '%s:' "$stage" > "$out"
cat "$in" >> "$out"
`

func TestRunCompileThenReuse(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "glslangValidator")
	src := filepath.Join(dir, "shaders")
	out := filepath.Join(dir, "shaders.dat")
	cachePath := filepath.Join(dir, "shaderCache.dat")
	mustWrite(t, bin, fakeGLSLang, 0o755)
	mustWrite(t, filepath.Join(src, "common.glsl"), "float f = 1.0;", 0o644)
	mustWrite(t, filepath.Join(src, "tri.vert.glsl"), "#include <common>\nvoid main(){}", 0o644)

	args := []string{"--compiler", bin, "--work-dir", dir, "-o", out, "--cache", cachePath, src}
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("first run: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "compiled=1") {
		t.Fatalf("summary:\n%s", stdout.String())
	}
	bins, err := bundle.ReadFile(out, bundle.FormatA)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if got := string(bins["tri.vert"]); got != "vert:float f = 1.0;\nvoid main(){}" {
		t.Fatalf("binary got %q", got)
	}
	digests, err := cache.ReadCacheFile(cachePath)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if digests["tri.vert"] != cache.Digest("float f = 1.0;\nvoid main(){}") {
		t.Fatalf("cache digest got %q", digests["tri.vert"])
	}

	// A broken compiler proves the second run never invokes it.
	mustWrite(t, bin, "#!/bin/sh\nexit 1\n", 0o755)
	stdout.Reset()
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("second run: %v\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "reused=1") {
		t.Fatalf("summary:\n%s", stdout.String())
	}
}

func TestRunCompileFailureExitsOne(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "glslangValidator")
	src := filepath.Join(dir, "shaders")
	out := filepath.Join(dir, "shaders.dat")
	mustWrite(t, bin, fakeGLSLang, 0o755)
	mustWrite(t, filepath.Join(src, "ok.frag.glsl"), "void main(){}", 0o644)
	mustWrite(t, filepath.Join(src, "bad.vert.glsl"), "#error nope\n", 0o644)

	args := []string{"--pack", "--compiler", bin, "--work-dir", dir, "-o", out, src}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	var ee *exitError
	if !errors.As(err, &ee) || ee.Code != 1 {
		t.Fatalf("want exit code 1, got %v", err)
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Fatalf("diagnostic not logged:\n%s", stderr.String())
	}
	bins, err := bundle.ReadFile(out, bundle.FormatB)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if len(bins) != 1 || bins["ok.frag"] == nil {
		t.Fatalf("bundle entries: %v", bins)
	}
}

func mustWrite(t *testing.T, path, body string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), perm); err != nil {
		t.Fatal(err)
	}
}
