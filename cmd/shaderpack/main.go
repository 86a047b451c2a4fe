// Package main provides the shaderpack CLI that compiles a tree of GLSL (and
// WGSL) shader sources into a single binary bundle.
//
// Modes:
//   - COMPILE (default): shaderpack [flags] <src_dir>
//     incremental build, Format A bundle plus a cache file
//   - PACK: shaderpack --pack [flags] <src_dir>
//     full rebuild, Format B bundle, no cache
//
// Settings may also come from an HCL file (--config); flags given on the
// command line win over the file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"shaderpack/internal/bundle"
	"shaderpack/internal/cache"
	"shaderpack/internal/compiler"
	"shaderpack/internal/config"
	"shaderpack/internal/ctxlog"
	"shaderpack/internal/pipeline"
	"shaderpack/internal/report"
)

const (
	modeCompile = "compile"
	modePack    = "pack"
)

// Config is the parsed command line.
type Config struct {
	srcDir       string
	out          string
	cachePath    string
	configPath   string
	pack         bool
	compilerBin  string
	compilerArgs []string
	workDir      string
	exclude      []string
	maxFileBytes int64
	reset        bool
	explain      bool
	storeSources bool
	blobDir      string
	dumpResolved string
	logLevel     string
	logFormat    string

	// changed records flags given explicitly on the command line.
	changed map[string]bool
}

// exitError carries the process exit code for a failed run.
type exitError struct {
	Code    int
	Message string
}

func (e *exitError) Error() string { return e.Message }

func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("shaderpack", pflag.ContinueOnError)
	fs.SortFlags = false

	// Outputs & mode
	fs.StringVarP(&cfg.out, "out", "o", bundle.DefaultFileName, "path to the output bundle")
	fs.StringVar(&cfg.cachePath, "cache", cache.DefaultFileName, "path to the cache file (compile mode)")
	fs.BoolVar(&cfg.pack, "pack", false, "write a Format B bundle, compile everything, no cache")
	fs.StringVarP(&cfg.configPath, "config", "c", "", "HCL build file")

	// Compiler
	fs.StringVar(&cfg.compilerBin, "compiler", "glslangValidator", "glslangValidator binary")
	fs.StringArrayVar(&cfg.compilerArgs, "compiler-arg", compiler.DefaultGLSLangArgs,
		"argument passed to the compiler before the input file (repeatable)")
	fs.StringVar(&cfg.workDir, "work-dir", "", "directory for temporary compiler files (default OS temp)")

	// Walking
	fs.StringSliceVar(&cfg.exclude, "exclude", nil, "comma-separated dir/file prefixes to exclude")
	fs.Int64Var(&cfg.maxFileBytes, "max-file-bytes", 2_000_000, "max bytes per source file (0 = no limit)")

	// Cache & diffs
	fs.BoolVar(&cfg.reset, "new", false, "ignore the cache file and previous bundle for this run")
	fs.BoolVar(&cfg.explain, "explain", false, "print why each shader is recompiled, with a source diff")
	fs.BoolVar(&cfg.storeSources, "store-sources", false, "store resolved sources as content-addressed blobs")
	fs.StringVar(&cfg.blobDir, "blob-dir", "", "base directory for the blob store (default tmp/.shadercache)")
	fs.StringVar(&cfg.dumpResolved, "dump-resolved", "", "write every resolved shader source into this zip")

	// Logging
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "log format: text or json")
	return fs
}

// parseFlags parses args (without the program name).
func parseFlags(args []string) (Config, error) {
	var cfg Config
	fs := newFlagSet(&cfg)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.changed = map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { cfg.changed[f.Name] = true })
	switch fs.NArg() {
	case 0:
		cfg.srcDir = "shaders"
	case 1:
		cfg.srcDir = filepath.Clean(fs.Arg(0))
		cfg.changed["src_dir"] = true
	default:
		return cfg, fmt.Errorf("expected at most one <src_dir>, got %d", fs.NArg())
	}
	if _, ok := ctxlog.ParseLevel(cfg.logLevel); !ok {
		return cfg, fmt.Errorf("invalid --log-level %q", cfg.logLevel)
	}
	if f := strings.ToLower(cfg.logFormat); f != "text" && f != "json" {
		return cfg, fmt.Errorf("invalid --log-format %q", cfg.logFormat)
	}
	return cfg, nil
}

// selectMode picks compile or pack and rejects flags that only make sense in
// the other mode.
func selectMode(cfg Config) (string, error) {
	if !cfg.pack {
		return modeCompile, nil
	}
	var conflicts []string
	for _, name := range []string{"cache", "new", "explain"} {
		if cfg.changed[name] {
			conflicts = append(conflicts, "--"+name)
		}
	}
	if len(conflicts) > 0 {
		return "", fmt.Errorf("%s cannot be used with --pack", strings.Join(conflicts, ", "))
	}
	return modePack, nil
}

// applyFile fills settings the command line left unset from the build file.
func applyFile(cfg *Config, f *config.File) {
	set := func(flag string, dst *string, v *string) {
		if v != nil && !cfg.changed[flag] {
			*dst = *v
		}
	}
	if f.Source != nil && !cfg.changed["src_dir"] {
		cfg.srcDir = filepath.Clean(*f.Source)
	}
	set("out", &cfg.out, f.Output)
	set("cache", &cfg.cachePath, f.Cache)
	set("work-dir", &cfg.workDir, f.WorkDir)
	if f.Format != nil && !cfg.changed["pack"] {
		cfg.pack = strings.EqualFold(*f.Format, "b")
	}
	if f.Exclude != nil && !cfg.changed["exclude"] {
		cfg.exclude = f.Exclude
	}
	if c := f.Compiler; c != nil {
		set("compiler", &cfg.compilerBin, c.Bin)
		if c.Args != nil && !cfg.changed["compiler-arg"] {
			cfg.compilerArgs = c.Args
		}
	}
}

func usage(w io.Writer) {
	var cfg Config
	fs := newFlagSet(&cfg)
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  COMPILE : shaderpack [flags] [<src_dir>]\n")
	fmt.Fprintf(w, "  PACK    : shaderpack --pack [flags] [<src_dir>]\n")
	fmt.Fprintln(w, "  <src_dir> defaults to ./shaders")
	fmt.Fprintln(w, "\nFlags:")
	fmt.Fprint(w, fs.FlagUsages())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.Message != "" {
				fmt.Fprintln(os.Stderr, "ERROR:", ee.Message)
			}
			os.Exit(ee.Code)
		}
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

// run executes one CLI invocation. The returned error is an *exitError.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		usage(stdout)
		return nil
	}
	if err != nil {
		usage(stderr)
		return &exitError{Code: 2, Message: err.Error()}
	}
	if cfg.configPath != "" {
		f, err := config.Load(cfg.configPath, os.Environ())
		if err != nil {
			return &exitError{Code: 2, Message: err.Error()}
		}
		applyFile(&cfg, f)
	}
	mode, err := selectMode(cfg)
	if err != nil {
		return &exitError{Code: 2, Message: err.Error()}
	}

	logger := ctxlog.New(cfg.logLevel, cfg.logFormat, stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	glsl := compiler.NewGLSLang()
	glsl.Bin = cfg.compilerBin
	glsl.Args = cfg.compilerArgs
	glsl.WorkDir = cfg.workDir
	backend := compiler.Router{GLSL: glsl, WGSL: compiler.NewNaga()}

	p := pipeline.New(pipeline.Options{
		SourceDir:    cfg.srcDir,
		Exclude:      cfg.exclude,
		MaxFileBytes: cfg.maxFileBytes,
		BundlePath:   cfg.out,
		CachePath:    cfg.cachePath,
		Reset:        cfg.reset,
		StoreSources: cfg.storeSources,
		Explain:      cfg.explain,
		ExplainOut:   stdout,
		BlobDir:      cfg.blobDir,
		DumpResolved: cfg.dumpResolved,
	}, backend)

	logger.Debug("Starting build", "mode", mode, "src", cfg.srcDir, "out", cfg.out)
	var res pipeline.Result
	if mode == modePack {
		res, err = p.Pack(ctx)
	} else {
		res, err = p.Compile(ctx)
	}

	var be *pipeline.BuildError
	if err != nil && !errors.As(err, &be) {
		return &exitError{Code: 1, Message: err.Error()}
	}
	fmt.Fprint(stdout, report.Render(report.Summary{
		Bundle:   res.Bundle,
		Format:   res.Format.String(),
		Bytes:    res.Bytes,
		Reused:   len(res.Reused),
		Compiled: len(res.Compiled),
		Failed:   res.Failed,
	}))
	if be != nil {
		return &exitError{Code: 1, Message: be.Error()}
	}
	return nil
}
