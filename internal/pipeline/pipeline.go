// Package pipeline runs one build: discover sources, resolve includes, hash,
// reuse or compile, then write the bundle (and, in compile mode, the cache).
//
// All state lives in a Run and dies with it. The only state carried between
// runs is on disk: the cache file and the previous bundle.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shaderpack/internal/bundle"
	"shaderpack/internal/cache"
	"shaderpack/internal/compiler"
	"shaderpack/internal/ctxlog"
	"shaderpack/internal/diff"
	"shaderpack/internal/include"
	"shaderpack/internal/shader"
	"shaderpack/internal/snippet"
	"shaderpack/internal/textutil"
	"shaderpack/internal/validate"
	"shaderpack/internal/walkwalk"
	"shaderpack/internal/ziputil"
)

// Options configures a Run.
type Options struct {
	SourceDir    string
	Exclude      []string // base names or prefixes skipped during discovery
	MaxFileBytes int64    // 0 = no limit
	BundlePath   string
	CachePath    string // compile mode only
	Reset        bool   // ignore the cache file and previous bundle

	// Resolved-source blob store. BlobDir is the base directory; "" uses
	// the default under tmp/.
	StoreSources bool
	Explain      bool
	ExplainOut   io.Writer
	BlobDir      string

	DumpResolved string // zip path; "" disables
}

// Result describes what a run produced.
type Result struct {
	Bundle   string
	Format   bundle.Format
	Bytes    int64
	Entries  []shader.Entry
	Reused   []string
	Compiled []string
	Failed   []string
}

// Run is a single pipeline execution.
type Run struct {
	opts     Options
	compiler compiler.Compiler
}

// New returns a Run that compiles with c.
func New(opts Options, c compiler.Compiler) *Run {
	if opts.BundlePath == "" {
		opts.BundlePath = bundle.DefaultFileName
	}
	if opts.CachePath == "" {
		opts.CachePath = cache.DefaultFileName
	}
	if opts.ExplainOut == nil {
		opts.ExplainOut = io.Discard
	}
	return &Run{opts: opts, compiler: c}
}

// Compile is the incremental build: Format A bundle plus cache file.
// Shaders whose digest matches the cache and whose binary is still in the
// previous bundle are reused without invoking the compiler.
func (r *Run) Compile(ctx context.Context) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	res := Result{Bundle: r.opts.BundlePath, Format: bundle.FormatA}

	shaders, store, err := r.discover(ctx)
	if err != nil {
		return res, err
	}
	blobDir, err := r.blobDir()
	if err != nil {
		return res, err
	}
	if r.opts.Reset && blobDir != "" {
		if err := cache.Clear(blobDir); err != nil {
			return res, fmt.Errorf("failed to clear blob store: %w", err)
		}
	}
	prevDigests, prevBinaries, err := r.previousState(ctx)
	if err != nil {
		return res, err
	}
	c := cache.New(prevDigests, prevBinaries)

	var failures []*ShaderError
	for _, s := range shaders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := resolve(s, store); err != nil {
			failures = append(failures, r.fail(ctx, s, err))
			continue
		}
		bin, reason := c.Lookup(s.Name, s.Digest)
		if reason == cache.ReasonReused {
			s.Binary = bin
			res.Reused = append(res.Reused, s.Name)
			logger.Info("Reused", "shader", s.Name)
		} else {
			logger.Debug("Recompiling", "shader", s.Name, "reason", string(reason))
			if r.opts.Explain {
				r.explain(ctx, c, s, reason, blobDir)
			}
			if err := r.compileOne(ctx, s, bundle.FormatA); err != nil {
				failures = append(failures, r.fail(ctx, s, err))
				continue
			}
			res.Compiled = append(res.Compiled, s.Name)
		}
		c.Record(s.Name, s.Digest)
		if blobDir != "" {
			if err := cache.SaveBlob(blobDir, s.Digest, strings.NewReader(s.ResolvedText)); err != nil {
				logger.Warn("Failed to store resolved source", "shader", s.Name, "error", err)
			}
		}
	}

	if err := r.writeOutputs(ctx, &res, shaders); err != nil {
		return res, err
	}
	if err := cache.WriteCacheFile(r.opts.CachePath, c.Entries()); err != nil {
		return res, fmt.Errorf("failed to write cache %s: %w", r.opts.CachePath, err)
	}
	logger.Debug("Wrote cache", "path", r.opts.CachePath, "entries", len(c.Entries()))
	return res, buildError(&res, failures)
}

// Pack is the cache-free build: every shader is compiled and the result is
// written as a Format B bundle. No previous state is read or written.
func (r *Run) Pack(ctx context.Context) (Result, error) {
	res := Result{Bundle: r.opts.BundlePath, Format: bundle.FormatB}

	shaders, store, err := r.discover(ctx)
	if err != nil {
		return res, err
	}
	var failures []*ShaderError
	for _, s := range shaders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := resolve(s, store); err != nil {
			failures = append(failures, r.fail(ctx, s, err))
			continue
		}
		if err := r.compileOne(ctx, s, bundle.FormatB); err != nil {
			failures = append(failures, r.fail(ctx, s, err))
			continue
		}
		res.Compiled = append(res.Compiled, s.Name)
	}
	if err := r.writeOutputs(ctx, &res, shaders); err != nil {
		return res, err
	}
	return res, buildError(&res, failures)
}

// discover walks the source tree, loads snippets and reads every shader.
func (r *Run) discover(ctx context.Context) ([]*shader.Shader, *snippet.Store, error) {
	logger := ctxlog.FromContext(ctx)
	exclude := make(map[string]struct{}, len(r.opts.Exclude))
	for _, e := range r.opts.Exclude {
		exclude[e] = struct{}{}
	}
	src, err := walkwalk.CollectSources(r.opts.SourceDir, exclude, r.opts.MaxFileBytes, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to collect sources in %s: %w", r.opts.SourceDir, err)
	}
	store, err := snippet.Load(src.Snippets)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered sources", "dir", r.opts.SourceDir, "shaders", len(src.Shaders), "snippets", store.Len())

	shaders := make([]*shader.Shader, 0, len(src.Shaders))
	for _, f := range src.Shaders {
		b, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read shader %s: %w", f.RelPath, err)
		}
		shaders = append(shaders, &shader.Shader{
			Name:       f.Name,
			SourcePath: f.RelPath,
			Stage:      f.Stage,
			Language:   f.Language,
			RawText:    textutil.SourceText(b),
		})
	}
	if err := validate.Shaders(shaders); err != nil {
		return nil, nil, fmt.Errorf("invalid shader set:\n%w", err)
	}
	return shaders, store, nil
}

// previousState loads the cache file and previous bundle. Malformed state is
// discarded with a warning; only I/O errors are fatal.
func (r *Run) previousState(ctx context.Context) (map[string]string, map[string][]byte, error) {
	logger := ctxlog.FromContext(ctx)
	if r.opts.Reset {
		logger.Info("Ignoring previous cache and bundle")
		return nil, nil, nil
	}

	digests, err := cache.ReadCacheFile(r.opts.CachePath)
	switch {
	case errors.Is(err, cache.ErrMalformedCache):
		logger.Warn("Discarding malformed cache file", "path", r.opts.CachePath, "error", err)
		digests = nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to read cache %s: %w", r.opts.CachePath, err)
	}

	binaries, err := bundle.ReadFile(r.opts.BundlePath, bundle.FormatA)
	switch {
	case errors.Is(err, bundle.ErrMalformedBundle):
		logger.Warn("Discarding malformed previous bundle", "path", r.opts.BundlePath, "error", err)
		binaries = nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to read previous bundle %s: %w", r.opts.BundlePath, err)
	}
	return digests, binaries, nil
}

func resolve(s *shader.Shader, store *snippet.Store) error {
	text, err := include.Resolve(s.RawText, store.Lookup)
	if err != nil {
		return err
	}
	s.ResolvedText = text
	s.Digest = cache.Digest(text)
	return nil
}

func (r *Run) compileOne(ctx context.Context, s *shader.Shader, f bundle.Format) error {
	bin, err := r.compiler.Compile(ctx, compiler.Request{
		Name:     s.Name,
		Source:   s.ResolvedText,
		Stage:    s.Stage,
		Language: s.Language,
	})
	if err != nil {
		return err
	}
	if err := bundle.Check(f, shader.Entry{Name: s.Name, Binary: bin}); err != nil {
		return err
	}
	s.Binary = bin
	ctxlog.FromContext(ctx).Info("Compiled", "shader", s.Name, "bytes", len(bin))
	return nil
}

func (r *Run) fail(ctx context.Context, s *shader.Shader, err error) *ShaderError {
	attrs := []any{"shader", s.Name, "error", err}
	var ce *compiler.CompileError
	if errors.As(err, &ce) && ce.Diagnostic != "" {
		attrs = []any{"shader", s.Name, "error", ce.Err, "diagnostic", ce.Diagnostic}
	}
	ctxlog.FromContext(ctx).Error("Shader failed", attrs...)
	return &ShaderError{Shader: s.Name, Err: err}
}

// writeOutputs writes the bundle for every shader that has a binary and the
// optional resolved-source archive.
func (r *Run) writeOutputs(ctx context.Context, res *Result, shaders []*shader.Shader) error {
	logger := ctxlog.FromContext(ctx)
	entries := make([]shader.Entry, 0, len(shaders))
	for _, s := range shaders {
		if s.Binary != nil {
			entries = append(entries, shader.Entry{Name: s.Name, Binary: s.Binary})
		}
	}
	if err := validate.Entries(res.Format, entries); err != nil {
		return fmt.Errorf("bundle entries rejected:\n%w", err)
	}
	if err := bundle.WriteFile(r.opts.BundlePath, res.Format, entries); err != nil {
		return fmt.Errorf("failed to write bundle %s: %w", r.opts.BundlePath, err)
	}
	res.Entries = entries
	res.Bytes = bundle.Size(res.Format, entries)
	logger.Info("Wrote", "bundle", r.opts.BundlePath, "format", res.Format.String(), "shaders", len(entries), "bytes", res.Bytes)

	if r.opts.DumpResolved != "" {
		files := make(map[string][]byte, len(shaders))
		for _, s := range shaders {
			if s.Resolved() {
				files[s.Name+s.Language.Ext()] = []byte(s.ResolvedText)
			}
		}
		if err := ziputil.WriteArchive(r.opts.DumpResolved, files); err != nil {
			return fmt.Errorf("failed to dump resolved sources: %w", err)
		}
		logger.Debug("Dumped resolved sources", "path", r.opts.DumpResolved, "files", len(files))
	}
	return nil
}

func (r *Run) blobDir() (string, error) {
	if !r.opts.StoreSources && !r.opts.Explain {
		return "", nil
	}
	abs, err := filepath.Abs(r.opts.SourceDir)
	if err != nil {
		return "", err
	}
	return cache.BlobDir(r.opts.BlobDir, abs), nil
}

// explain writes why s is being recompiled and, when the previous resolved
// source is in the blob store, how it changed.
func (r *Run) explain(ctx context.Context, c *cache.Cache, s *shader.Shader, reason cache.Reason, blobDir string) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s: %s\n", s.Name, reason)

	opt := diff.Options{MaxBytes: 1 << 20}
	var body string
	if prev, ok := c.PreviousDigest(s.Name); ok && cache.HasBlob(blobDir, prev) {
		old, err := cache.ReadBlob(blobDir, prev)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to read previous source", "shader", s.Name, "error", err)
		}
		body, _ = diff.Unified("a/"+s.Name, "b/"+s.Name, old, []byte(s.ResolvedText), opt)
	} else {
		body, _ = diff.Added("b/"+s.Name, []byte(s.ResolvedText), opt)
	}
	buf.WriteString(body)
	_, _ = r.opts.ExplainOut.Write(buf.Bytes())
}

func buildError(res *Result, failures []*ShaderError) error {
	if len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		res.Failed = append(res.Failed, f.Shader)
	}
	return &BuildError{Failures: failures}
}
