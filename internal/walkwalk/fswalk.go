// Package walkwalk provides a deterministic, filterable filesystem walker
// that discovers shader sources and classifies them by file suffix.
//
// Classification:
//   - "<name>.vert.glsl", "<name>.frag.glsl", "<name>.comp.glsl" are shaders
//     (likewise for .wgsl); the shader name keeps the stage suffix ("tri.vert").
//   - any other ".glsl"/".wgsl" file is a snippet named after its base name
//     without the extension ("common.glsl" -> "common").
//
// Shaders and snippets are returned sorted ascending by name, independently.
// Two files mapping to the same name within one namespace fail the walk.
package walkwalk

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"shaderpack/internal/shader"
)

// ErrDuplicateName reports two source files that map to the same shader or
// snippet name.
var ErrDuplicateName = errors.New("duplicate source name")

// FileInfo is a minimal, deterministic descriptor of a collected source file.
type FileInfo struct {
	Name     string          // file name without the language extension
	RelPath  string          // source-relative path with forward slashes
	AbsPath  string          // absolute filesystem path
	Size     int64           // size in bytes
	Stage    shader.Stage    // StageNone for snippets
	Language shader.Language // GLSL or WGSL
}

// IsShader reports whether the file is a stage-tagged compilation unit.
func (f FileInfo) IsShader() bool { return f.Stage != shader.StageNone }

// Sources is the classified result of a walk.
type Sources struct {
	Shaders  []FileInfo
	Snippets []FileInfo
}

type walkerConfig struct {
	src            string
	exclude        map[string]struct{}
	maxFileBytes   int64
	followSymlinks bool
}

type walkState struct {
	cfg     walkerConfig
	root    string
	sources Sources
}

// CollectSources walks src and returns its classified shader sources.
// Entries whose base name matches (or starts with) an exclude key are skipped.
// Files larger than maxFileBytes are rejected (0 = no limit).
func CollectSources(
	src string,
	exclude map[string]struct{},
	maxFileBytes int64,
	followSymlinks bool,
) (Sources, error) {
	cfg := walkerConfig{
		src:            src,
		exclude:        exclude,
		maxFileBytes:   maxFileBytes,
		followSymlinks: followSymlinks,
	}
	root, err := filepath.Abs(cfg.src)
	if err != nil {
		return Sources{}, err
	}
	state := &walkState{cfg: cfg, root: root}
	if err := filepath.WalkDir(root, state.visit); err != nil {
		return Sources{}, err
	}
	out := state.sources
	sortByName(out.Shaders)
	sortByName(out.Snippets)
	if err := checkUnique("shader", out.Shaders); err != nil {
		return Sources{}, err
	}
	if err := checkUnique("snippet", out.Snippets); err != nil {
		return Sources{}, err
	}
	return out, nil
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return fmt.Errorf("walk %s: %w", path, err)
	}
	rel, ok := ws.relative(path)
	if !ok {
		return nil
	}
	if rel != "." && ws.shouldSkip(rel) {
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.IsDir() {
		return ws.handleDir(rel, d)
	}
	return ws.handleFile(path, rel, d)
}

func (ws *walkState) relative(path string) (string, bool) {
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", false
	}
	return rel, true
}

func (ws *walkState) shouldSkip(rel string) bool {
	base := filepath.Base(rel)
	if _, bad := ws.cfg.exclude[base]; bad {
		return true
	}
	return hasExcludedPrefix(base, ws.cfg.exclude)
}

func (ws *walkState) handleDir(rel string, d fs.DirEntry) error {
	if rel != "." && !ws.cfg.followSymlinks && isSymlink(d) {
		return filepath.SkipDir
	}
	return nil
}

func (ws *walkState) handleFile(path, rel string, d fs.DirEntry) error {
	if !ws.cfg.followSymlinks && isSymlink(d) {
		return nil
	}
	fi, ok := Classify(d.Name())
	if !ok {
		return nil
	}
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() && !isSymlink(d) {
		return nil
	}
	if ws.cfg.maxFileBytes > 0 && info.Size() > ws.cfg.maxFileBytes {
		return fmt.Errorf("%s: %d bytes exceeds the %d byte source limit", rel, info.Size(), ws.cfg.maxFileBytes)
	}
	fi.RelPath = rel
	fi.AbsPath = path
	fi.Size = info.Size()
	if fi.IsShader() {
		ws.sources.Shaders = append(ws.sources.Shaders, fi)
	} else {
		ws.sources.Snippets = append(ws.sources.Snippets, fi)
	}
	return nil
}

// Classify derives name, stage and language from a file's base name.
// It returns false for files that are not shader sources.
func Classify(base string) (FileInfo, bool) {
	ext := filepath.Ext(base)
	lang, ok := shader.LanguageFromExt(ext)
	if !ok {
		return FileInfo{}, false
	}
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		return FileInfo{}, false
	}
	return FileInfo{
		Name:     name,
		Stage:    shader.StageFromName(name),
		Language: lang,
	}, true
}

func sortByName(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].Name == files[j].Name {
			return files[i].RelPath < files[j].RelPath
		}
		return files[i].Name < files[j].Name
	})
}

// checkUnique expects files sorted by name and reports every repeated name.
func checkUnique(kind string, files []FileInfo) error {
	var dups []string
	for i := 1; i < len(files); i++ {
		if files[i].Name == files[i-1].Name {
			dups = append(dups, fmt.Sprintf("%s %q: %s and %s", kind, files[i].Name, files[i-1].RelPath, files[i].RelPath))
		}
	}
	if len(dups) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDuplicateName, strings.Join(dups, "; "))
}

// isSymlink reports whether the DirEntry is a symlink (file or directory).
func isSymlink(d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}

// hasExcludedPrefix reports whether base begins with any of the exclude keys.
// This allows skipping "build*", "drafts*", etc., while still permitting
// exact-match excludes via the map membership check.
func hasExcludedPrefix(base string, exclude map[string]struct{}) bool {
	for k := range exclude {
		if k != "" && strings.HasPrefix(base, k) {
			return true
		}
	}
	return false
}
