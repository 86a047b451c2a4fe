// Package shader defines the build-time model shared by every stage of the
// shader pipeline: snippets, stage-tagged shaders and the (name, binary)
// entries that end up in a bundle.
package shader

import "strings"

// Stage identifies the pipeline stage a shader is compiled for.
type Stage int

const (
	// StageNone marks a source file that is not a compilation unit (a snippet).
	StageNone Stage = iota
	Vertex
	Fragment
	Compute
)

var stageTags = [...]string{StageNone: "", Vertex: "vert", Fragment: "frag", Compute: "comp"}

// Tag returns the short stage tag understood by glslangValidator's -S flag.
func (s Stage) Tag() string {
	if s < 0 || int(s) >= len(stageTags) {
		return ""
	}
	return stageTags[s]
}

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	case Compute:
		return "compute"
	default:
		return "none"
	}
}

// ParseStage maps a stage tag (vert, frag, comp) to a Stage.
func ParseStage(tag string) (Stage, bool) {
	for i, t := range stageTags {
		if t != "" && t == tag {
			return Stage(i), true
		}
	}
	return StageNone, false
}

// StageFromName derives the stage from the last dotted component of a
// source name: "tri.vert" is a vertex shader, "common" is a snippet.
func StageFromName(name string) Stage {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return StageNone
	}
	st, _ := ParseStage(name[i+1:])
	return st
}

// Language is the source language of a file.
type Language int

const (
	GLSL Language = iota
	WGSL
)

func (l Language) String() string {
	if l == WGSL {
		return "wgsl"
	}
	return "glsl"
}

// Ext returns the file extension, including the dot, for the language.
func (l Language) Ext() string { return "." + l.String() }

// LanguageFromExt maps ".glsl" / ".wgsl" (case-insensitive) to a Language.
func LanguageFromExt(ext string) (Language, bool) {
	switch strings.ToLower(ext) {
	case ".glsl":
		return GLSL, true
	case ".wgsl":
		return WGSL, true
	}
	return GLSL, false
}

// Snippet is a reusable source fragment included by name. It is never
// compiled on its own.
type Snippet struct {
	Name string
	Text string
}

// Shader is a single compilation unit. ResolvedText and Digest are filled in
// once by include resolution; Binary is set exactly once, either by reuse of
// a previous build or by a fresh compile.
type Shader struct {
	Name       string
	SourcePath string
	Stage      Stage
	Language   Language

	RawText      string
	ResolvedText string
	Digest       string // lowercase hex sha256 of ResolvedText

	Binary []byte
}

// Resolved reports whether include resolution has run for the shader.
func (s *Shader) Resolved() bool { return s.Digest != "" }

// Entry is one (name, binary) pair of a bundle.
type Entry struct {
	Name   string
	Binary []byte
}
