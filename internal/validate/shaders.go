// Package validate performs lightweight, dependency-free validation of the
// shader set before it is built and packaged.
//
// Goals:
//   - Aggregate multiple issues into a single error for better UX
//   - Catch problems that would otherwise surface as a corrupt bundle
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"shaderpack/internal/bundle"
	"shaderpack/internal/shader"
)

var sha256HexRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Shaders validates the discovered shader set:
//
//   - Name must be non-empty and must not contain a NUL byte (bundle and
//     cache records are NUL-terminated).
//   - Names must be unique and in ascending order.
//   - Stage must be vertex, fragment or compute.
//   - Digest, if present, must be a 64-char lowercase hex (sha256).
//
// The function returns nil if everything looks fine, or a single aggregated
// error describing all the issues found.
func Shaders(shaders []*shader.Shader) error {
	var errs errlist
	for i, s := range shaders {
		prefix := fmt.Sprintf("shaders[%d] (%s)", i, s.SourcePath)
		if s.Name == "" {
			errs.add("%s: name must be non-empty", prefix)
		}
		if strings.IndexByte(s.Name, 0) >= 0 {
			errs.add("%s: name %q contains a NUL byte", prefix, s.Name)
		}
		if i > 0 {
			prev := shaders[i-1].Name
			switch {
			case prev == s.Name:
				errs.add("%s: duplicate name %q", prefix, s.Name)
			case prev > s.Name:
				errs.add("%s: %q sorts before %q", prefix, s.Name, prev)
			}
		}
		if s.Stage.Tag() == "" {
			errs.add("%s: %q has no stage", prefix, s.Name)
		}
		if s.Digest != "" && !sha256HexRe.MatchString(s.Digest) {
			errs.add("%s: digest %q is not a lowercase sha256 hex", prefix, s.Digest)
		}
	}
	return errs.err()
}

// Entries checks that every entry can be stored in format f.
func Entries(f bundle.Format, entries []shader.Entry) error {
	var errs errlist
	for _, e := range entries {
		if err := bundle.Check(f, e); err != nil {
			errs.add("%v", err)
		}
	}
	return errs.err()
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	// Join with newline for readability.
	return errors.New(strings.Join(e.msgs, "\n"))
}
