// Package include expands #include <name> directives in shader sources.
//
// Each snippet is expanded at most once per shader: the first directive for a
// name is replaced by the snippet's (recursively resolved) text and every
// later directive for the same name, at any depth, is replaced by nothing.
// The same guard makes cyclic snippet graphs terminate.
package include

import (
	"fmt"
	"regexp"
	"strings"
)

// directiveRe matches "#include <name>". The name is any run of characters
// other than '>' and newline.
var directiveRe = regexp.MustCompile(`#include <([^>\n]*)>`)

// LookupFunc returns the raw text of a snippet.
type LookupFunc func(name string) (string, error)

// Resolve returns raw with every include directive expanded. The returned
// text contains no include directives. A failed lookup aborts resolution.
func Resolve(raw string, lookup LookupFunc) (string, error) {
	r := &resolver{lookup: lookup, included: make(map[string]struct{})}
	return r.expand(raw)
}

// Directives lists the snippet names referenced directly by text, in order of
// appearance, without resolving them.
func Directives(text string) []string {
	matches := directiveRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

type resolver struct {
	lookup   LookupFunc
	included map[string]struct{}
}

func (r *resolver) expand(text string) (string, error) {
	locs := directiveRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		b.WriteString(text[last:loc[0]])
		last = loc[1]

		name := text[loc[2]:loc[3]]
		if _, seen := r.included[name]; seen {
			continue
		}
		r.included[name] = struct{}{}

		body, err := r.lookup(name)
		if err != nil {
			return "", fmt.Errorf("include <%s>: %w", name, err)
		}
		expanded, err := r.expand(body)
		if err != nil {
			return "", fmt.Errorf("in <%s>: %w", name, err)
		}
		b.WriteString(expanded)
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
