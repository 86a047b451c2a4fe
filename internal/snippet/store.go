// Package snippet holds the reusable source fragments that shaders pull in
// with #include. The store is built once per run and is read-only afterwards.
package snippet

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"shaderpack/internal/shader"
	"shaderpack/internal/textutil"
	"shaderpack/internal/walkwalk"
)

// ErrSnippetNotFound is returned by Lookup for a name with no snippet.
var ErrSnippetNotFound = errors.New("snippet not found")

// ErrDuplicateSnippet is returned by NewStore when two snippets share a name.
var ErrDuplicateSnippet = errors.New("duplicate snippet")

// Store is an immutable, name-sorted set of snippets.
type Store struct {
	names []string
	texts []string
}

// NewStore sorts a copy of snippets by name. Names must be unique.
func NewStore(snippets []shader.Snippet) (*Store, error) {
	sorted := make([]shader.Snippet, len(snippets))
	copy(sorted, snippets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	s := &Store{
		names: make([]string, len(sorted)),
		texts: make([]string, len(sorted)),
	}
	for i, sn := range sorted {
		if i > 0 && sn.Name == sorted[i-1].Name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSnippet, sn.Name)
		}
		s.names[i] = sn.Name
		s.texts[i] = sn.Text
	}
	return s, nil
}

// Load reads every snippet file and builds a Store from them.
func Load(files []walkwalk.FileInfo) (*Store, error) {
	snippets := make([]shader.Snippet, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("load snippet %q: %w", f.Name, err)
		}
		snippets = append(snippets, shader.Snippet{Name: f.Name, Text: textutil.SourceText(b)})
	}
	return NewStore(snippets)
}

// Find binary-searches for name. It returns the snippet's position and true
// on a hit; on a miss it returns the insertion point and false. The found
// entry is compared against name, so a neighbour is never reported as a hit.
func (s *Store) Find(name string) (int, bool) {
	i := sort.SearchStrings(s.names, name)
	return i, i < len(s.names) && s.names[i] == name
}

// Lookup returns the text of the named snippet.
func (s *Store) Lookup(name string) (string, error) {
	i, ok := s.Find(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSnippetNotFound, name)
	}
	return s.texts[i], nil
}

// Len returns the number of snippets.
func (s *Store) Len() int { return len(s.names) }

// Names returns the snippet names in ascending order.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
