package bundle

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"shaderpack/internal/fsutil"
	"shaderpack/internal/shader"
)

// Check reports whether e can be stored in format f.
func Check(f Format, e shader.Entry) error {
	if e.Name == "" || strings.IndexByte(e.Name, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
	}
	if len(e.Binary) == 0 {
		return fmt.Errorf("%s: %w", e.Name, ErrEmptyEntry)
	}
	if uint64(len(e.Binary)) > f.MaxLen() {
		return fmt.Errorf("%s: %w (%d > %d bytes, %s)", e.Name, ErrEntryTooLarge, len(e.Binary), f.MaxLen(), f)
	}
	return nil
}

// Write serializes entries in ascending name order. The caller's slice is
// not reordered. Duplicate names are rejected.
func Write(w io.Writer, f Format, entries []shader.Entry) error {
	sorted := make([]shader.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	lenBuf := make([]byte, f.LengthBytes)
	for i, e := range sorted {
		if err := Check(f, e); err != nil {
			return err
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidName, e.Name)
		}
		f.putLen(lenBuf, uint64(len(e.Binary)))
		if _, err := w.Write(lenBuf); err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	f.putLen(lenBuf, 0)
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	for _, e := range sorted {
		if _, err := w.Write(e.Binary); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile atomically replaces the bundle at path.
func WriteFile(path string, f Format, entries []shader.Entry) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return Write(w, f, entries)
	})
}

// Size returns the number of bytes Write produces for entries.
func Size(f Format, entries []shader.Entry) int64 {
	n := int64(f.LengthBytes) // sentinel
	for _, e := range entries {
		n += int64(f.LengthBytes) + int64(len(e.Name)) + 1 + int64(len(e.Binary))
	}
	return n
}
