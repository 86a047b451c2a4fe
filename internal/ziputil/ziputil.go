// Package ziputil writes reproducible ZIP archives: sorted entries, fixed
// timestamps and sanitized paths, so the same input always yields the same
// bytes.
package ziputil

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"shaderpack/internal/fsutil"
	"shaderpack/internal/sortutil"
)

// FixedZipTime ensures byte-for-byte reproducible archives (1980-01-01 UTC).
var FixedZipTime = time.Unix(315532800, 0).UTC()

// SanitizePath normalizes ZIP entry paths (forward slashes, no drive, no leading '/'),
// and removes '.' and '..' segments without escaping the root.
func SanitizePath(p string) string {
	s := filepath.ToSlash(p)
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
			continue
		}
		stack = append(stack, part)
	}
	s = strings.Join(stack, "/")
	if s == "" {
		return "entry"
	}
	return s
}

// WriteText writes raw text (bytes) entry with fixed timestamp.
func WriteText(zw *zip.Writer, name string, data []byte) error {
	h := &zip.FileHeader{Name: SanitizePath(name), Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = FixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteArchive atomically writes a ZIP at path holding files, entries sorted
// by name.
func WriteArchive(path string, files map[string][]byte) error {
	names := sortutil.SortedKeys(files)
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, n := range names {
			if err := WriteText(zw, n, files[n]); err != nil {
				_ = zw.Close()
				return err
			}
		}
		return zw.Close()
	})
}
