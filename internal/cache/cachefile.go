package cache

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"shaderpack/internal/fsutil"
	"shaderpack/internal/sortutil"
)

// DefaultFileName is the cache file name used when none is configured.
const DefaultFileName = "shaderCache.dat"

// ErrMalformedCache reports a truncated or corrupt cache file.
var ErrMalformedCache = errors.New("malformed cache file")

// Decode reads a cache file:
//
//	repeat until EOF:
//	  name:   UTF-8 bytes, NUL-terminated
//	  digest: 32 raw bytes (SHA-256)
//
// The returned map holds lowercase hex digests. A repeated name keeps the
// last record. EOF anywhere but at a record boundary is ErrMalformedCache.
func Decode(r io.Reader) (map[string]string, error) {
	br := bufio.NewReader(r)
	out := make(map[string]string)
	var digest [DigestSize]byte
	for {
		key, err := br.ReadBytes(0)
		if err == io.EOF {
			if len(key) == 0 {
				return out, nil
			}
			return nil, fmt.Errorf("%w: truncated name %q", ErrMalformedCache, key)
		}
		if err != nil {
			return nil, err
		}
		name := string(key[:len(key)-1])
		if _, err := io.ReadFull(br, digest[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: truncated digest for %q", ErrMalformedCache, name)
			}
			return nil, err
		}
		out[name] = hex.EncodeToString(digest[:])
	}
}

// Encode writes entries in the Decode layout, sorted by name so that the same
// shader set always produces the same bytes.
func Encode(w io.Writer, entries map[string]string) error {
	for _, name := range sortutil.SortedKeys(entries) {
		raw, err := hex.DecodeString(entries[name])
		if err != nil || len(raw) != DigestSize {
			return fmt.Errorf("cache entry %q: invalid digest %q", name, entries[name])
		}
		for i := 0; i < len(name); i++ {
			if name[i] == 0 {
				return fmt.Errorf("cache entry %q: name contains NUL", name)
			}
		}
		if _, err := io.WriteString(w, name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
		if _, err := w.Write(raw); err != nil {
			return err
		}
	}
	return nil
}

// ReadCacheFile loads the cache file at path. A missing file yields an empty
// map. A corrupt file yields ErrMalformedCache; callers are expected to
// continue with an empty map. Other read failures are returned as is.
func ReadCacheFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteCacheFile atomically replaces the cache file at path with entries.
func WriteCacheFile(path string, entries map[string]string) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, entries)
	})
}
