package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shaderpack/internal/fsutil"
)

// Blob store layout for resolved sources:
//
//	<baseTmp>/<pathKey>/blobs/aa/bb/<digest>
//
// pathKey is derived from the absolute source directory so several shader
// trees can share one base directory.
const (
	defaultBlobRoot = "tmp/.shadercache"
	blobsDirName    = "blobs"
)

// PathKey returns a short, stable identifier for an absolute project path.
// We use sha256(absPath) and keep the first 12 hex chars to avoid collisions.
func PathKey(abs string) string {
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:12]
}

// BlobDir resolves the blob directory for the given absolute source path.
// If baseTmp is empty, it falls back to "tmp/.shadercache".
func BlobDir(baseTmp, srcAbs string) string {
	root := baseTmp
	if root == "" {
		root = defaultBlobRoot
	}
	return filepath.Join(root, PathKey(srcAbs))
}

// Clear removes the entire blob directory for the project.
// Safe to call even if the directory does not exist.
func Clear(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(dir)
}

// SaveBlob stores data under <dir>/blobs/aa/bb/<hash>.
// If the blob already exists, the call is a no-op.
//
// hash must be a lowercase hex string (the resolved-source digest). The
// function validates and normalizes the storage path but does not recompute
// the hash.
func SaveBlob(dir, hash string, r io.Reader) error {
	if !isHex(hash) || len(hash) < 6 {
		return errors.New("invalid hash for blob storage")
	}
	p := blobPath(dir, hash)
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	return fsutil.WriteAtomic(p, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

// ReadBlob loads a blob by content hash from <dir>/blobs/aa/bb/<hash>.
func ReadBlob(dir, hash string) ([]byte, error) {
	if !isHex(hash) || len(hash) < 6 {
		return nil, errors.New("invalid hash for blob read")
	}
	return os.ReadFile(blobPath(dir, hash))
}

// HasBlob checks for the existence of a content-addressed blob.
func HasBlob(dir, hash string) bool {
	if !isHex(hash) || len(hash) < 6 {
		return false
	}
	_, err := os.Stat(blobPath(dir, hash))
	return err == nil
}

// blobPath returns the canonical path for a content-addressed blob.
func blobPath(dir, hash string) string {
	h := strings.ToLower(hash)
	return filepath.Join(dir, blobsDirName, h[:2], h[2:4], h)
}

// isHex checks if s is a lowercase hex string.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
