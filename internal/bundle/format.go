// Package bundle reads and writes the packaged shader container.
//
// Layout (all integers little-endian):
//
//	directory, one record per shader in ascending name order:
//	  length: uint (Format.LengthBytes wide), > 0
//	  name:   UTF-8 bytes, NUL-terminated
//	sentinel:
//	  length: 0
//	payloads, in directory order, back to back:
//	  binary: exactly length bytes
//
// Format A uses a 4-byte length and is produced by the caching build; Format
// B uses a 3-byte length and is produced by the cache-free pack build.
package bundle

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultFileName is the bundle file name used when none is configured.
const DefaultFileName = "shaders.dat"

var (
	// ErrMalformedBundle reports a truncated or corrupt bundle.
	ErrMalformedBundle = errors.New("malformed bundle")
	// ErrEntryTooLarge reports a binary whose length does not fit the format.
	ErrEntryTooLarge = errors.New("binary too large for bundle format")
	// ErrEmptyEntry reports a zero-length binary, which would read back as
	// the directory sentinel.
	ErrEmptyEntry = errors.New("empty binary")
	// ErrInvalidName reports a name that cannot be stored NUL-terminated.
	ErrInvalidName = errors.New("invalid entry name")
)

// Format is a directory-record encoding.
type Format struct {
	Name        string
	LengthBytes int
}

var (
	// FormatA stores lengths as uint32.
	FormatA = Format{Name: "a", LengthBytes: 4}
	// FormatB stores lengths as uint24.
	FormatB = Format{Name: "b", LengthBytes: 3}
)

// ParseFormat accepts "a"/"b" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return FormatA, nil
	case "b":
		return FormatB, nil
	}
	return Format{}, fmt.Errorf("unknown bundle format %q (want a or b)", s)
}

func (f Format) String() string { return "format " + strings.ToUpper(f.Name) }

// MaxLen is the largest binary length the format can record.
func (f Format) MaxLen() uint64 { return 1<<(8*uint(f.LengthBytes)) - 1 }

func (f Format) putLen(buf []byte, n uint64) {
	for i := 0; i < f.LengthBytes; i++ {
		buf[i] = byte(n >> (8 * uint(i)))
	}
}

func (f Format) getLen(buf []byte) uint64 {
	var n uint64
	for i := 0; i < f.LengthBytes; i++ {
		n |= uint64(buf[i]) << (8 * uint(i))
	}
	return n
}
