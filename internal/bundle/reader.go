package bundle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"shaderpack/internal/shader"
)

type dirRecord struct {
	name   string
	length uint64
}

// Read parses a bundle written in format f and returns its entries in
// directory order. Bytes after the last payload are ignored.
func Read(r io.Reader, f Format) ([]shader.Entry, error) {
	br := bufio.NewReader(r)
	dir, err := readDirectory(br, f)
	if err != nil {
		return nil, err
	}
	out := make([]shader.Entry, 0, len(dir))
	for _, rec := range dir {
		// A corrupt length must not force a huge up-front allocation.
		bin, err := io.ReadAll(io.LimitReader(br, int64(rec.length)))
		if err != nil {
			return nil, err
		}
		if uint64(len(bin)) != rec.length {
			return nil, truncated(io.ErrUnexpectedEOF, "payload of %q", rec.name)
		}
		out = append(out, shader.Entry{Name: rec.name, Binary: bin})
	}
	return out, nil
}

func readDirectory(br *bufio.Reader, f Format) ([]dirRecord, error) {
	var dir []dirRecord
	lenBuf := make([]byte, f.LengthBytes)
	for {
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return nil, truncated(err, "directory length")
		}
		n := f.getLen(lenBuf)
		if n == 0 {
			return dir, nil
		}
		name, err := br.ReadString(0)
		if err != nil {
			return nil, truncated(err, "directory name")
		}
		dir = append(dir, dirRecord{name: name[:len(name)-1], length: n})
	}
}

func truncated(err error, format string, args ...any) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: truncated %s", ErrMalformedBundle, fmt.Sprintf(format, args...))
	}
	return err
}

// ReadFile loads the bundle at path as a name -> binary map. A missing file
// yields an empty map. A corrupt file yields ErrMalformedBundle; callers are
// expected to continue with an empty map.
func ReadFile(path string, f Format) (map[string][]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]byte{}, nil
		}
		return nil, err
	}
	defer fh.Close()
	entries, err := Read(fh, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Binary
	}
	return out, nil
}
