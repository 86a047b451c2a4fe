package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := map[string]string{
		"tri.vert":  Digest("a"),
		"blur.frag": Digest("b"),
		"ünï.comp":  Digest("c"),
	}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// 3 records, each name + NUL + 32 bytes.
	want := len("tri.vert") + len("blur.frag") + len("ünï.comp") + 3*(1+DigestSize)
	if buf.Len() != want {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), want)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d entries", len(out))
	}
	for k, v := range in {
		if out[k] != v {
			t.Fatalf("entry %s: got %s want %s", k, out[k], v)
		}
	}
}

func TestEncodeSortedByName(t *testing.T) {
	var a, b bytes.Buffer
	m := map[string]string{"b": Digest("1"), "a": Digest("2"), "c": Digest("3")}
	if err := Encode(&a, m); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&b, m); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("encoding not deterministic")
	}
	if a.Bytes()[0] != 'a' {
		t.Fatalf("first record should be %q, got %q", "a", a.Bytes()[0])
	}
}

func TestEncodeRejectsBadDigest(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, map[string]string{"x": "zz"}); err == nil {
		t.Fatalf("expected invalid digest error")
	}
}

func TestDecodeEmpty(t *testing.T) {
	m, err := Decode(bytes.NewReader(nil))
	if err != nil || len(m) != 0 {
		t.Fatalf("empty input: %v %v", m, err)
	}
}

func TestDecodeLastRecordWins(t *testing.T) {
	var buf bytes.Buffer
	first, second := DigestBytes("one"), DigestBytes("two")
	buf.WriteString("dup\x00")
	buf.Write(first[:])
	buf.WriteString("dup\x00")
	buf.Write(second[:])
	m, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m["dup"] != Digest("two") {
		t.Fatalf("last record must win")
	}
}

func TestDecodeTruncated(t *testing.T) {
	d := DigestBytes("x")
	cases := map[string][]byte{
		"eof after NUL":     []byte("name\x00"),
		"short digest":      append([]byte("name\x00"), d[:10]...),
		"eof inside name":   []byte("nam"),
		"second rec broken": append(append([]byte("a\x00"), d[:]...), []byte("b\x00\x01")...),
	}
	for label, data := range cases {
		if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrMalformedCache) {
			t.Fatalf("%s: expected ErrMalformedCache, got %v", label, err)
		}
	}
}

func TestReadCacheFileMissing(t *testing.T) {
	m, err := ReadCacheFile(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil || len(m) != 0 {
		t.Fatalf("missing file must yield empty map: %v %v", m, err)
	}
}

func TestWriteAndReadCacheFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", DefaultFileName)
	in := map[string]string{"tri.vert": Digest("t")}
	if err := WriteCacheFile(p, in); err != nil {
		t.Fatalf("WriteCacheFile: %v", err)
	}
	out, err := ReadCacheFile(p)
	if err != nil {
		t.Fatalf("ReadCacheFile: %v", err)
	}
	if out["tri.vert"] != in["tri.vert"] {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestReadCacheFileMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(p, []byte("tri.vert\x00abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCacheFile(p); !errors.Is(err, ErrMalformedCache) {
		t.Fatalf("expected ErrMalformedCache, got %v", err)
	}
}
