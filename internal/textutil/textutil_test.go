package textutil

import "testing"

func TestNormalizeUTF8LF(t *testing.T) {
	got := string(NormalizeUTF8LF([]byte("a\r\nb\rc\n")))
	if got != "a\nb\nc\n" {
		t.Fatalf("newlines not normalised: %q", got)
	}
	got = string(NormalizeUTF8LF([]byte{'x', 0xff, 'y'}))
	if got != "x\uFFFDy" {
		t.Fatalf("invalid utf-8 not replaced: %q", got)
	}
}

func TestSourceTextStableAcrossLineEndings(t *testing.T) {
	if SourceText([]byte("void main(){}\r\n")) != SourceText([]byte("void main(){}\n")) {
		t.Fatalf("CRLF and LF sources must be identical after normalisation")
	}
}
