package textutil

import "bytes"

// NormalizeUTF8LF converts CRLF to LF and ensures the output is valid UTF-8
// by replacing invalid byte sequences with the Unicode replacement character.
func NormalizeUTF8LF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("\uFFFD"))
}

// SourceText returns file contents as the pipeline sees them: LF newlines,
// valid UTF-8. Digests are computed over this form so that a checkout with
// CRLF line endings hashes the same as one with LF.
func SourceText(b []byte) string {
	return string(NormalizeUTF8LF(b))
}
