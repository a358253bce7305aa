package field

import (
	"vmime.dev/vmime/message/charset"
	"vmime.dev/vmime/message/encword"
)

// Text parses an "unstructured" header field value (Subject, Comments,
// ...): it is just RFC 2047 decoding applied to the raw bytes.
func Text(backend charset.Backend, s string) string {
	return encword.DecodeString(backend, s)
}

// EncodeText is the inverse of Text: it RFC 2047 encodes s if needed.
func EncodeText(backend charset.Backend, s string, maxLineLength int) (string, error) {
	return encword.Encode(backend, s, encword.EncodeOptions{MaxLineLength: maxLineLength})
}
