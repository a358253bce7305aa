// Package charset is the opaque byte-transcoder the rest of the engine
// treats as an external collaborator (spec §1): it converts bytes
// between named charsets and recommends a content-transfer-encoding for
// a given charset. The conversion logic itself is not part of the mail
// engine's core; it is a thin adapter over golang.org/x/text, grounded
// on the teacher's own charset-reader closure in
// third_party/imf/addr.go.
package charset

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"

	"vmime.dev/vmime/message/codec"
)

// Backend converts bytes between an IANA charset name and UTF-8.
type Backend interface {
	// Encoding returns an encoding.Encoding capable of decoding name, or
	// nil if name is unrecognized.
	Encoding(name string) encoding.Encoding
}

// Default is the process-wide default Backend, built the same way the
// teacher's mimeDecoder.CharsetReader resolves charsets: via
// golang.org/x/text/encoding/ianaindex, with a couple of manual aliases
// ianaindex doesn't carry (e.g. "gb2312").
var Default Backend = textBackend{}

type textBackend struct{}

func (textBackend) Encoding(name string) encoding.Encoding {
	if enc, err := ianaindex.MIME.Encoding(name); err == nil && enc != nil {
		return enc
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc
	}
	switch name {
	case "gb2312":
		return simplifiedchinese.HZGB2312
	case "gbk":
		return simplifiedchinese.GBK
	}
	return nil
}

// Convert transcodes b from srcCharset to dstCharset using backend (or
// charset.Default if backend is nil). If srcCharset or dstCharset is
// unrecognized, b is returned unchanged alongside an error so callers
// can decide whether to proceed best-effort or fail.
func Convert(backend Backend, b []byte, srcCharset, dstCharset string) ([]byte, error) {
	if backend == nil {
		backend = Default
	}
	if equalFold(srcCharset, dstCharset) {
		return b, nil
	}

	var utf8 []byte
	if equalFold(srcCharset, "utf-8") || equalFold(srcCharset, "us-ascii") {
		utf8 = b
	} else {
		srcEnc := backend.Encoding(srcCharset)
		if srcEnc == nil {
			return b, fmt.Errorf("charset: unknown source charset %q", srcCharset)
		}
		out, err := srcEnc.NewDecoder().Bytes(b)
		if err != nil {
			return b, fmt.Errorf("charset: decode from %q: %w", srcCharset, err)
		}
		utf8 = out
	}

	if equalFold(dstCharset, "utf-8") {
		return utf8, nil
	}
	dstEnc := backend.Encoding(dstCharset)
	if dstEnc == nil {
		return b, fmt.Errorf("charset: unknown destination charset %q", dstCharset)
	}
	out, err := dstEnc.NewEncoder().Bytes(utf8)
	if err != nil {
		return b, fmt.Errorf("charset: encode to %q: %w", dstCharset, err)
	}
	return out, nil
}

// Reader wraps r, transcoding bytes read through it from srcCharset to
// UTF-8.
func Reader(backend Backend, r io.Reader, srcCharset string) io.Reader {
	if backend == nil {
		backend = Default
	}
	if equalFold(srcCharset, "utf-8") || equalFold(srcCharset, "us-ascii") {
		return r
	}
	enc := backend.Encoding(srcCharset)
	if enc == nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}

func equalFold(a, b string) bool { return bytes.EqualFold([]byte(a), []byte(b)) }

// RecommendedEncoding returns the content-transfer-encoding the spec
// recommends for charsetName (spec §3: "UTF-8 ⇒ QP; some East-Asian
// charsets ⇒ Base64"), or "" if there is no specific recommendation (the
// caller should fall back to its own ASCII/7-bit analysis).
func RecommendedEncoding(charsetName string) codec.Name {
	switch normalize(charsetName) {
	case "utf-8", "iso-8859-1", "iso-8859-15", "windows-1252":
		return codec.QuotedPrintable
	case "gb2312", "gbk", "big5", "shift_jis", "euc-jp", "euc-kr", "iso-2022-jp":
		return codec.Base64Name
	default:
		return ""
	}
}

func normalize(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
