package message

import (
	"strings"

	"vmime.dev/vmime/message/codec"
)

// Encoding is a parsed Content-Transfer-Encoding value. It wraps
// codec.Name so header fields can carry an encoding without importing
// the codec package's Codec/Registry machinery directly.
type Encoding struct {
	Name codec.Name
}

// ParseEncoding normalizes s (case-insensitively, trimming whitespace)
// into an Encoding.
func ParseEncoding(s string) Encoding {
	return Encoding{Name: codec.Normalize(strings.ToLower(strings.TrimSpace(s)))}
}

func (e Encoding) String() string { return string(e.Name) }

// IsIdentity reports whether e requires no transfer decoding (7bit,
// 8bit, or binary).
func (e Encoding) IsIdentity() bool {
	switch e.Name {
	case codec.SevenBit, codec.EightBit, codec.Binary, "":
		return true
	default:
		return false
	}
}

// EncodingSevenBit, EncodingEightBit and EncodingBinary are the three
// identity transfer encodings (spec.md §3).
var (
	EncodingSevenBit = Encoding{Name: codec.SevenBit}
	EncodingEightBit = Encoding{Name: codec.EightBit}
	EncodingBinary   = Encoding{Name: codec.Binary}
	EncodingBase64   = Encoding{Name: codec.Base64Name}
	EncodingQP       = Encoding{Name: codec.QuotedPrintable}
	EncodingUUEncode = Encoding{Name: codec.UUEncodeName}
)
