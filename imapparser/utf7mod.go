package imapparser

// Modified UTF-7, RFC 3501 section 5.1.3, based on the original UTF-7
// of RFC 2152: mailbox names travel over the wire in this encoding
// and DecodeMailboxName/EncodeMailboxName convert to and from a plain
// Go string.
//
// There are several MUST requirements in the grammar that are relaxed
// on decode: there are no good options when faced with malformed
// UTF-7 from a server, so decoding makes do as best it can rather than
// failing the whole response.

import (
	"bytes"
	"encoding/base64"
	"errors"
	"unicode/utf16"
	"unicode/utf8"
)

var errInvalidUTF7 = errors.New("imapparser: invalid modified UTF-7")

const modUTF7Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,"

// modUTF7 uses a modified base64, described as: "modified BASE64, with
// a further modification from [UTF-7] that ',' is used instead of
// '/'."
var modUTF7 = base64.NewEncoding(modUTF7Alphabet).WithPadding(base64.NoPadding)

// DecodeMailboxName decodes s from modified UTF-7 to a plain string.
// If s is not valid modified UTF-7, it is returned unchanged (mailbox
// names are used for display and comparison, not round-tripped
// byte-for-byte, so failing outright would only make a client less
// useful against a slightly noncompliant server).
func DecodeMailboxName(s string) string {
	dst, err := appendDecodeUTF7([]byte(nil), []byte(s))
	if err != nil {
		return s
	}
	return string(dst)
}

// EncodeMailboxName encodes s to modified UTF-7 for use on the wire.
func EncodeMailboxName(s string) string {
	dst, _ := appendEncodeUTF7([]byte(nil), []byte(s))
	return string(dst)
}

func appendDecodeUTF7(dst, src []byte) ([]byte, error) {
	for len(src) > 0 {
		c := src[0]
		src = src[1:]
		if c != '&' {
			dst = append(dst, c)
			continue
		}
		i := bytes.IndexByte(src, '-')
		if i == -1 {
			return nil, errInvalidUTF7
		}
		if i == 0 {
			src = src[1:]
			dst = append(dst, '&')
			continue
		}
		scratch := make([]byte, modUTF7.DecodedLen(i))
		n, err := modUTF7.Decode(scratch, src[:i])
		src = src[i+1:]
		if err != nil {
			return nil, err
		}
		scratch = scratch[:n]
		if len(scratch)%2 == 1 {
			return nil, errInvalidUTF7
		}
		for len(scratch) > 0 {
			r := rune(scratch[0])<<8 | rune(scratch[1])
			scratch = scratch[2:]
			if utf16.IsSurrogate(r) {
				if len(scratch) == 0 {
					return nil, errInvalidUTF7
				}
				r2 := rune(scratch[0])<<8 | rune(scratch[1])
				scratch = scratch[2:]
				r = utf16.DecodeRune(r, r2)
			}
			dst = appendRuneUTF8(dst, r)
		}
	}
	return dst, nil
}

func appendRuneUTF8(slice []byte, c rune) []byte {
	var b [4]byte
	return append(slice, b[:utf8.EncodeRune(b[:], c)]...)
}

func appendEncodeUTF7(dst, src []byte) ([]byte, error) {
	for len(src) > 0 {
		r, sz := utf8.DecodeRune(src)
		if r == '&' {
			dst = append(dst, '&', '-')
			src = src[1:]
			continue
		} else if r < utf8.RuneSelf {
			dst = append(dst, byte(r))
			src = src[sz:]
			continue
		}

		scratch := make([]byte, 0, 64)
		for len(src) > 0 {
			r, sz := utf8.DecodeRune(src)
			if r < utf8.RuneSelf {
				break
			}
			src = src[sz:]
			if r1, r2 := utf16.EncodeRune(r); r1 != '\uFFFD' {
				scratch = append(scratch, byte(r1>>8), byte(r1))
				r = r2
			}
			scratch = append(scratch, byte(r>>8), byte(r))
		}

		n := modUTF7.EncodedLen(len(scratch))
		dst = append(dst, '&')
		dst = append(dst, make([]byte, n)...)
		modUTF7.Encode(dst[len(dst)-n:], scratch)
		dst = append(dst, '-')
	}
	return dst, nil
}
