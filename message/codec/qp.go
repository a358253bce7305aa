package codec

import (
	"bufio"
	"io"
)

// QPMode selects how Quoted-Printable treats CR and LF bytes.
type QPMode int

const (
	// QPText passes CR and LF through unchanged (suitable for text/*
	// bodies, where the transfer encoding should not disturb line
	// endings).
	QPText QPMode = iota
	// QPBinary hex-encodes CR and LF (required for content whose line
	// structure must survive byte-for-byte, e.g. non-text bodies).
	QPBinary
)

const hexDigits = "0123456789ABCDEF"

// QP implements RFC 2045 §6.7 Quoted-Printable, plus the RFC 2047
// encoded-word flavor (QP.RFC2047) used inside "=?charset?Q?...?=".
type QP struct {
	Mode QPMode

	// RFC2047, when true, encodes space as '_', requires '_' itself to
	// be hex-encoded, and disables the '.'-at-column-0 special case
	// (not needed inside an encoded-word).
	RFC2047 bool

	// MaxLineLength is clamped to [1,74]; zero means 74.
	MaxLineLength int
}

func (c *QP) Name() Name { return QuotedPrintable }

func (c *QP) lineLength() int {
	n := c.MaxLineLength
	if n <= 0 || n > 74 {
		n = 74
	}
	return n
}

// EncodedSize allows 3 output bytes per input byte plus one 3-byte soft
// line break ("=\r\n") per lineLength()-3 of those bytes, since a soft
// break is only inserted once a line holds at least that many.
func (c *QP) EncodedSize(decodedLen int64) int64 {
	body := decodedLen * 3
	perLine := int64(c.lineLength() - 3)
	if perLine < 1 {
		return body * 2
	}
	return body + body/perLine*3
}
func (c *QP) DecodedSize(encodedLen int64) int64 { return encodedLen }

func literalEligible(b byte) bool {
	return b >= 33 && b <= 126 && b != '=' && b != '?'
}

// Encode implements streaming Quoted-Printable encoding. It buffers at
// most one pending space/tab byte (to decide whether it falls immediately
// before a line ending, in which case it must be hex-encoded) so the
// transform still runs over an io.Reader without buffering the whole
// input.
func (c *QP) Encode(w io.Writer, r io.Reader, progress Progress) (int64, error) {
	br := bufio.NewReader(r)
	maxLine := c.lineLength()
	var written int64
	col := 0
	atLineStart := true

	softBreak := func() error {
		if _, err := w.Write([]byte{'=', '\r', '\n'}); err != nil {
			return err
		}
		col = 0
		atLineStart = true
		return nil
	}

	emitToken := func(tok []byte) error {
		if col+len(tok) > maxLine-1 {
			if err := softBreak(); err != nil {
				return err
			}
		}
		n, err := w.Write(tok)
		written += int64(n)
		col += n
		if len(tok) > 0 {
			atLineStart = false
		}
		return err
	}

	emitHex := func(b byte) error {
		return emitToken([]byte{'=', hexDigits[b>>4], hexDigits[b&0xf]})
	}

	emitLiteral := func(b byte) error {
		return emitToken([]byte{b})
	}

	emitNewline := func() error {
		if _, err := w.Write(crlf); err != nil {
			return err
		}
		col = 0
		atLineStart = true
		return nil
	}

	var total int64
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}
		total++
		if progress != nil {
			progress.Progress(total, total)
		}

		switch {
		case b == '\r' || b == '\n':
			// Consume a full CRLF or bare LF/CR as one line ending.
			if b == '\r' {
				if next, perr := br.Peek(1); perr == nil && next[0] == '\n' {
					br.ReadByte()
				}
			}
			if c.Mode == QPText {
				if err := emitNewline(); err != nil {
					return written, err
				}
			} else {
				if b == '\r' {
					if err := emitHex('\r'); err != nil {
						return written, err
					}
					if err := emitHex('\n'); err != nil {
						return written, err
					}
				} else {
					if err := emitHex('\n'); err != nil {
						return written, err
					}
				}
				atLineStart = false
			}

		case (b == ' ' || b == '\t') && !c.RFC2047:
			next, perr := br.Peek(1)
			atEOL := perr != nil || next[0] == '\r' || next[0] == '\n'
			if atEOL {
				if err := emitHex(b); err != nil {
					return written, err
				}
			} else {
				if err := emitLiteral(b); err != nil {
					return written, err
				}
			}

		case b == ' ' && c.RFC2047:
			if err := emitLiteral('_'); err != nil {
				return written, err
			}

		case b == '_' && c.RFC2047:
			if err := emitHex(b); err != nil {
				return written, err
			}

		case b == '.' && atLineStart && !c.RFC2047:
			if err := emitHex(b); err != nil {
				return written, err
			}

		case literalEligible(b):
			if err := emitLiteral(b); err != nil {
				return written, err
			}

		default:
			if err := emitHex(b); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	default:
		return 0, false
	}
}

// Decode reverses Encode: it honors soft line breaks ("=\r\n" and
// "=\n"), decodes "=XX" case-insensitively, and in RFC2047 mode maps '_'
// back to space. Malformed escapes (a lone trailing '=', or '=' not
// followed by two hex digits) are written through as literal text.
func (c *QP) Decode(w io.Writer, r io.Reader, progress Progress) (int64, error) {
	br := bufio.NewReader(r)
	var written int64
	var total int64

	write := func(p []byte) error {
		n, err := w.Write(p)
		written += int64(n)
		return err
	}

	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}
		total++
		if progress != nil {
			progress.Progress(total, total)
		}

		if b == '_' && c.RFC2047 {
			if err := write([]byte{' '}); err != nil {
				return written, err
			}
			continue
		}

		if b != '=' {
			if err := write([]byte{b}); err != nil {
				return written, err
			}
			continue
		}

		// '=' seen: soft break, hex escape, or malformed.
		peek, perr := br.Peek(2)
		switch {
		case perr == nil && peek[0] == '\r' && peek[1] == '\n':
			br.Discard(2)
			// soft break: nothing emitted
		case perr == nil && peek[0] == '\n':
			br.Discard(1)
			// lone "=\n" soft break
		case len(peek) >= 1 && peek[0] == '\n':
			br.Discard(1)
		default:
			if len(peek) < 2 {
				// Truncated at EOF: write '=' and whatever followed literally.
				if err := write([]byte{'='}); err != nil {
					return written, err
				}
				if len(peek) == 1 {
					br.Discard(1)
					if err := write(peek[:1]); err != nil {
						return written, err
					}
				}
				continue
			}
			hi, ok1 := hexVal(peek[0])
			lo, ok2 := hexVal(peek[1])
			if ok1 && ok2 {
				br.Discard(2)
				if err := write([]byte{byte(hi<<4 | lo)}); err != nil {
					return written, err
				}
			} else {
				// Not a valid escape: pass '=' through literally.
				if err := write([]byte{'='}); err != nil {
					return written, err
				}
			}
		}
	}
	return written, nil
}
