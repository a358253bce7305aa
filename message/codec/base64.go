package codec

import "io"

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64DecodeTable [256]int8

func init() {
	for i := range base64DecodeTable {
		base64DecodeTable[i] = -1
	}
	for i, c := range base64Alphabet {
		base64DecodeTable[c] = int8(i)
	}
}

// Base64 implements RFC 2045 §6.8 Base64 content-transfer-encoding.
//
// Encoding works in chunks of 3 input bytes producing 4 output
// characters, line-folded with bare CRLF at MaxLineLength (a hard
// ceiling of 76 regardless of what is requested, per spec §4.1).
// Decoding ignores any whitespace between groups of four, stops at the
// first '=' padding character, and tolerates a truncated final group by
// writing the 1 or 2 bytes it can still recover.
type Base64 struct {
	// MaxLineLength is clamped to [1,76]; zero means 76.
	MaxLineLength int
}

func (c *Base64) Name() Name { return Base64Name }

func (c *Base64) lineLength() int {
	n := c.MaxLineLength
	if n <= 0 || n > 76 {
		n = 76
	}
	return n
}

func (c *Base64) EncodedSize(decodedLen int64) int64 {
	groups := (decodedLen + 2) / 3
	raw := groups * 4
	lineLen := int64(c.lineLength())
	if lineLen <= 0 {
		return raw
	}
	lines := (raw + lineLen - 1) / lineLen
	return raw + lines*2 // CRLF per line
}

func (c *Base64) DecodedSize(encodedLen int64) int64 {
	return (encodedLen/4 + 1) * 3
}

func (c *Base64) Encode(w io.Writer, r io.Reader, progress Progress) (int64, error) {
	var written int64
	var col int
	lineLen := c.lineLength()

	emit := func(p []byte) error {
		for len(p) > 0 {
			room := lineLen - col
			if room <= 0 {
				if _, err := w.Write(crlf); err != nil {
					return err
				}
				col = 0
				room = lineLen
			}
			n := len(p)
			if n > room {
				n = room
			}
			nw, err := w.Write(p[:n])
			written += int64(nw)
			col += nw
			if err != nil {
				return err
			}
			p = p[n:]
		}
		return nil
	}

	var buf [3]byte
	var out [4]byte
	var total int64
	for {
		n, err := io.ReadFull(r, buf[:])
		if n > 0 {
			encodeGroup(buf[:n], &out)
			if werr := emit(out[:4]); werr != nil {
				return written, werr
			}
			total += int64(n)
			if progress != nil {
				progress.Progress(total, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return written, err
		}
	}
	if col > 0 {
		if _, err := w.Write(crlf); err != nil {
			return written, err
		}
	}
	return written, nil
}

func encodeGroup(in []byte, out *[4]byte) {
	var b0, b1, b2 byte
	b0 = in[0]
	if len(in) > 1 {
		b1 = in[1]
	}
	if len(in) > 2 {
		b2 = in[2]
	}
	out[0] = base64Alphabet[b0>>2]
	out[1] = base64Alphabet[(b0&0x03)<<4|(b1>>4)]
	switch len(in) {
	case 1:
		out[2] = '='
		out[3] = '='
	case 2:
		out[2] = base64Alphabet[(b1&0x0f)<<2]
		out[3] = '='
	default:
		out[2] = base64Alphabet[(b1&0x0f)<<2|(b2>>6)]
		out[3] = base64Alphabet[b2&0x3f]
	}
}

func (c *Base64) Decode(w io.Writer, r io.Reader, progress Progress) (int64, error) {
	var written int64
	var quad [4]byte
	var have int
	var total int64

	buf := make([]byte, 4096)
	done := false
	for !done {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			b := buf[i]
			if b == '=' {
				done = true
				break
			}
			v := base64DecodeTable[b]
			if v < 0 {
				continue // ignore whitespace and any other stray byte
			}
			quad[have] = byte(v)
			have++
			if have == 4 {
				var out [3]byte
				out[0] = quad[0]<<2 | quad[1]>>4
				out[1] = quad[1]<<4 | quad[2]>>2
				out[2] = quad[2]<<6 | quad[3]
				nw, werr := w.Write(out[:3])
				written += int64(nw)
				total += 3
				if progress != nil {
					progress.Progress(total, total)
				}
				if werr != nil {
					return written, werr
				}
				have = 0
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}
		if done {
			break
		}
	}

	// Truncated final group: write the 1 or 2 decodable leading bytes.
	if have == 2 {
		out := quad[0]<<2 | quad[1]>>4
		nw, err := w.Write([]byte{out})
		written += int64(nw)
		if err != nil {
			return written, err
		}
	} else if have == 3 {
		var out [2]byte
		out[0] = quad[0]<<2 | quad[1]>>4
		out[1] = quad[1]<<4 | quad[2]>>2
		nw, err := w.Write(out[:2])
		written += int64(nw)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

var crlf = []byte{'\r', '\n'}
