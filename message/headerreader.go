package message

import (
	"bufio"
	"bytes"
	"io"

	"vmime.dev/vmime/vmimeerr"
)

// ReadHeader reads a MIME-style header (a sequence of possibly-folded
// "Key: Value" lines terminated by a blank line) from r, grounded on
// the teacher's third_party/imf/reader.go Reader.ReadMIMEHeader,
// adapted to leave field values as raw (still RFC-2047-encoded) bytes:
// decoding is message/field's job, done lazily per field kind, rather
// than eagerly for every header regardless of whether it's read.
func ReadHeader(r *bufio.Reader, ctx *ParsingContext) (*Header, error) {
	h := &Header{Index: make(map[Key][][]byte)}

	if buf, err := r.Peek(1); err == nil && (buf[0] == ' ' || buf[0] == '\t') {
		line, _ := readLineSlice(r)
		if ctx.strict() {
			return h, vmimeerr.Malformed("initial line starts with folding whitespace: " + string(line))
		}
		// Lenient mode: treat it as an unkeyed continuation of nothing,
		// i.e. skip it, matching spec §3's "degrade gracefully" posture.
	}

	var buf []byte
	for {
		kv, err := readContinuedLineSlice(r, &buf)
		if len(kv) == 0 {
			return h, passEOF(err)
		}

		i := bytes.IndexByte(kv, ':')
		if i < 0 {
			if ctx.strict() {
				return h, vmimeerr.Malformed("no colon in line: " + string(kv))
			}
			continue
		}
		endKey := i
		for endKey > 0 && kv[endKey-1] == ' ' {
			endKey--
		}
		key := CanonicalKey(kv[:endKey])
		if key == "" {
			continue
		}

		vi := i + 1
		for vi < len(kv) && (kv[vi] == ' ' || kv[vi] == '\t') {
			vi++
		}
		value := append([]byte(nil), kv[vi:]...)

		h.Entries = append(h.Entries, HeaderEntry{Key: key, Value: value})
		h.Index[key] = append(h.Index[key], value)
	}
}

func passEOF(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

func readLineSlice(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		l, more, err := r.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == nil && !more {
			return l, nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	return line, nil
}

// readContinuedLineSlice reads one logical (already-unfolded) header
// line: RFC 5322 §2.2.3 folding-whitespace continuations are joined
// with a single space.
func readContinuedLineSlice(r *bufio.Reader, buf *[]byte) ([]byte, error) {
	line, err := readLineSlice(r)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return line, nil
	}

	if r.Buffered() > 1 {
		peek, err := r.Peek(1)
		if err == nil && isASCIILetter(peek[0]) {
			return trimTrailingSpace(line), nil
		}
	}

	*buf = append((*buf)[:0], trimTrailingSpace(line)...)
	for skipSpace(r) > 0 {
		cont, err := readLineSlice(r)
		if err != nil {
			break
		}
		*buf = append(*buf, ' ')
		*buf = append(*buf, trimTrailingSpace(cont)...)
	}
	return *buf, nil
}

func skipSpace(r *bufio.Reader) int {
	n := 0
	for {
		c, err := r.ReadByte()
		if err != nil {
			break
		}
		if c != ' ' && c != '\t' {
			r.UnreadByte()
			break
		}
		n++
	}
	return n
}

func trimTrailingSpace(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func isASCIILetter(b byte) bool {
	b |= 0x20
	return 'a' <= b && b <= 'z'
}
