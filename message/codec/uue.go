package codec

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// UU implements the (historic but still occasionally seen)
// "x-uuencode" content-transfer-encoding: Encode prepends
// "begin <mode> <filename>\r\n", encodes each 45-byte chunk of input as
// a length byte followed by 4-chars-per-3-bytes groups, and appends
// "end\r\n". Decode parses the begin/end sentinels back out and reports
// the recovered mode and filename through Result.
type UU struct {
	Mode     string // e.g. "644"; default "644"
	Filename string // default "no_name"

	// MaxLineLength is clamped to [1,46]; zero means 46 (45 data bytes
	// plus the length byte).
	MaxLineLength int

	// Result is filled in by Decode with the mode/filename recovered
	// from the "begin" line.
	Result UUResult
}

// UUResult carries the filename/mode extracted by Decode.
type UUResult struct {
	Mode     string
	Filename string
}

func (c *UU) Name() Name { return UUEncodeName }

func (c *UU) lineLength() int {
	n := c.MaxLineLength
	if n <= 0 || n > 46 {
		n = 46
	}
	return n
}

func (c *UU) EncodedSize(decodedLen int64) int64 {
	lineData := int64(c.lineLength() - 1)
	if lineData <= 0 {
		lineData = 45
	}
	lines := (decodedLen + lineData - 1) / lineData
	mode, filename := c.Mode, c.Filename
	if mode == "" {
		mode = "644"
	}
	if filename == "" {
		filename = "no_name"
	}
	begin := int64(len("begin " + mode + " " + filename + "\r\n"))
	// Each line: length byte, 4 chars per started 3-byte group, CRLF.
	return begin + (decodedLen+2*lines)/3*4 + lines*3 + int64(len("`\r\nend\r\n"))
}

func (c *UU) DecodedSize(encodedLen int64) int64 { return encodedLen }

func uuencodeByte(c byte) byte { return (c & 0x3f) + ' ' }

func uudecodeByte(c byte) byte { return (c - ' ') & 0x3f }

func (c *UU) Encode(w io.Writer, r io.Reader, progress Progress) (int64, error) {
	mode := c.Mode
	if mode == "" {
		mode = "644"
	}
	filename := c.Filename
	if filename == "" {
		filename = "no_name"
	}

	var written int64
	n, err := io.WriteString(w, "begin "+mode+" "+filename+"\r\n")
	written += int64(n)
	if err != nil {
		return written, err
	}

	lineData := c.lineLength() - 1
	if lineData <= 0 {
		lineData = 45
	}

	buf := make([]byte, lineData)
	var total int64
	for {
		nr, rerr := io.ReadFull(r, buf)
		if nr > 0 {
			line := make([]byte, 0, 1+((nr+2)/3)*4+2)
			line = append(line, uuencodeByte(byte(nr)))
			for i := 0; i < nr; i += 3 {
				var b0, b1, b2 byte
				b0 = buf[i]
				if i+1 < nr {
					b1 = buf[i+1]
				}
				if i+2 < nr {
					b2 = buf[i+2]
				}
				line = append(line,
					uuencodeByte(b0>>2),
					uuencodeByte(((b0<<4)&0x30)|((b1>>4)&0x0f)),
					uuencodeByte(((b1<<2)&0x3c)|((b2>>6)&0x03)),
					uuencodeByte(b2&0x3f),
				)
			}
			line = append(line, '\r', '\n')
			nw, werr := w.Write(line)
			written += int64(nw)
			total += int64(nr)
			if progress != nil {
				progress.Progress(total, total)
			}
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			return written, rerr
		}
	}

	n, err = io.WriteString(w, "`\r\nend\r\n")
	written += int64(n)
	return written, err
}

func (c *UU) Decode(w io.Writer, r io.Reader, progress Progress) (int64, error) {
	br := bufio.NewReader(r)
	var written int64
	var total int64

	// Find the "begin" sentinel, tolerating leading blank/garbage lines.
	for {
		line, err := readLineTolerant(br)
		if err != nil {
			return written, nil // no "begin" found: nothing to decode
		}
		if strings.HasPrefix(line, "begin") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				c.Result.Mode = fields[1]
			}
			if len(fields) >= 3 {
				c.Result.Filename = fields[2]
			}
			break
		}
	}

	for {
		line, err := readLineTolerant(br)
		if err != nil {
			break // missing trailing newline/"end": tolerate and stop
		}
		if line == "end" || line == "`" {
			break
		}
		if line == "" {
			continue
		}
		n := int(uudecodeByte(line[0]))
		data := line[1:]
		out := make([]byte, 0, n)
		for i := 0; i+3 < len(data) && len(out) < n; i += 4 {
			c0 := uudecodeByte(data[i])
			c1 := uudecodeByte(data[i+1])
			c2 := uudecodeByte(data[i+2])
			c3 := uudecodeByte(data[i+3])
			out = append(out, c0<<2|c1>>4, c1<<4|c2>>2, c2<<6|c3)
		}
		if len(out) > n {
			out = out[:n]
		}
		nw, werr := w.Write(out)
		written += int64(nw)
		total += int64(len(out))
		if progress != nil {
			progress.Progress(total, total)
		}
		if werr != nil {
			return written, werr
		}
	}
	return written, nil
}

// readLineTolerant reads a single line without the trailing CR/LF,
// returning io.EOF only once no data at all was read (so a final line
// missing its newline is still returned).
func readLineTolerant(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	return string(bytes.TrimRight([]byte(line), "\r\n")), nil
}
