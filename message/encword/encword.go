// Package encword implements RFC 2047 "encoded word" encoding and
// decoding: the "=?charset?enc?data?=" syntax MIME uses to carry
// non-ASCII text in header fields. Decoding is grounded on the teacher's
// decodeRFC2047Word/mimeDecoder call sites in third_party/imf/addr.go;
// encoding (the teacher never needed to generate encoded words, only
// parse them) is grounded on the same RFC and the original VMime C++
// word-encoding pass the spec's scenario S3 exercises.
package encword

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"vmime.dev/vmime/message/charset"
	"vmime.dev/vmime/message/codec"
)

// Word is one decoded "=?charset?enc?data?=" token, or a run of literal
// text between encoded words.
type Word struct {
	Text    string
	Charset string // empty for a literal (non-encoded) run
	Lang    string // RFC 2231 "*language" tag, if present
}

// Encoded reports whether w came from an encoded-word token rather than
// literal text.
func (w Word) Encoded() bool { return w.Charset != "" }

// Decode parses s (an entire unstructured header field value, or
// phrase) into a sequence of Words, concatenating the text of adjacent
// encoded words that share encoding per RFC 2047 §2 ("white space
// between adjacent encoded words is ignored"). Malformed tokens are
// passed through as literal text: decoding never fails.
func Decode(backend charset.Backend, s string) []Word {
	var words []Word
	rest := s
	for len(rest) > 0 {
		start := strings.Index(rest, "=?")
		if start < 0 {
			words = appendLiteral(words, rest)
			break
		}
		if start > 0 {
			words = appendLiteral(words, rest[:start])
			rest = rest[start:]
		}

		tok, n := scanToken(rest)
		if n == 0 {
			// Not actually a well-formed encoded word; emit the "=?"
			// marker literally and keep scanning past it.
			words = appendLiteral(words, rest[:2])
			rest = rest[2:]
			continue
		}

		decodedCharset, decodedLang, text, ok := decodeToken(backend, tok)
		if !ok {
			words = appendLiteral(words, tok)
			rest = rest[n:]
			continue
		}

		// RFC 2047 §2: whitespace-only gaps between two encoded
		// words are swallowed entirely, even across charsets.
		if len(words) > 1 && !words[len(words)-1].Encoded() && strings.TrimSpace(words[len(words)-1].Text) == "" {
			words = words[:len(words)-1]
		}
		if len(words) > 0 {
			last := &words[len(words)-1]
			if last.Encoded() && last.Charset == decodedCharset && last.Lang == decodedLang {
				last.Text += text
				rest = rest[n:]
				continue
			}
		}
		words = append(words, Word{Text: text, Charset: decodedCharset, Lang: decodedLang})
		rest = rest[n:]
	}
	return words
}

// DecodeString is a convenience wrapper around Decode that concatenates
// every Word's Text, discarding charset/lang attribution.
func DecodeString(backend charset.Backend, s string) string {
	var b strings.Builder
	for _, w := range Decode(backend, s) {
		b.WriteString(w.Text)
	}
	return b.String()
}

func appendLiteral(words []Word, text string) []Word {
	if text == "" {
		return words
	}
	if len(words) > 0 && !words[len(words)-1].Encoded() {
		words[len(words)-1].Text += text
		return words
	}
	return append(words, Word{Text: text})
}

// scanToken returns the full "=?...?=" token starting at s[0:2]=="=?"
// and its byte length, or n==0 if s does not hold a syntactically
// complete token (three '?'-delimited fields terminated by "?=").
func scanToken(s string) (tok string, n int) {
	if !strings.HasPrefix(s, "=?") {
		return "", 0
	}
	rest := s[2:]
	i1 := strings.IndexByte(rest, '?')
	if i1 < 0 {
		return "", 0
	}
	i2 := strings.IndexByte(rest[i1+1:], '?')
	if i2 < 0 {
		return "", 0
	}
	i2 += i1 + 1
	end := strings.Index(rest[i2+1:], "?=")
	if end < 0 {
		return "", 0
	}
	end += i2 + 1
	total := 2 + end + 2
	return s[:total], total
}

func decodeToken(backend charset.Backend, tok string) (charsetName, lang, text string, ok bool) {
	body := tok[2 : len(tok)-2] // strip "=?" and "?="
	parts := strings.SplitN(body, "?", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	cs := parts[0]
	if i := strings.IndexByte(cs, '*'); i >= 0 {
		lang = cs[i+1:]
		cs = cs[:i]
	}
	enc := strings.ToUpper(parts[1])
	data := parts[2]

	var decoded []byte
	var err error
	switch enc {
	case "Q":
		decoded, err = decodeQ(data)
	case "B":
		decoded, err = decodeB(data)
	default:
		return "", "", "", false
	}
	if err != nil {
		return "", "", "", false
	}

	converted, cerr := charset.Convert(backend, decoded, cs, "utf-8")
	if cerr != nil {
		// Unknown charset: surface the raw bytes rather than dropping
		// the word, matching the teacher's "log and pass through"
		// CharsetReader fallback.
		converted = decoded
	}
	if !utf8.Valid(converted) {
		return "", "", "", false
	}
	return strings.ToLower(cs), lang, string(converted), true
}

func decodeQ(data string) ([]byte, error) {
	var buf bytes.Buffer
	q := &codec.QP{RFC2047: true}
	if _, err := q.Decode(&buf, strings.NewReader(data), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeB(data string) ([]byte, error) {
	var buf bytes.Buffer
	b := &codec.Base64{}
	if _, err := b.Decode(&buf, strings.NewReader(data), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Charset the text is recoded into before encoding. Defaults to
	// "utf-8".
	Charset string

	// MaxLineLength bounds the length of each encoded-word token; zero
	// means 76.
	MaxLineLength int

	// ForceEncoding, if non-zero, fixes the encoding (Q or B) instead
	// of letting Encode choose by ASCII-density heuristic.
	ForceEncoding byte // 'Q', 'B', or 0 for auto
}

// NeedsEncoding reports whether s contains a byte this package would
// have to RFC-2047-encode: any non-ASCII byte, CR or LF, or the literal
// sequences "=?"/"?=" which could be confused with encoded-word delimiters.
func NeedsEncoding(s string) bool {
	if strings.Contains(s, "=?") || strings.Contains(s, "?=") {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || s[i] == '\r' || s[i] == '\n' {
			return true
		}
	}
	return false
}

// Encode renders s as one or more RFC 2047 encoded words, space
// separated, each within opts.MaxLineLength bytes. If s needs no
// encoding at all, it is returned unchanged.
func Encode(backend charset.Backend, s string, opts EncodeOptions) (string, error) {
	if !NeedsEncoding(s) {
		return s, nil
	}
	cs := opts.Charset
	if cs == "" {
		cs = "utf-8"
	}
	maxLine := opts.MaxLineLength
	if maxLine <= 0 {
		maxLine = 76
	}

	recoded, err := charset.Convert(backend, []byte(s), "utf-8", cs)
	if err != nil {
		return "", fmt.Errorf("encword: %w", err)
	}

	enc := opts.ForceEncoding
	if enc == 0 {
		enc = chooseEncoding(recoded)
	}

	overhead := len("=?") + len(cs) + len("?") + 1 + len("?") + len("?=")
	budget := maxLine - overhead
	if budget < 1 {
		budget = 1
	}

	var chunks []string
	switch enc {
	case 'B':
		chunks = chunkBase64(recoded, budget)
	default:
		enc = 'Q'
		chunks = chunkQ(recoded, budget)
	}

	var out strings.Builder
	for i, c := range chunks {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString("=?")
		out.WriteString(cs)
		out.WriteByte('?')
		out.WriteByte(enc)
		out.WriteByte('?')
		out.WriteString(c)
		out.WriteString("?=")
	}
	return out.String(), nil
}

// chooseEncoding applies the spec's ">=60% ASCII => Q, else B"
// heuristic.
func chooseEncoding(b []byte) byte {
	if len(b) == 0 {
		return 'Q'
	}
	var ascii int
	for _, c := range b {
		if c < 0x80 {
			ascii++
		}
	}
	if float64(ascii)/float64(len(b)) >= 0.6 {
		return 'Q'
	}
	return 'B'
}

func chunkQ(b []byte, budget int) []string {
	var chunks []string
	var cur bytes.Buffer
	col := 0
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			col = 0
		}
	}
	i := 0
	for i < len(b) {
		r, size := decodeRuneBoundary(b[i:])
		var encoded string
		for _, c := range b[i : i+size] {
			encoded += qEncodeByte(c)
		}
		if col+len(encoded) > budget && col > 0 {
			flush()
		}
		cur.WriteString(encoded)
		col += len(encoded)
		i += size
		_ = r
	}
	flush()
	return chunks
}

func qEncodeByte(c byte) string {
	if c == ' ' {
		return "_"
	}
	if (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		return string(c)
	}
	switch c {
	case '!', '*', '+', '-', '/':
		return string(c)
	}
	return fmt.Sprintf("=%02X", c)
}

func chunkBase64(b []byte, budget int) []string {
	// Each base64 chunk must itself decode to a whole number of UTF-8
	// runes, so we grow the raw-byte window rune-by-rune until adding
	// the next rune would overflow the 4/3-expanded budget.
	var chunks []string
	start := 0
	for start < len(b) {
		end := start
		for end < len(b) {
			_, size := decodeRuneBoundary(b[end:])
			next := end + size
			if base64Len(next-start) > budget {
				break
			}
			end = next
		}
		if end == start {
			// A single rune alone overflows the budget; emit it anyway
			// rather than looping forever.
			_, size := decodeRuneBoundary(b[end:])
			end += size
		}
		chunks = append(chunks, encodeBase64(b[start:end]))
		start = end
	}
	return chunks
}

func base64Len(n int) int { return ((n + 2) / 3) * 4 }

func encodeBase64(b []byte) string {
	var buf bytes.Buffer
	enc := &codec.Base64{MaxLineLength: 1 << 30}
	_, _ = enc.Encode(&buf, bytes.NewReader(b), nil)
	return strings.TrimRight(buf.String(), "\r\n")
}

// decodeRuneBoundary returns the byte length of the rune starting at
// b[0], defaulting to 1 for invalid/empty input so callers always make
// forward progress.
func decodeRuneBoundary(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return r, 1
	}
	return r, size
}
