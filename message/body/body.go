package body

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/charset"
	"vmime.dev/vmime/message/codec"
	"vmime.dev/vmime/message/field"
	"vmime.dev/vmime/vmimeerr"
)

// Body is a part's content: either a leaf (Content/Encoding carry the
// actual bytes) or a multipart container (Children holds the nested
// BodyParts, Prologue/Epilogue the leading/trailing text RFC 2046 §5.1
// says MUST be ignored by a reader but MAY be preserved by a generator).
type Body struct {
	ContentType field.ContentType
	Encoding    message.Encoding

	// Content is valid when ContentType is not multipart/*.
	Content ContentHandler

	// Prologue, Epilogue, and Children are valid when ContentType is
	// multipart/*.
	Prologue []byte
	Epilogue []byte
	Children []*BodyPart
}

// IsMultipart reports whether b holds nested parts rather than leaf
// content.
func (b *Body) IsMultipart() bool { return b.ContentType.MediaType.IsMultipart() }

// BodyPart is one node of the message tree: a Header plus the Body it
// introduces. Parent is a weak back-pointer (spec §3/§9): it is never
// traversed during generation and reparenting is a single atomic
// pointer swap so a BodyPart can be safely moved between trees (e.g.
// wrapping an existing tree in a new multipart/mixed envelope) without
// a caller racing a reader that's mid-walk.
type BodyPart struct {
	Header *message.Header
	Body   *Body

	parent atomic.Pointer[BodyPart]
}

// NewBodyPart returns a BodyPart with an empty Header.
func NewBodyPart(b *Body) *BodyPart {
	return &BodyPart{Header: &message.Header{}, Body: b}
}

// Parent returns bp's current parent, or nil if bp is a tree root.
func (bp *BodyPart) Parent() *BodyPart { return bp.parent.Load() }

// reparent atomically sets bp's parent pointer.
func (bp *BodyPart) reparent(p *BodyPart) { bp.parent.Store(p) }

// AddChild appends child to bp's multipart Body and reparents it to bp.
// bp.Body must already be a multipart Body.
func (bp *BodyPart) AddChild(child *BodyPart) {
	bp.Body.Children = append(bp.Body.Children, child)
	child.reparent(bp)
}

// Generate writes bp (and its descendants) to w as wire-format MIME,
// grounded on the teacher's msgbuilder.WriteNode/writePart, generalized
// from the teacher's flat Part model to recurse over an actual tree and
// from the teacher's stdlib base64/quoted-printable delegation to
// message/codec so binary-mode QP and UUencode are reachable too.
func Generate(w io.Writer, bp *BodyPart, ctx *message.GenerationContext, registry *codec.Registry) error {
	if bp.Body.IsMultipart() {
		return generateMultipart(w, bp, ctx, registry)
	}
	if _, err := bp.Header.Encode(w, ctx); err != nil {
		return err
	}
	return encodeContent(w, bp.Body, registry)
}

func generateMultipart(w io.Writer, bp *BodyPart, ctx *message.GenerationContext, registry *codec.Registry) error {
	b := bp.Body
	boundary, err := ensureBoundary(b, registry)
	if err != nil {
		return err
	}

	if _, err := bp.Header.Encode(w, ctx); err != nil {
		return err
	}
	if len(b.Prologue) > 0 {
		if _, err := w.Write(b.Prologue); err != nil {
			return err
		}
	}
	for i, child := range b.Children {
		// Every delimiter after the first part begins with the CRLF
		// that ends the preceding part (RFC 2046 §5.1.1).
		delim := "--%s\r\n"
		if i > 0 {
			delim = "\r\n--%s\r\n"
		}
		if _, err := fmt.Fprintf(w, delim, boundary); err != nil {
			return err
		}
		if err := Generate(w, child, ctx, registry); err != nil {
			return err
		}
	}
	closing := "--%s--\r\n"
	if len(b.Children) > 0 {
		closing = "\r\n--%s--\r\n"
	}
	if _, err := fmt.Fprintf(w, closing, boundary); err != nil {
		return err
	}
	if len(b.Epilogue) > 0 {
		if _, err := w.Write(b.Epilogue); err != nil {
			return err
		}
	}
	return nil
}

// ensureBoundary returns b's Content-Type boundary parameter, assigning
// a fresh one if absent, and — per spec §4.4's strengthened invariant —
// regenerating it if it collides with a byte sequence actually present
// in any child's rendered bytes. The teacher's randBoundary never
// checks for collisions at all (12 random bytes made it vanishingly
// unlikely in practice); here we actually verify, retrying with a new
// uuid.NewString() on each collision.
func ensureBoundary(b *Body, registry *codec.Registry) (string, error) {
	boundary := b.ContentType.Boundary()
	for attempt := 0; attempt < 8; attempt++ {
		if boundary == "" {
			boundary = "." + uuid.NewString() + "."
		}
		collision, err := anyChildContainsBoundary(b.Children, boundary, registry)
		if err != nil {
			return "", err
		}
		if !collision {
			b.ContentType.Params.Set("boundary", boundary)
			return boundary, nil
		}
		boundary = ""
	}
	return "", vmimeerr.New(vmimeerr.InvalidArgument, "could not generate a collision-free multipart boundary")
}

func anyChildContainsBoundary(children []*BodyPart, boundary string, registry *codec.Registry) (bool, error) {
	needle := []byte("--" + boundary)
	for _, child := range children {
		if child.Body.IsMultipart() {
			hit, err := anyChildContainsBoundary(child.Body.Children, boundary, registry)
			if err != nil || hit {
				return hit, err
			}
			continue
		}
		var buf bytes.Buffer
		if err := encodeContent(&buf, child.Body, registry); err != nil {
			return false, err
		}
		if bytes.Contains(buf.Bytes(), needle) {
			return true, nil
		}
	}
	return false, nil
}

func encodeContent(w io.Writer, b *Body, registry *codec.Registry) error {
	r, err := b.Content.Reader()
	if err != nil {
		return err
	}
	name := b.Encoding.Name
	if name == "" || name == codec.SevenBit || name == codec.EightBit || name == codec.Binary {
		_, err := codec.Identity(w, r)
		return err
	}
	c := registry.Lookup(name)
	if c == nil {
		_, err := codec.Identity(w, r)
		return err
	}
	_, err = c.Encode(w, r, nil)
	return err
}

// Parse reads a single MIME entity (header + body, recursing through
// any multipart children) from r, grounded on the parse-side control
// flow msgcleaver.go's walkMimeRec implements — generalized to build an
// actual BodyPart tree instead of a flat Part slice, since VMime's
// (and the spec's) bodyPart model is recursive, not flat.
func Parse(r *bufio.Reader, ctx *message.ParsingContext, backend charset.Backend) (*BodyPart, error) {
	hdr, err := message.ReadHeader(r, ctx)
	if err != nil {
		return nil, err
	}
	return parseWithHeader(hdr, r, ctx, backend)
}

func parseWithHeader(hdr *message.Header, r io.Reader, ctx *message.ParsingContext, backend charset.Backend) (*BodyPart, error) {
	ct := field.ParseContentType(backend, string(hdr.Get("Content-Type")))
	enc := message.ParseEncoding(string(hdr.Get("Content-Transfer-Encoding")))

	bp := &BodyPart{Header: hdr}

	if ct.MediaType.IsMultipart() {
		boundary := ct.Boundary()
		if boundary == "" {
			return nil, vmimeerr.Malformed("multipart Content-Type missing boundary parameter")
		}
		b := &Body{ContentType: ct, Encoding: enc}
		bp.Body = b

		prologue, parts, epilogue, err := splitMultipart(r, boundary)
		if err != nil {
			return nil, err
		}
		b.Prologue = prologue
		b.Epilogue = epilogue
		for _, raw := range parts {
			child, err := Parse(bufio.NewReader(bytes.NewReader(raw)), ctx, backend)
			if err != nil {
				return nil, err
			}
			b.Children = append(b.Children, child)
			child.reparent(bp)
		}
		return bp, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeContent(raw, enc)
	if err != nil {
		return nil, err
	}
	bp.Body = &Body{
		ContentType: ct,
		Encoding:    enc,
		Content:     NewInline(decoded),
	}
	return bp, nil
}

func decodeContent(raw []byte, enc message.Encoding) ([]byte, error) {
	if enc.IsIdentity() {
		return raw, nil
	}
	c := codec.DefaultRegistry.Lookup(enc.Name)
	if c == nil {
		return raw, nil
	}
	var buf bytes.Buffer
	if _, err := c.Decode(&buf, bytes.NewReader(raw), nil); err != nil {
		return buf.Bytes(), nil // codecs degrade gracefully; best-effort output stands
	}
	return buf.Bytes(), nil
}

// splitMultipart scans r for the "--boundary" delimiter lines of RFC
// 2046 §5.1.1, returning the prologue, each part's raw bytes, and the
// epilogue (everything after the terminating "--boundary--" line).
func splitMultipart(r io.Reader, boundary string) (prologue []byte, parts [][]byte, epilogue []byte, err error) {
	delim := []byte("--" + boundary)
	endDelim := []byte("--" + boundary + "--")
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, nil, err
	}

	lines := splitLinesKeepEnds(data)
	var cur []byte
	state := 0 // 0=prologue, 1=in a part, 2=epilogue
	for _, line := range lines {
		trimmed := bytes.TrimRight(line, "\r\n")
		if bytes.Equal(trimmed, endDelim) {
			if state == 1 {
				parts = append(parts, trimEndOfPart(cur))
			}
			cur = nil
			state = 2
			continue
		}
		if bytes.Equal(trimmed, delim) {
			if state == 1 {
				parts = append(parts, trimEndOfPart(cur))
			}
			cur = nil
			state = 1
			continue
		}
		switch state {
		case 0:
			prologue = append(prologue, line...)
		case 1:
			cur = append(cur, line...)
		case 2:
			epilogue = append(epilogue, line...)
		}
	}
	if state == 1 {
		// Missing terminating delimiter: tolerate, treat what we have
		// as the final part (spec §3's lenient-parsing posture).
		parts = append(parts, trimEndOfPart(cur))
	}
	return prologue, parts, epilogue, nil
}

// trimEndOfPart drops the single CRLF that precedes the next boundary
// delimiter line (RFC 2046 §5.1.1: that CRLF is part of the delimiter,
// not the part's content).
func trimEndOfPart(b []byte) []byte {
	if bytes.HasSuffix(b, []byte("\r\n")) {
		return b[:len(b)-2]
	}
	if bytes.HasSuffix(b, []byte("\n")) {
		return b[:len(b)-1]
	}
	return b
}

func splitLinesKeepEnds(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, data[start:i+1])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
