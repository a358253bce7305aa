// Package body implements the MIME body/part tree: ContentHandler (the
// backing store for a leaf part's bytes), Body (leaf or multipart), and
// BodyPart (a Header plus a Body, linked into a tree with weak parent
// back-pointers). Parsing and generation are grounded on the teacher's
// email/msgbuilder/tree.go (generation) and the reader idiom in
// third_party/imf/reader.go (parsing), generalized from the teacher's
// flat Msg/Part model into an actual recursive MIME tree per spec §4.4.
package body

import (
	"bytes"
	"io"

	"crawshaw.io/iox"
)

// Buffer is the io.Reader+Writer+Seeker+Closer+Size contract the
// teacher's email.Buffer names; ContentHandler's streamed variant is
// backed by one (typically *iox.BufferFile).
type Buffer interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Size() int64
}

// Kind discriminates ContentHandler's two backing representations.
type Kind int

const (
	// KindInline holds content as an in-memory []byte: cheap for small
	// parts, avoids a Filer round-trip.
	KindInline Kind = iota
	// KindStreamed holds content in a Buffer (normally an
	// iox.BufferFile): used for parts too large to want resident in
	// memory, or whose length isn't known up front (unknown-length
	// variant: Length < 0 until the stream is fully drained).
	KindStreamed
)

// ContentHandler is a part's body content, in whichever of the two
// backing forms it currently has. It is deliberately not an io.Reader
// itself (a ContentHandler may be read multiple times, e.g. once to
// compute a Content-Transfer-Encoding guess and again to actually
// encode it onto the wire) — call Reader to get a fresh read.
type ContentHandler struct {
	kind   Kind
	inline []byte
	stream Buffer
	length int64 // -1 if unknown (KindStreamed only, before the stream drains)
}

// NewInline wraps b as inline content.
func NewInline(b []byte) ContentHandler {
	return ContentHandler{kind: KindInline, inline: b, length: int64(len(b))}
}

// NewStreamed wraps buf as streamed content. length may be -1 if the
// caller does not know it yet (e.g. content is still being written).
func NewStreamed(buf Buffer, length int64) ContentHandler {
	return ContentHandler{kind: KindStreamed, stream: buf, length: length}
}

// Reader returns a fresh io.Reader over the content, seeking a streamed
// backing buffer back to its start first.
func (c ContentHandler) Reader() (io.Reader, error) {
	if c.kind == KindInline {
		return bytes.NewReader(c.inline), nil
	}
	if c.stream == nil {
		return bytes.NewReader(nil), nil
	}
	if _, err := c.stream.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return c.stream, nil
}

// Length returns the content's byte length and whether it is known yet.
func (c ContentHandler) Length() (int64, bool) {
	if c.kind == KindInline {
		return int64(len(c.inline)), true
	}
	if c.length < 0 {
		return 0, false
	}
	return c.length, true
}

// Bytes materializes the entire content into memory. Prefer Reader for
// large or streamed content.
func (c ContentHandler) Bytes() ([]byte, error) {
	if c.kind == KindInline {
		return c.inline, nil
	}
	r, err := c.Reader()
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Empty reports whether c has no backing content at all.
func (c ContentHandler) Empty() bool {
	return c.kind == KindInline && len(c.inline) == 0 && c.stream == nil
}

// NewStreamedFromFiler allocates a fresh streamed ContentHandler backed
// by filer, ready to be written to and then wrapped with a known
// length once writing completes (see SetLength).
func NewStreamedFromFiler(filer *iox.Filer, sizeHint int64) ContentHandler {
	return ContentHandler{kind: KindStreamed, stream: filer.BufferFile(sizeHint), length: -1}
}

// Buffer returns the backing Buffer for a KindStreamed ContentHandler,
// or nil for KindInline. Callers use this to write content in before
// calling SetLength.
func (c ContentHandler) Buffer() Buffer {
	if c.kind == KindStreamed {
		return c.stream
	}
	return nil
}

// SetLength fixes the length of a streamed ContentHandler once its
// backing buffer has been fully written (the unknown-length -> known-
// length transition spec §4.4 calls out).
func (c *ContentHandler) SetLength(n int64) { c.length = n }

// Close releases the backing Buffer, if any.
func (c ContentHandler) Close() error {
	if c.kind == KindStreamed && c.stream != nil {
		return c.stream.Close()
	}
	return nil
}
