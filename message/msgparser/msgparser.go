// Package msgparser is the thin top-level convenience wrapper around
// message/body's recursive parser, mirroring the entry-point shape of
// the teacher's msgcleaver.Cleave: take a raw byte stream in, get a
// fully parsed message out.
package msgparser

import (
	"bufio"
	"io"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/body"
	"vmime.dev/vmime/message/charset"
)

// Message is a fully parsed top-level MIME message: its own header
// plus the (possibly multipart) body tree below it.
type Message struct {
	*body.BodyPart
}

// Parse reads a complete RFC 5322 + MIME message from r.
func Parse(r io.Reader, ctx *message.ParsingContext) (*Message, error) {
	return ParseWithCharsets(r, ctx, nil)
}

// ParseWithCharsets is Parse with an explicit charset.Backend, for
// callers that need a non-default charset table (e.g. a hermetic test
// double).
func ParseWithCharsets(r io.Reader, ctx *message.ParsingContext, backend charset.Backend) (*Message, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	bp, err := body.Parse(br, ctx, backend)
	if err != nil {
		return nil, err
	}
	return &Message{BodyPart: bp}, nil
}
