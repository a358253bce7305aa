// Package msgbuilder is the thin top-level convenience wrapper around
// message/body's recursive generator, mirroring the teacher's
// msgbuilder.Builder.Build entry point.
package msgbuilder

import (
	"io"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/body"
	"vmime.dev/vmime/message/codec"
)

// Build writes msg's wire-format MIME representation to w, using ctx's
// generation options (or the package defaults if ctx is nil) and
// registry's codecs (or the package defaults if registry is nil).
func Build(w io.Writer, msg *body.BodyPart, ctx *message.GenerationContext, registry *codec.Registry) error {
	return body.Generate(w, msg, ctx, registry)
}
