package field

import (
	"strings"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/charset"
)

// ContentType is a parsed "Content-Type" field value: the media type
// plus its parameters (charset, boundary, name, ...).
type ContentType struct {
	MediaType message.MediaType
	Params    Params
}

// Charset returns the "charset" parameter, defaulting to "us-ascii" per
// RFC 2046 §4.1.2 if absent and the type is text/*.
func (ct ContentType) Charset() string {
	if v, ok := ct.Params.Get("charset"); ok {
		return v
	}
	if ct.MediaType.IsText() {
		return "us-ascii"
	}
	return ""
}

// Boundary returns the "boundary" parameter of a multipart/* type.
func (ct ContentType) Boundary() string {
	v, _ := ct.Params.Get("boundary")
	return v
}

// Name returns the "name" parameter, commonly used as a fallback
// filename hint.
func (ct ContentType) Name() string {
	v, _ := ct.Params.Get("name")
	return v
}

// ParseContentType parses s (a Content-Type header's full value) into a
// ContentType.
func ParseContentType(backend charset.Backend, s string) ContentType {
	primary, rest := splitPrimary(s)
	return ContentType{
		MediaType: message.ParseMediaType(primary),
		Params:    ParseParams(backend, rest),
	}
}

func splitPrimary(s string) (primary, rest string) {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i]), s[i+1:]
	}
	return strings.TrimSpace(s), ""
}

// Encode renders ct back as a header value.
func (ct ContentType) Encode() string {
	return ct.MediaType.String() + ct.Params.Encode()
}

// ContentDisposition is a parsed "Content-Disposition" field value.
type ContentDisposition struct {
	// Kind is normally "inline" or "attachment".
	Kind   string
	Params Params
}

// ParseContentDisposition parses s into a ContentDisposition.
func ParseContentDisposition(backend charset.Backend, s string) ContentDisposition {
	primary, rest := splitPrimary(s)
	return ContentDisposition{
		Kind:   strings.ToLower(primary),
		Params: ParseParams(backend, rest),
	}
}

// Filename returns the "filename" parameter.
func (cd ContentDisposition) Filename() string {
	v, _ := cd.Params.Get("filename")
	return v
}

// IsAttachment reports whether Kind is "attachment".
func (cd ContentDisposition) IsAttachment() bool { return cd.Kind == "attachment" }

// Encode renders cd back as a header value.
func (cd ContentDisposition) Encode() string {
	return cd.Kind + cd.Params.Encode()
}
