// Package codec implements the content-transfer-encoding codecs: Base64,
// Quoted-Printable, and UUencode.
//
// Each codec is a pair of streaming encode/decode functions. They never
// fail on malformed input: a decoder writes whatever bytes it can
// recover and stops, per spec §4.1 and §7 ("codecs report malformed
// bytes by producing best-effort output and returning; they never
// signal errors"). The only errors a codec can return come from the
// underlying io.Writer/io.Reader.
package codec

import "io"

// Name identifies a content-transfer-encoding by its RFC 2045 token (or
// accepted alias).
type Name string

const (
	SevenBit        Name = "7bit"
	EightBit        Name = "8bit"
	Binary          Name = "binary"
	Base64Name      Name = "base64"
	QuotedPrintable Name = "quoted-printable"
	UUEncodeName    Name = "x-uuencode"
)

// Normalize maps the accepted aliases ("uuencode", "uue") onto the
// canonical Name, and anything unrecognized onto Binary, per spec §6
// ("Unknown names round-trip as opaque and are treated as binary").
func Normalize(name string) Name {
	switch name {
	case "", "7bit":
		return SevenBit
	case "8bit":
		return EightBit
	case "binary":
		return Binary
	case "base64":
		return Base64Name
	case "quoted-printable":
		return QuotedPrintable
	case "x-uuencode", "uuencode", "uue":
		return UUEncodeName
	default:
		return Binary
	}
}

// Progress is notified of byte counts as a codec streams, mirroring
// spec §4.1's progress-listener parameter. A nil Progress is valid.
type Progress interface {
	Progress(current, total int64)
}

// Codec streams bytes between their encoded and decoded forms.
type Codec interface {
	Name() Name

	// Encode reads decoded bytes from r and writes their encoded form
	// to w, returning the number of bytes written to w.
	Encode(w io.Writer, r io.Reader, progress Progress) (written int64, err error)

	// Decode reads encoded bytes from r and writes their decoded form
	// to w, returning the number of bytes written to w.
	Decode(w io.Writer, r io.Reader, progress Progress) (written int64, err error)

	// EncodedSize and DecodedSize return upper-bound size estimates,
	// used by callers to size buffers ahead of time.
	EncodedSize(decodedLen int64) int64
	DecodedSize(encodedLen int64) int64
}

// Registry maps a Name to a Codec factory. It is the name-keyed,
// singleton-lifetime factory spec §5/§9 describes: a process-wide
// default (DefaultRegistry) exists for convenience, and generation
// (body.Generate) accepts an explicit *Registry, nil meaning
// DefaultRegistry. Parsing (body.Parse) takes no Registry and always
// decodes through DefaultRegistry.
type Registry struct {
	factories map[Name]func() Codec
}

// NewRegistry returns a Registry pre-populated with the three built-in
// codecs, ready for additional registrations.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Name]func() Codec)}
	r.Register(Base64Name, func() Codec { return &Base64{MaxLineLength: 76} })
	r.Register(QuotedPrintable, func() Codec { return &QP{MaxLineLength: 74} })
	r.Register(UUEncodeName, func() Codec { return &UU{MaxLineLength: 46} })
	return r
}

// Register adds or replaces the factory for name. Registration is
// expected to happen before any parsing or generation begins; readers
// do not synchronize with concurrent writers (spec §5).
func (r *Registry) Register(name Name, factory func() Codec) {
	r.factories[name] = factory
}

// Lookup returns a fresh Codec for name, or nil if name has no codec
// (7bit/8bit/binary are identity transforms with no Codec value).
func (r *Registry) Lookup(name Name) Codec {
	if r == nil {
		return DefaultRegistry.Lookup(name)
	}
	f := r.factories[name]
	if f == nil {
		return nil
	}
	return f()
}

// DefaultRegistry is the process-wide default Registry, built when the
// package is initialized.
var DefaultRegistry = NewRegistry()

// Identity copies r to w unchanged; it implements the 7bit/8bit/binary
// "encodings" which are not really transfer-encoded at all.
func Identity(w io.Writer, r io.Reader) (int64, error) {
	return io.Copy(w, r)
}
