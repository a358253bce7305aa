package message

// GenerationContext carries the options that influence how header
// fields and bodies are generated onto the wire. It is passed explicitly
// rather than read from process-global state (see DESIGN.md's note on
// replacing the teacher/VMime's singleton factories with
// dependency-injected contexts).
type GenerationContext struct {
	// MaxLineLength is the soft target for generated lines, excluding
	// CRLF. Default 78, hard ceiling 998.
	MaxLineLength int

	// MaxLineLengthForEncodedWord bounds the size of each RFC 2047
	// encoded-word chunk. Default 76.
	MaxLineLengthForEncodedWord int

	// InternationalizedEmail, when true, permits raw UTF-8 bytes in
	// header field values instead of RFC 2047 encoding them.
	InternationalizedEmail bool

	// DefaultCharset is assumed for text whose charset is otherwise
	// unspecified. Default "us-ascii".
	DefaultCharset string
}

// DefaultGenerationContext returns a GenerationContext with spec.md §6's
// documented defaults.
func DefaultGenerationContext() *GenerationContext {
	return &GenerationContext{
		MaxLineLength:               78,
		MaxLineLengthForEncodedWord: 76,
		DefaultCharset:              "us-ascii",
	}
}

func (c *GenerationContext) maxLine() int {
	if c == nil || c.MaxLineLength == 0 {
		return 78
	}
	if c.MaxLineLength > 998 {
		return 998
	}
	return c.MaxLineLength
}

func (c *GenerationContext) encodedWordLine() int {
	if c == nil || c.MaxLineLengthForEncodedWord == 0 {
		return 76
	}
	return c.MaxLineLengthForEncodedWord
}

func (c *GenerationContext) i18n() bool { return c != nil && c.InternationalizedEmail }

func (c *GenerationContext) defaultCharset() string {
	if c == nil || c.DefaultCharset == "" {
		return "us-ascii"
	}
	return c.DefaultCharset
}

// ParsingContext carries the options that influence header parsing.
type ParsingContext struct {
	// Strict rejects malformed headers instead of recovering from them.
	Strict bool

	// DefaultCharset is assumed for any word the parser cannot
	// otherwise attribute a charset to.
	DefaultCharset string
}

// DefaultParsingContext returns a lenient ParsingContext.
func DefaultParsingContext() *ParsingContext {
	return &ParsingContext{DefaultCharset: "us-ascii"}
}

func (c *ParsingContext) strict() bool { return c != nil && c.Strict }

func (c *ParsingContext) defaultCharset() string {
	if c == nil || c.DefaultCharset == "" {
		return "us-ascii"
	}
	return c.DefaultCharset
}
