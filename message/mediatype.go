package message

import "strings"

// Well-known top-level types, grounded on the type/subtype strings
// msgbuilder/tree.go compares against when classifying body/related/
// attachment parts.
const (
	TypeText        = "text"
	TypeMultipart   = "multipart"
	TypeMessage     = "message"
	TypeApplication = "application"
	TypeImage       = "image"
	TypeAudio       = "audio"
	TypeVideo       = "video"
)

// Well-known multipart subtypes.
const (
	SubtypeMixed       = "mixed"
	SubtypeAlternative = "alternative"
	SubtypeRelated     = "related"
	SubtypeDigest      = "digest"
	SubtypeReport      = "report"
)

// MediaType is a parsed Content-Type "type/subtype", independent of its
// parameters (charset, boundary, name, ...), which live on the owning
// field.ContentType or field.ContentDisposition.
type MediaType struct {
	Type    string
	Subtype string
}

// ParseMediaType splits s on its first '/'. An absent '/' yields a
// Subtype-less MediaType (e.g. malformed input, or bare tokens like
// "text").
func ParseMediaType(s string) MediaType {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return MediaType{
			Type:    strings.ToLower(s[:i]),
			Subtype: strings.ToLower(s[i+1:]),
		}
	}
	return MediaType{Type: strings.ToLower(s)}
}

func (mt MediaType) String() string {
	if mt.Subtype == "" {
		return mt.Type
	}
	return mt.Type + "/" + mt.Subtype
}

// IsMultipart reports whether mt's top-level type is "multipart".
func (mt MediaType) IsMultipart() bool { return mt.Type == TypeMultipart }

// IsMessage reports whether mt is "message/rfc822" or a sibling
// message/* type that wraps an encapsulated message.
func (mt MediaType) IsMessage() bool { return mt.Type == TypeMessage }

// IsText reports whether mt's top-level type is "text".
func (mt MediaType) IsText() bool { return mt.Type == TypeText }

// Empty reports whether mt carries no type at all.
func (mt MediaType) Empty() bool { return mt.Type == "" }
