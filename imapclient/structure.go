package imapclient

import (
	"fmt"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/field"
)

// Part is one node of a FETCH BODYSTRUCTURE response, converted from
// imapparser.BodyStructure into the section-addressable tree spec.md
// §4.7 describes: "each Part carries its index path (1-based, dotted),
// its media type, its size in octets, and either scalar attributes or
// a recursive list."
type Part struct {
	Index string // "", "1", "1.2", ... — "" only for the root of a multipart

	MediaType   message.MediaType
	Params      field.Params
	ID          string
	Description string
	Encoding    message.Encoding
	Size        uint32
	Lines       uint32

	Disposition *field.ContentDisposition
	Language    []string
	Location    string
	MD5         string

	// Children holds a multipart part's sub-parts, indexed 1.
	Children []*Part

	// Envelope/Nested are set for message/rfc822 parts: Envelope is the
	// encapsulated message's envelope, Nested its body structure (its
	// own Index equal to this Part's, since IMAP numbers the nested
	// body's sections as if splicing it in at this point).
	Envelope *imapparser.Envelope
	Nested   *Part
}

// Structure is the root of a FETCH BODYSTRUCTURE/BODY response.
type Structure struct {
	Root *Part
}

// BuildStructure converts a parsed imapparser.BodyStructure into a
// Structure with Part.Index paths assigned, per spec.md §4.7.
func BuildStructure(bs *imapparser.BodyStructure) *Structure {
	if bs == nil {
		return nil
	}
	return &Structure{Root: buildPart(bs, "", true)}
}

func buildPart(bs *imapparser.BodyStructure, index string, top bool) *Part {
	p := &Part{
		MediaType:   bs.MediaType,
		Params:      bs.Params,
		ID:          bs.ID,
		Description: bs.Description,
		Encoding:    bs.Encoding,
		Size:        bs.Size,
		Lines:       bs.Lines,
		Disposition: bs.Disposition,
		Language:    bs.Language,
		Location:    bs.Location,
		MD5:         bs.MD5,
	}
	switch {
	case len(bs.Children) > 0:
		p.Index = index
		for i, child := range bs.Children {
			childIndex := fmt.Sprintf("%d", i+1)
			if index != "" {
				childIndex = index + "." + childIndex
			}
			p.Children = append(p.Children, buildPart(child, childIndex, false))
		}
	default:
		if index == "" && top {
			p.Index = "1"
		} else {
			p.Index = index
		}
		if bs.Nested != nil {
			p.Envelope = bs.Envelope
			p.Nested = buildPart(bs.Nested, p.Index, false)
		}
	}
	return p
}

// Section builds a FETCH BODY[...] section identifier for p, with an
// optional suffix ("MIME", "HEADER", "TEXT") and partial range, per
// spec.md §4.7: "Section identifiers for retrieval are built from the
// index path (BODY[1.2.3]), with .MIME/.HEADER/.TEXT suffixes. Partial
// fetch uses <start.length>."
func (p *Part) Section(suffix string) string {
	spec := p.Index
	if suffix != "" {
		if spec != "" {
			spec += "." + suffix
		} else {
			spec = suffix
		}
	}
	return fmt.Sprintf("BODY[%s]", spec)
}

// SectionPartial is Section with a <start.length> partial-fetch range
// appended.
func (p *Part) SectionPartial(suffix string, start, length int) string {
	return fmt.Sprintf("%s<%d.%d>", p.Section(suffix), start, length)
}

// Walk calls fn for p and every descendant, depth-first.
func (p *Part) Walk(fn func(*Part)) {
	fn(p)
	for _, child := range p.Children {
		child.Walk(fn)
	}
	if p.Nested != nil {
		p.Nested.Walk(fn)
	}
}
