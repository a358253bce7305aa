package imapclient

import (
	"testing"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/message"
)

func TestBuildStructure_SinglePart(t *testing.T) {
	bs := &imapparser.BodyStructure{MediaType: message.MediaType{Type: "text", Subtype: "plain"}, Size: 42}
	s := BuildStructure(bs)
	if s.Root.Index != "1" {
		t.Fatalf("got index %q, want top-level single part to be %q", s.Root.Index, "1")
	}
	if s.Root.Section("") != "BODY[1]" {
		t.Fatalf("got section %q", s.Root.Section(""))
	}
}

func TestBuildStructure_Multipart(t *testing.T) {
	bs := &imapparser.BodyStructure{
		MediaType: message.MediaType{Type: "multipart", Subtype: "mixed"},
		Children: []*imapparser.BodyStructure{
			{MediaType: message.MediaType{Type: "text", Subtype: "plain"}},
			{MediaType: message.MediaType{Type: "image", Subtype: "png"}},
		},
	}
	s := BuildStructure(bs)
	if len(s.Root.Children) != 2 {
		t.Fatalf("got %d children", len(s.Root.Children))
	}
	if s.Root.Children[0].Index != "1" || s.Root.Children[1].Index != "2" {
		t.Fatalf("got indices %q, %q", s.Root.Children[0].Index, s.Root.Children[1].Index)
	}
	if got := s.Root.Children[0].Section("MIME"); got != "BODY[1.MIME]" {
		t.Fatalf("got %q", got)
	}
	if got := s.Root.Children[1].SectionPartial("", 0, 1024); got != "BODY[2]<0.1024>" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildStructure_NestedMessageRFC822(t *testing.T) {
	bs := &imapparser.BodyStructure{
		MediaType: message.MediaType{Type: "message", Subtype: "rfc822"},
		Envelope:  &imapparser.Envelope{Subject: "fwd"},
		Nested:    &imapparser.BodyStructure{MediaType: message.MediaType{Type: "text", Subtype: "plain"}},
	}
	s := BuildStructure(bs)
	if s.Root.Envelope == nil || s.Root.Envelope.Subject != "fwd" {
		t.Fatalf("got envelope %+v", s.Root.Envelope)
	}
	if s.Root.Nested == nil {
		t.Fatal("expected Nested to be set for a message/rfc822 part")
	}
	if s.Root.Nested.Index != s.Root.Index {
		t.Fatalf("nested body should share its container's index path, got %q vs %q", s.Root.Nested.Index, s.Root.Index)
	}
}

func TestWalk_VisitsEveryPart(t *testing.T) {
	bs := &imapparser.BodyStructure{
		MediaType: message.MediaType{Type: "multipart", Subtype: "mixed"},
		Children: []*imapparser.BodyStructure{
			{MediaType: message.MediaType{Type: "text", Subtype: "plain"}},
			{MediaType: message.MediaType{Type: "text", Subtype: "html"}},
		},
	}
	s := BuildStructure(bs)
	var visited []string
	s.Root.Walk(func(p *Part) { visited = append(visited, p.Index) })
	if len(visited) != 3 {
		t.Fatalf("got %v", visited)
	}
}
