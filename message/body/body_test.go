package body

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/codec"
	"vmime.dev/vmime/message/field"
)

func TestParse_SimpleTextBody(t *testing.T) {
	raw := "Content-Type: text/plain; charset=utf-8\r\nContent-Transfer-Encoding: 7bit\r\n\r\nhello world"
	bp, err := Parse(bufio.NewReader(strings.NewReader(raw)), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bp.Body.IsMultipart() {
		t.Fatal("expected leaf body")
	}
	got, err := bp.Body.Content.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestParse_Multipart(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=XYZ\r\n\r\n" +
		"preamble text\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"part one\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"part two\r\n" +
		"--XYZ--\r\n" +
		"epilogue text"

	bp, err := Parse(bufio.NewReader(strings.NewReader(raw)), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bp.Body.IsMultipart() {
		t.Fatal("expected multipart body")
	}
	if len(bp.Body.Children) != 2 {
		t.Fatalf("got %d children", len(bp.Body.Children))
	}
	got0, _ := bp.Body.Children[0].Body.Content.Bytes()
	got1, _ := bp.Body.Children[1].Body.Content.Bytes()
	if string(got0) != "part one" || string(got1) != "part two" {
		t.Fatalf("got %q / %q", got0, got1)
	}
	if bp.Body.Children[0].Parent() != bp {
		t.Fatal("expected child reparented to root")
	}
}

func TestParse_Base64Content(t *testing.T) {
	raw := "Content-Type: application/octet-stream\r\nContent-Transfer-Encoding: base64\r\n\r\nSGVsbG8sIFdvcmxkIQ==\r\n"
	bp, err := Parse(bufio.NewReader(strings.NewReader(raw)), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := bp.Body.Content.Bytes()
	if string(got) != "Hello, World!" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_Leaf(t *testing.T) {
	bp := NewBodyPart(&Body{
		ContentType: field.ParseContentType(nil, "text/plain; charset=utf-8"),
		Encoding:    message.EncodingSevenBit,
		Content:     NewInline([]byte("hi")),
	})
	bp.Header.Set("Content-Type", []byte("text/plain; charset=utf-8"))

	var buf bytes.Buffer
	if err := Generate(&buf, bp, nil, codec.NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "hi") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestGenerate_MultipartAssignsBoundaryAndRoundTrips(t *testing.T) {
	child1 := NewBodyPart(&Body{
		ContentType: field.ParseContentType(nil, "text/plain"),
		Encoding:    message.EncodingSevenBit,
		Content:     NewInline([]byte("one")),
	})
	child1.Header.Set("Content-Type", []byte("text/plain"))
	child2 := NewBodyPart(&Body{
		ContentType: field.ParseContentType(nil, "text/plain"),
		Encoding:    message.EncodingSevenBit,
		Content:     NewInline([]byte("two")),
	})
	child2.Header.Set("Content-Type", []byte("text/plain"))

	root := NewBodyPart(&Body{
		ContentType: field.ParseContentType(nil, "multipart/mixed"),
		Children:    []*BodyPart{child1, child2},
	})

	var buf bytes.Buffer
	if err := Generate(&buf, root, nil, codec.NewRegistry()); err != nil {
		t.Fatal(err)
	}
	if root.Body.ContentType.Boundary() == "" {
		t.Fatal("expected a boundary to be assigned")
	}
	root.Header.Set("Content-Type", []byte(root.Body.ContentType.Encode()))

	var buf2 bytes.Buffer
	if err := Generate(&buf2, root, nil, codec.NewRegistry()); err != nil {
		t.Fatal(err)
	}
	reparsed, err := Parse(bufio.NewReader(strings.NewReader(buf2.String())), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(reparsed.Body.Children) != 2 {
		t.Fatalf("got %d children after round trip", len(reparsed.Body.Children))
	}
}
