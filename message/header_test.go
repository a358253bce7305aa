package message

import (
	"bytes"
	"strings"
	"testing"
)

func TestHeader_AddGetDel(t *testing.T) {
	h := &Header{}
	h.Add("Subject", []byte("hello"))
	h.Add("X-Custom", []byte("a"))
	h.Add("X-Custom", []byte("b"))

	if string(h.Get("Subject")) != "hello" {
		t.Fatalf("got %q", h.Get("Subject"))
	}
	if got := h.GetAll("X-Custom"); len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "b" {
		t.Fatalf("got %v", got)
	}
	h.Del("X-Custom")
	if h.Has("X-Custom") {
		t.Fatal("expected X-Custom removed")
	}
}

func TestHeader_EncodeTerminatesWithBlankLine(t *testing.T) {
	h := &Header{}
	h.Add("Subject", []byte("hi"))
	var buf bytes.Buffer
	if _, err := h.Encode(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\r\n\r\n") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestHeaderEntry_FoldsLongLines(t *testing.T) {
	ctx := &GenerationContext{MaxLineLength: 20}
	entry := &HeaderEntry{Key: "Subject", Value: []byte(strings.Repeat("word ", 20))}
	var buf bytes.Buffer
	if _, err := entry.Encode(&buf, ctx); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n") {
		if len(line) > 998 {
			t.Fatalf("line exceeds hard ceiling: %d", len(line))
		}
	}
	if !strings.Contains(buf.String(), "\r\n    ") {
		t.Fatalf("expected a folded continuation line, got %q", buf.String())
	}
}

func TestHeaderEntry_EmptyValue(t *testing.T) {
	entry := &HeaderEntry{Key: "X-Empty"}
	var buf bytes.Buffer
	if _, err := entry.Encode(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "X-Empty:\r\n" {
		t.Fatalf("got %q", buf.String())
	}
}
