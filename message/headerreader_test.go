package message

import (
	"bufio"
	"strings"
	"testing"
)

func TestReadHeader_Basic(t *testing.T) {
	raw := "Subject: hello\r\nFrom: a@example.com\r\n\r\nbody"
	h, err := ReadHeader(bufio.NewReader(strings.NewReader(raw)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(h.Get("Subject")) != "hello" {
		t.Fatalf("got %q", h.Get("Subject"))
	}
	if string(h.Get("From")) != "a@example.com" {
		t.Fatalf("got %q", h.Get("From"))
	}
}

func TestReadHeader_FoldedContinuation(t *testing.T) {
	raw := "Subject: long\r\n subject\r\n\r\n"
	h, err := ReadHeader(bufio.NewReader(strings.NewReader(raw)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(h.Get("Subject")) != "long subject" {
		t.Fatalf("got %q", h.Get("Subject"))
	}
}

func TestReadHeader_MultipleValuesSameKey(t *testing.T) {
	raw := "Received: first\r\nReceived: second\r\n\r\n"
	h, err := ReadHeader(bufio.NewReader(strings.NewReader(raw)), nil)
	if err != nil {
		t.Fatal(err)
	}
	vals := h.GetAll("Received")
	if len(vals) != 2 || string(vals[0]) != "first" || string(vals[1]) != "second" {
		t.Fatalf("got %v", vals)
	}
}

func TestReadHeader_NoColonLineSkippedLeniently(t *testing.T) {
	raw := "Subject: hi\r\ngarbage line\r\nTo: b@example.com\r\n\r\n"
	h, err := ReadHeader(bufio.NewReader(strings.NewReader(raw)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(h.Get("To")) != "b@example.com" {
		t.Fatalf("got %q", h.Get("To"))
	}
}
