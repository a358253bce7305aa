package msgparser

import (
	"bytes"
	"strings"
	"testing"

	"vmime.dev/vmime/message/msgbuilder"
)

func TestParse_RoundTrip(t *testing.T) {
	raw := "Content-Type: multipart/mixed; boundary=ZZZ\r\n\r\n" +
		"--ZZZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
		"hello\r\n" +
		"--ZZZ--\r\n"

	msg, err := Parse(strings.NewReader(raw), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !msg.Body.IsMultipart() {
		t.Fatal("expected multipart message")
	}
	if len(msg.Body.Children) != 1 {
		t.Fatalf("got %d children", len(msg.Body.Children))
	}

	var buf bytes.Buffer
	if err := msgbuilder.Build(&buf, msg.BodyPart, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("regenerated message missing content: %q", buf.String())
	}
}

func TestParse_SimpleLeaf(t *testing.T) {
	raw := "Subject: test\r\nContent-Type: text/plain\r\n\r\nbody text"
	msg, err := Parse(strings.NewReader(raw), nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Body.IsMultipart() {
		t.Fatal("expected leaf message")
	}
	if string(msg.Header.Get("Subject")) != "test" {
		t.Fatalf("got subject %q", msg.Header.Get("Subject"))
	}
}
