package msgbuilder

import (
	"bytes"
	"strings"
	"testing"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/body"
	"vmime.dev/vmime/message/field"
)

func TestBuild_Leaf(t *testing.T) {
	bp := body.NewBodyPart(&body.Body{
		ContentType: field.ParseContentType(nil, "text/plain; charset=utf-8"),
		Encoding:    message.EncodingSevenBit,
		Content:     body.NewInline([]byte("hi there")),
	})
	bp.Header.Set("Content-Type", []byte("text/plain; charset=utf-8"))
	bp.Header.Set("Subject", []byte("greeting"))

	var buf bytes.Buffer
	if err := Build(&buf, bp, nil, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Subject: greeting") {
		t.Fatalf("missing subject header: %q", out)
	}
	if !strings.Contains(out, "hi there") {
		t.Fatalf("missing body: %q", out)
	}
}
