package codec

import (
	"bytes"
	"strings"
	"testing"
)

// S2 from spec §8.
func TestQP_SpecialChars(t *testing.T) {
	c := &QP{Mode: QPBinary, MaxLineLength: 76}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, strings.NewReader("Héllo = Wörld\r\n"), nil); err != nil {
		t.Fatal(err)
	}
	want := "H=C3=A9llo =3D W=C3=B6rld=0D=0A"
	if enc.String() != want {
		t.Fatalf("got %q want %q", enc.String(), want)
	}

	var dec bytes.Buffer
	if _, err := c.Decode(&dec, strings.NewReader(enc.String()), nil); err != nil {
		t.Fatal(err)
	}
	if dec.String() != "Héllo = Wörld\r\n" {
		t.Fatalf("round trip: got %q", dec.String())
	}
}

func TestQP_TextModePassesNewlines(t *testing.T) {
	c := &QP{Mode: QPText}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, strings.NewReader("abc\r\ndef"), nil); err != nil {
		t.Fatal(err)
	}
	if enc.String() != "abc\r\ndef" {
		t.Fatalf("got %q", enc.String())
	}
}

func TestQP_TrailingSpaceHexEncoded(t *testing.T) {
	c := &QP{Mode: QPText}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, strings.NewReader("a \r\nb"), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(enc.String(), "a=20") {
		t.Fatalf("expected trailing space hex-encoded, got %q", enc.String())
	}
}

func TestQP_DotAtColumnZero(t *testing.T) {
	c := &QP{Mode: QPText}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, strings.NewReader(".hi"), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(enc.String(), "=2E") {
		t.Fatalf("expected leading dot hex-encoded, got %q", enc.String())
	}
}

func TestQP_RFC2047Mode(t *testing.T) {
	c := &QP{RFC2047: true}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, strings.NewReader("a_b c"), nil); err != nil {
		t.Fatal(err)
	}
	want := "a=5Fb_c"
	if enc.String() != want {
		t.Fatalf("got %q want %q", enc.String(), want)
	}

	var dec bytes.Buffer
	if _, err := c.Decode(&dec, strings.NewReader(enc.String()), nil); err != nil {
		t.Fatal(err)
	}
	if dec.String() != "a_b c" {
		t.Fatalf("round trip: got %q", dec.String())
	}
}

func TestQP_SoftLineBreak(t *testing.T) {
	c := &QP{MaxLineLength: 20}
	data := strings.Repeat("x", 100)
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, strings.NewReader(data), nil); err != nil {
		t.Fatal(err)
	}
	var dec bytes.Buffer
	if _, err := c.Decode(&dec, strings.NewReader(enc.String()), nil); err != nil {
		t.Fatal(err)
	}
	if dec.String() != data {
		t.Fatalf("round trip mismatch after soft breaks: got %d bytes", dec.Len())
	}
	for _, line := range strings.Split(enc.String(), "\r\n") {
		if len(line) > 20 {
			t.Fatalf("line too long: %q", line)
		}
	}
}

func TestQP_DecodeCaseInsensitiveHex(t *testing.T) {
	c := &QP{}
	var dec bytes.Buffer
	if _, err := c.Decode(&dec, strings.NewReader("=c3=a9"), nil); err != nil {
		t.Fatal(err)
	}
	if dec.String() != "é" {
		t.Fatalf("got %q", dec.String())
	}
}
