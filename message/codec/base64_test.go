package codec

import (
	"bytes"
	"strings"
	"testing"
)

// S1 from spec §8.
func TestBase64_HelloWorld(t *testing.T) {
	c := &Base64{MaxLineLength: 76}
	var buf bytes.Buffer
	if _, err := c.Encode(&buf, strings.NewReader("Hello, World!"), nil); err != nil {
		t.Fatal(err)
	}
	got := strings.TrimRight(buf.String(), "\r\n")
	want := "SGVsbG8sIFdvcmxkIQ=="
	if got != want {
		t.Fatalf("encode: got %q want %q", got, want)
	}

	var out bytes.Buffer
	if _, err := c.Decode(&out, strings.NewReader(buf.String()), nil); err != nil {
		t.Fatal(err)
	}
	if out.String() != "Hello, World!" {
		t.Fatalf("decode: got %q", out.String())
	}
}

func TestBase64_RoundTripBinary(t *testing.T) {
	c := &Base64{}
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i * 7)
	}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, bytes.NewReader(data), nil); err != nil {
		t.Fatal(err)
	}
	var dec bytes.Buffer
	if _, err := c.Decode(&dec, bytes.NewReader(enc.Bytes()), nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec.Bytes(), data) {
		t.Fatalf("round trip mismatch: got %d bytes want %d", dec.Len(), len(data))
	}
}

func TestBase64_TruncatedFinalGroup(t *testing.T) {
	c := &Base64{}
	var dec bytes.Buffer
	// "SGVsbG8" decodes 1 full group ("Hel") plus a truncated
	// 3-character tail that should still recover its leading bytes.
	if _, err := c.Decode(&dec, strings.NewReader("SGVsbG8"), nil); err != nil {
		t.Fatal(err)
	}
	if dec.Len() == 0 {
		t.Fatal("expected partial decode of truncated input")
	}
}

func TestBase64_LineFolding(t *testing.T) {
	c := &Base64{MaxLineLength: 76}
	data := bytes.Repeat([]byte{'A'}, 300)
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, bytes.NewReader(data), nil); err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimRight(enc.String(), "\r\n"), "\r\n") {
		if len(line) > 76 {
			t.Fatalf("line too long: %d bytes", len(line))
		}
	}
}
