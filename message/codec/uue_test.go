package codec

import (
	"bytes"
	"testing"
)

func TestUU_RoundTrip(t *testing.T) {
	c := &UU{Mode: "644", Filename: "cat.txt"}
	data := []byte("The quick brown fox jumps over the lazy dog. 0123456789 more bytes to span multiple lines of uuencoded output.")

	var enc bytes.Buffer
	if _, err := c.Encode(&enc, bytes.NewReader(data), nil); err != nil {
		t.Fatal(err)
	}

	dc := &UU{}
	var dec bytes.Buffer
	if _, err := dc.Decode(&dec, bytes.NewReader(enc.Bytes()), nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec.Bytes(), data) {
		t.Fatalf("round trip mismatch:\ngot:  %q\nwant: %q", dec.Bytes(), data)
	}
	if dc.Result.Mode != "644" || dc.Result.Filename != "cat.txt" {
		t.Fatalf("result metadata: got mode=%q filename=%q", dc.Result.Mode, dc.Result.Filename)
	}
}

func TestUU_MissingTrailingNewlineTolerated(t *testing.T) {
	c := &UU{Mode: "644", Filename: "f"}
	var enc bytes.Buffer
	if _, err := c.Encode(&enc, bytes.NewReader([]byte("hi")), nil); err != nil {
		t.Fatal(err)
	}
	trimmed := bytes.TrimRight(enc.Bytes(), "\n")

	dc := &UU{}
	var dec bytes.Buffer
	if _, err := dc.Decode(&dec, bytes.NewReader(trimmed), nil); err != nil {
		t.Fatal(err)
	}
	if dec.String() != "hi" {
		t.Fatalf("got %q", dec.String())
	}
}
