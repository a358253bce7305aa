package encword

import (
	"strings"
	"testing"
)

func TestDecode_SingleQWord(t *testing.T) {
	words := Decode(nil, "=?utf-8?Q?H=C3=A9llo?=")
	if len(words) != 1 || words[0].Text != "Héllo" || words[0].Charset != "utf-8" {
		t.Fatalf("got %+v", words)
	}
}

func TestDecode_AdjacentWordsConcatenateWithoutSpace(t *testing.T) {
	// RFC 2047 §2: whitespace between two encoded words is not part of
	// the decoded text.
	s := DecodeString(nil, "=?utf-8?Q?Hello,?= =?utf-8?Q?_World!?=")
	if s != "Hello, World!" {
		t.Fatalf("got %q", s)
	}
}

func TestDecode_LiteralTextPassesThrough(t *testing.T) {
	s := DecodeString(nil, "plain subject line")
	if s != "plain subject line" {
		t.Fatalf("got %q", s)
	}
}

func TestDecode_MalformedTokenFallsBackToLiteral(t *testing.T) {
	s := DecodeString(nil, "=?broken")
	if s != "=?broken" {
		t.Fatalf("got %q", s)
	}
}

func TestDecode_MixedLiteralAndEncoded(t *testing.T) {
	s := DecodeString(nil, "Re: =?utf-8?B?aGVsbG8=?= world")
	if s != "Re: hello world" {
		t.Fatalf("got %q", s)
	}
}

func TestEncode_AsciiPassesThroughUnchanged(t *testing.T) {
	out, err := Encode(nil, "plain ascii", EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "plain ascii" {
		t.Fatalf("got %q", out)
	}
}

func TestEncode_NonAsciiRoundTrips(t *testing.T) {
	in := "Héllo Wörld"
	out, err := Encode(nil, in, EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "=?utf-8?") {
		t.Fatalf("expected encoded word, got %q", out)
	}
	got := DecodeString(nil, out)
	if got != in {
		t.Fatalf("round trip: got %q want %q", got, in)
	}
}

func TestEncode_LongTextChunksUnderLineLength(t *testing.T) {
	in := strings.Repeat("é", 80)
	out, err := Encode(nil, in, EncodeOptions{MaxLineLength: 40})
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range strings.Split(out, " ") {
		if len(tok) > 40 {
			t.Fatalf("token too long: %d bytes: %q", len(tok), tok)
		}
	}
	if got := DecodeString(nil, out); got != in {
		t.Fatalf("round trip: got %q want %q", got, in)
	}
}

func TestEncode_ForceBase64(t *testing.T) {
	out, err := Encode(nil, "日本語", EncodeOptions{ForceEncoding: 'B'})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "?B?") {
		t.Fatalf("expected base64 marker, got %q", out)
	}
	if got := DecodeString(nil, out); got != "日本語" {
		t.Fatalf("round trip: got %q", got)
	}
}
