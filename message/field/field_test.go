package field

import (
	"testing"
)

func TestParseContentType_Basic(t *testing.T) {
	ct := ParseContentType(nil, `text/plain; charset=utf-8`)
	if ct.MediaType.String() != "text/plain" || ct.Charset() != "utf-8" {
		t.Fatalf("got %+v", ct)
	}
}

func TestParseContentType_QuotedBoundary(t *testing.T) {
	ct := ParseContentType(nil, `multipart/mixed; boundary="abc=_123"`)
	if ct.Boundary() != "abc=_123" {
		t.Fatalf("got %q", ct.Boundary())
	}
}

func TestParseContentType_RFC2231Continuation(t *testing.T) {
	ct := ParseContentType(nil, `application/octet-stream; name*0="hello "; name*1="world"`)
	if got := ct.Name(); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestParseContentType_RFC2231ExtendedCharset(t *testing.T) {
	ct := ParseContentType(nil, `application/octet-stream; name*=utf-8''%C3%A9toile.txt`)
	if got := ct.Name(); got != "étoile.txt" {
		t.Fatalf("got %q", got)
	}
}

func TestParseContentDisposition_Filename(t *testing.T) {
	cd := ParseContentDisposition(nil, `attachment; filename="report.pdf"`)
	if !cd.IsAttachment() || cd.Filename() != "report.pdf" {
		t.Fatalf("got %+v", cd)
	}
}

func TestParseDate_RoundTrips(t *testing.T) {
	d, err := ParseDate("Mon, 2 Jan 2006 15:04:05 -0700")
	if err != nil {
		t.Fatal(err)
	}
	if EncodeDate(d) != "Mon, 2 Jan 2006 15:04:05 -0700" {
		t.Fatalf("got %q", EncodeDate(d))
	}
}

func TestParseDate_MissingDayName(t *testing.T) {
	_, err := ParseDate("2 Jan 2006 15:04:05 -0700")
	if err != nil {
		t.Fatal(err)
	}
}

func TestMessageIDSequence_References(t *testing.T) {
	ids, err := ParseMessageIDSequence("<a@example.com> <b@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a@example.com" {
		t.Fatalf("got %+v", ids)
	}
}

func TestParsePath_Null(t *testing.T) {
	p, err := ParsePath("<>")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsNull {
		t.Fatalf("got %+v", p)
	}
}
