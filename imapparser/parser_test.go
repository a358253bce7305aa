package imapparser

import (
	"bufio"
	"strings"
	"testing"
)

func parse(t *testing.T, raw string) *Response {
	t.Helper()
	p := NewParser(bufio.NewReader(strings.NewReader(raw)), nil)
	resp, err := p.ParseResponse()
	if err != nil {
		t.Fatalf("ParseResponse(%q): %v", raw, err)
	}
	return resp
}

func TestParseResponse_TaggedOK(t *testing.T) {
	resp := parse(t, "A001 OK LOGIN completed\r\n")
	if resp.Kind != KindStatus || resp.Tag != "A001" || resp.Status != StatusOK {
		t.Fatalf("got %+v", resp)
	}
	if resp.Text != "LOGIN completed" {
		t.Fatalf("got text %q", resp.Text)
	}
}

func TestParseResponse_StatusWithCode(t *testing.T) {
	resp := parse(t, "* OK [UIDVALIDITY 3857529045] UIDs valid\r\n")
	if resp.Kind != KindStatus || resp.Status != StatusOK {
		t.Fatalf("got %+v", resp)
	}
	if resp.Code != "UIDVALIDITY 3857529045" {
		t.Fatalf("got code %q", resp.Code)
	}
}

func TestParseResponse_Capability(t *testing.T) {
	resp := parse(t, "* CAPABILITY IMAP4rev1 STARTTLS AUTH=PLAIN\r\n")
	if resp.Kind != KindCapability {
		t.Fatalf("got kind %v", resp.Kind)
	}
	want := []string{"IMAP4rev1", "STARTTLS", "AUTH=PLAIN"}
	if len(resp.Capabilities) != len(want) {
		t.Fatalf("got %v", resp.Capabilities)
	}
	for i, w := range want {
		if resp.Capabilities[i] != w {
			t.Fatalf("got %v", resp.Capabilities)
		}
	}
}

func TestParseResponse_Exists(t *testing.T) {
	resp := parse(t, "* 23 EXISTS\r\n")
	if resp.Kind != KindExists || resp.SeqNum != 23 {
		t.Fatalf("got %+v", resp)
	}
}

func TestParseResponse_Flags(t *testing.T) {
	resp := parse(t, "* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)\r\n")
	if resp.Kind != KindFlags || len(resp.Flags) != 5 {
		t.Fatalf("got %+v", resp)
	}
}

func TestParseResponse_List(t *testing.T) {
	resp := parse(t, `* LIST (\HasNoChildren) "/" INBOX`+"\r\n")
	if resp.Kind != KindList {
		t.Fatalf("got kind %v", resp.Kind)
	}
	if resp.List.Name != "INBOX" || resp.List.Delimiter != '/' {
		t.Fatalf("got %+v", resp.List)
	}
	if len(resp.List.Flags) != 1 || resp.List.Flags[0] != `\HasNoChildren` {
		t.Fatalf("got flags %v", resp.List.Flags)
	}
}

func TestParseResponse_Search(t *testing.T) {
	resp := parse(t, "* SEARCH 2 84 882\r\n")
	if resp.Kind != KindSearch {
		t.Fatalf("got kind %v", resp.Kind)
	}
	if len(resp.SearchHits) != 3 || resp.SearchHits[1] != 84 {
		t.Fatalf("got %v", resp.SearchHits)
	}
}

func TestParseResponse_StatusData(t *testing.T) {
	resp := parse(t, "* STATUS blurdybloop (MESSAGES 231 UIDNEXT 44292)\r\n")
	if resp.Kind != KindStatusData {
		t.Fatalf("got kind %v", resp.Kind)
	}
	if resp.StatusMailbox != "blurdybloop" {
		t.Fatalf("got mailbox %q", resp.StatusMailbox)
	}
	if resp.StatusItems["MESSAGES"] != 231 || resp.StatusItems["UIDNEXT"] != 44292 {
		t.Fatalf("got %v", resp.StatusItems)
	}
}

func TestParseResponse_FetchFlagsUID(t *testing.T) {
	resp := parse(t, "* 12 FETCH (UID 100 FLAGS (\\Seen))\r\n")
	if resp.Kind != KindFetch || resp.SeqNum != 12 {
		t.Fatalf("got %+v", resp)
	}
	if resp.Fetch.UID != 100 || len(resp.Fetch.Flags) != 1 || resp.Fetch.Flags[0] != `\Seen` {
		t.Fatalf("got %+v", resp.Fetch)
	}
}

func TestParseResponse_FetchBodySectionLiteral(t *testing.T) {
	resp := parse(t, "* 1 FETCH (BODY[TEXT] {5}\r\nhello)\r\n")
	if resp.Kind != KindFetch {
		t.Fatalf("got kind %v", resp.Kind)
	}
	got, ok := resp.Fetch.BodySection["TEXT"]
	if !ok || string(got) != "hello" {
		t.Fatalf("got %+v", resp.Fetch.BodySection)
	}
}

func TestParseResponse_FetchEnvelope(t *testing.T) {
	raw := "* 1 FETCH (ENVELOPE (\"Wed, 17 Jul 1996 02:23:25 -0700 (PDT)\" \"IMAP4rev1 WG mtg summary\" " +
		`((NIL NIL "imap" "cac.washington.edu")) ((NIL NIL "imap" "cac.washington.edu")) ` +
		`((NIL NIL "imap" "cac.washington.edu")) ((NIL NIL "minutes" "CNRI.Reston.VA.US")` +
		` ("John Klensin" NIL "KLENSIN" "MIT.EDU")) NIL NIL NIL "<B27397-0100000@cac.washington.edu>"))` + "\r\n"
	resp := parse(t, raw)
	if resp.Kind != KindFetch || resp.Fetch.Envelope == nil {
		t.Fatalf("got %+v", resp)
	}
	env := resp.Fetch.Envelope
	if env.Subject != "IMAP4rev1 WG mtg summary" {
		t.Fatalf("got subject %q", env.Subject)
	}
	if len(env.To) != 2 || env.To[1].Name != "John Klensin" {
		t.Fatalf("got to %+v", env.To)
	}
	if env.MessageID != "<B27397-0100000@cac.washington.edu>" {
		t.Fatalf("got message id %q", env.MessageID)
	}
}

func TestParseResponse_BodyStructureLeaf(t *testing.T) {
	raw := `* 2 FETCH (BODY ("TEXT" "PLAIN" ("CHARSET" "US-ASCII") NIL NIL "7BIT" 1152 23))` + "\r\n"
	resp := parse(t, raw)
	if resp.Kind != KindFetch || resp.Fetch.BodyStructure == nil {
		t.Fatalf("got %+v", resp)
	}
	bs := resp.Fetch.BodyStructure
	if bs.MediaType.Type != "text" || bs.MediaType.Subtype != "plain" {
		t.Fatalf("got media type %+v", bs.MediaType)
	}
	if cs, _ := bs.Params.Get("charset"); cs != "US-ASCII" {
		t.Fatalf("got charset %q", cs)
	}
	if bs.Size != 1152 || bs.Lines != 23 {
		t.Fatalf("got size/lines %d/%d", bs.Size, bs.Lines)
	}
}

func TestParseResponse_Continuation(t *testing.T) {
	resp := parse(t, "+ Ready for additional text\r\n")
	if resp.Kind != KindContinuation {
		t.Fatalf("got kind %v", resp.Kind)
	}
	if resp.Text != "Ready for additional text" {
		t.Fatalf("got text %q", resp.Text)
	}
}

func TestDecodeEncodeMailboxName_RoundTrip(t *testing.T) {
	name := "Entwürfe"
	encoded := EncodeMailboxName(name)
	if encoded == name {
		t.Fatalf("expected non-ASCII name to be encoded, got %q", encoded)
	}
	decoded := DecodeMailboxName(encoded)
	if decoded != name {
		t.Fatalf("round trip: got %q, want %q", decoded, name)
	}
}

func TestDecodeMailboxName_Ampersand(t *testing.T) {
	if got := DecodeMailboxName("Foo &- Bar"); got != "Foo & Bar" {
		t.Fatalf("got %q", got)
	}
}
