package pop3

import (
	"bufio"
	"bytes"
	"testing"
	"time"
)

// memSocket is a minimal transport.Socket test double backed by an
// in-memory server script: Receive reads canned server bytes, Send
// records what the client wrote.
type memSocket struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (m *memSocket) Send(b []byte) error {
	m.out.Write(b)
	return nil
}
func (m *memSocket) Receive(b []byte) (int, error)   { return m.in.Read(b) }
func (m *memSocket) WaitForRead(time.Duration) error  { return nil }
func (m *memSocket) WaitForWrite(time.Duration) error { return nil }
func (m *memSocket) Secure() bool                     { return false }
func (m *memSocket) Disconnect() error                { return nil }

func newTestClient(script string) (*Client, *memSocket) {
	sock := &memSocket{in: bytes.NewBufferString(script), out: &bytes.Buffer{}}
	c := &Client{sock: sock, br: bufio.NewReader(socketReader{sock}), Capabilities: make(map[string]bool)}
	return c, sock
}

func TestParseListLine(t *testing.T) {
	e, err := parseListLine("2 200")
	if err != nil {
		t.Fatal(err)
	}
	if e.Msg != 2 || e.Octets != 200 {
		t.Fatalf("got %+v", e)
	}
}

func TestParseListLine_Malformed(t *testing.T) {
	if _, err := parseListLine("nope"); err == nil {
		t.Fatal("expected error for malformed LIST line")
	}
}

func TestReadMultiline_UnstuffsLeadingDot(t *testing.T) {
	c, _ := newTestClient("Subject: hi\r\n..leading dot line\r\nnormal line\r\n.\r\n")
	lines, err := c.readMultiline()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Subject: hi", ".leading dot line", "normal line"}
	if len(lines) != len(want) {
		t.Fatalf("got %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, lines[i], want[i])
		}
	}
}

func TestStat_ParsesCountAndOctets(t *testing.T) {
	c, _ := newTestClient("+OK 3 1200\r\n")
	count, octets, err := c.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || octets != 1200 {
		t.Fatalf("got count=%d octets=%d", count, octets)
	}
}

func TestCommand_NegativeReplyIsPermanentCommandError(t *testing.T) {
	c, _ := newTestClient("-ERR no such mailbox\r\n")
	_, err := c.command("USER bob")
	if err == nil {
		t.Fatal("expected error for -ERR reply")
	}
}

func TestAPOP_RequiresBanner(t *testing.T) {
	c, _ := newTestClient("")
	c.state = Authorization
	if err := c.APOP("user", "pass"); err == nil {
		t.Fatal("expected error when greeting carried no APOP banner")
	}
}

func TestDial_ExtractsAPOPBanner(t *testing.T) {
	sock := &memSocket{in: bytes.NewBufferString("+OK POP3 server ready <1896.697170952@dbc.mtview.ca.us>\r\n"), out: &bytes.Buffer{}}
	c := &Client{sock: sock, br: bufio.NewReader(socketReader{sock}), Capabilities: make(map[string]bool)}
	line, ok, err := c.readStatusLine()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected +OK greeting")
	}
	if m := apopBannerRE.FindString(line); m != "<1896.697170952@dbc.mtview.ca.us>" {
		t.Fatalf("got banner %q", m)
	}
}
