package imapclient

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"vmime.dev/vmime/imapparser"
)

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

func newTestConn(script string) *Conn {
	sock := &memSocket{in: bytes.NewBufferString(script), out: &bytes.Buffer{}}
	c := &Conn{sock: sock, br: bufio.NewReader(socketReader{sock}), Capabilities: make(map[string]bool)}
	c.p = imapparser.NewParser(c.br, nil)
	c.state = Authenticated
	return c
}

// TestScenarioS5_SelectPopulatesFolder replays spec scenario S5's
// transcript: after SELECT's untagged data and tagged completion, the
// folder mirror should report messageCount=172, recent=1,
// uidValidity=3857529045, read-write, state=Selected.
func TestScenarioS5_SelectPopulatesFolder(t *testing.T) {
	script := "* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)\r\n" +
		"* 172 EXISTS\r\n" +
		"* 1 RECENT\r\n" +
		"* OK [UNSEEN 12] Message 12 is first unseen\r\n" +
		"* OK [UIDVALIDITY 3857529045] UIDs valid\r\n" +
		"A0001 OK [READ-WRITE] SELECT completed\r\n"
	c := newTestConn(script)

	folder, err := c.Select("INBOX")
	if err != nil {
		t.Fatal(err)
	}
	if folder.MessageCount != 172 {
		t.Fatalf("messageCount: got %d", folder.MessageCount)
	}
	if folder.Recent != 1 {
		t.Fatalf("recent: got %d", folder.Recent)
	}
	if folder.UIDValidity != 3857529045 {
		t.Fatalf("uidValidity: got %d", folder.UIDValidity)
	}
	if !folder.ReadWrite {
		t.Fatal("expected read-write mode")
	}
	if c.State() != Selected {
		t.Fatalf("state: got %v", c.State())
	}
	if folder.FirstUnseen != 12 {
		t.Fatalf("firstUnseen: got %d", folder.FirstUnseen)
	}
}

func TestFolder_ExpungeRenumbers(t *testing.T) {
	f := newFolder(nil, "INBOX")
	f.MessageCount = 5
	f.mirror[1] = &MessageMirror{UID: 100}
	f.mirror[2] = &MessageMirror{UID: 200}
	f.mirror[3] = &MessageMirror{UID: 300}

	f.expunge(2)

	if f.MessageCount != 4 {
		t.Fatalf("got messageCount %d", f.MessageCount)
	}
	if _, ok := f.mirror[2]; ok {
		t.Fatal("message 2 should have been removed")
	}
	if f.mirror[1].UID != 100 {
		t.Fatalf("message 1 should be unaffected, got %+v", f.mirror[1])
	}
	if f.mirror[2] == nil || f.mirror[2].UID != 300 {
		t.Fatalf("message 3 should shift down to 2, got %+v", f.mirror[2])
	}
}

func TestFolder_ApplyFetch_IgnoresUIDLessNewMessage(t *testing.T) {
	f := newFolder(nil, "INBOX")
	changed := f.applyFetch(1, &imapparser.FetchData{Flags: []string{"\\Seen"}})
	if changed {
		t.Fatal("a flags-only FETCH for an unseen message should not create a mirror entry")
	}
	if _, ok := f.mirror[1]; ok {
		t.Fatal("mirror should not have been populated")
	}
}

func TestFolder_ApplyFetch_UpdatesKnownMessage(t *testing.T) {
	f := newFolder(nil, "INBOX")
	f.applyFetch(1, &imapparser.FetchData{UID: 42, Flags: []string{"\\Seen"}})
	changed := f.applyFetch(1, &imapparser.FetchData{Flags: []string{"\\Seen", "\\Flagged"}})
	if !changed {
		t.Fatal("expected change reported for a flag update on a tracked message")
	}
	if len(f.mirror[1].Flags) != 2 {
		t.Fatalf("got %v", f.mirror[1].Flags)
	}
	if f.mirror[1].UID != 42 {
		t.Fatalf("UID should be retained from the original FETCH, got %d", f.mirror[1].UID)
	}
}

func TestMailboxArg_EncodesAndQuotes(t *testing.T) {
	got := mailboxArg("INBOX")
	if got != `"INBOX"` {
		t.Fatalf("got %q", got)
	}
}
