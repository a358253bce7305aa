// Package imapclient implements the IMAP4rev1 connection and folder
// state machine spec.md §4.7 describes, built on imapparser for wire
// parsing and transport for the underlying socket. State transitions,
// folder mirrors (message count, flags, UID map) and their events are
// all driven from a single reader goroutine owned by the caller, per
// spec.md §5's "not internally multi-threaded" model.
package imapclient

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"crawshaw.io/iox"
	"github.com/sirupsen/logrus"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/transport"
	"vmime.dev/vmime/vmimeerr"
)

// State is the connection state machine spec.md §4.7 enumerates.
type State int

const (
	None State = iota
	NonAuthenticated
	Authenticated
	Selected
	Logout
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case NonAuthenticated:
		return "non-authenticated"
	case Authenticated:
		return "authenticated"
	case Selected:
		return "selected"
	case Logout:
		return "logout"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a Conn. Zero-value fields resolve to defaults at
// Dial time, the same deferred-default pattern smtpserver.Server.serve
// uses for MaxSize/MaxRecipients/MaxSessions.
type Config struct {
	// Timeout bounds every blocking socket operation (spec.md §6
	// connection.timeout); default 30s.
	Timeout time.Duration

	// TLS, if non-nil, is used for an immediate TLS connect (port 993
	// style); use StartTLS for a plaintext connect that upgrades later.
	TLS *transport.Config

	// UseLiteralPlus uses LITERAL+ non-synchronizing literals when the
	// server advertised it (spec.md §6 imap.useLiteralPlus).
	UseLiteralPlus bool

	// Filer backs large FETCH literals with spill-to-disk storage
	// (imapparser.Scanner's inlineLiteralLimit); nil keeps everything
	// in memory.
	Filer *iox.Filer

	// Log receives one entry per command/response pair at Debug level
	// and state transitions at Info level, mirroring smtpserver's
	// s.log(desc, logFields) helper. A nil Log disables logging.
	Log *logrus.Logger
}

func (cfg *Config) timeout() time.Duration {
	if cfg.Timeout <= 0 {
		return 30 * time.Second
	}
	return cfg.Timeout
}

// Conn is a single IMAP connection and its folder state machine.
type Conn struct {
	cfg   Config
	sock  transport.Socket
	br    *bufio.Reader
	p     *imapparser.Parser
	state State
	tag   uint64

	// Delimiter is the server's mailbox hierarchy separator, discovered
	// by LIST "" "" on first use (spec.md §4.7).
	Delimiter byte

	Capabilities map[string]bool

	events EventHandler

	selected *Folder
}

// Dial connects to addr (host:port) and reads the server greeting.
// When cfg.TLS is set the connection is TLS from the first byte
// (IMAPS, port 993); otherwise use StartTLS after NonAuthenticated to
// upgrade a plaintext connection (port 143).
func Dial(addr string, cfg Config) (*Conn, error) {
	raw, err := transport.Connect("tcp", addr, cfg.timeout())
	if err != nil {
		return nil, err
	}

	var sock transport.Socket = raw
	if cfg.TLS != nil {
		host := addr
		if h, _, splitErr := splitHostPort(addr); splitErr == nil {
			host = h
		}
		tc, err := transport.UpgradeTLS(raw, host, cfg.TLS)
		if err != nil {
			raw.Disconnect()
			return nil, err
		}
		sock = tc
	}

	c := &Conn{
		cfg:          cfg,
		sock:         sock,
		br:           bufio.NewReader(socketReader{sock}),
		Capabilities: make(map[string]bool),
	}
	c.p = imapparser.NewParser(c.br, cfg.Filer)

	resp, err := c.readOne()
	if err != nil {
		sock.Disconnect()
		return nil, err
	}
	if resp.Kind != imapparser.KindStatus || resp.Status == imapparser.StatusBYE {
		sock.Disconnect()
		return nil, vmimeerr.New(vmimeerr.UnexpectedResponse, "no greeting from server")
	}
	c.setState(NonAuthenticated)
	return c, nil
}

func splitHostPort(addr string) (string, string, error) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], nil
		}
	}
	return addr, "", fmt.Errorf("imapclient: no port in %q", addr)
}

// socketReader/socketWriter adapt transport.Socket's Send/Receive to
// io.Reader/io.Writer so imapparser's bufio.Reader and the command
// writer below can use it directly.
type socketReader struct{ sock transport.Socket }

func (r socketReader) Read(p []byte) (int, error) { return r.sock.Receive(p) }

type socketWriter struct{ sock transport.Socket }

func (w socketWriter) Write(p []byte) (int, error) {
	if err := w.sock.Send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) State() State { return c.state }

func (c *Conn) setState(s State) {
	old := c.state
	c.state = s
	if c.cfg.Log != nil {
		c.cfg.Log.WithFields(logrus.Fields{"from": old.String(), "to": s.String()}).Info("imapclient: state transition")
	}
}

// SelectedFolder returns the currently selected Folder, or nil.
func (c *Conn) SelectedFolder() *Folder { return c.selected }

// Subscribe registers fn for topic's events (EventMessageCount,
// EventMessageChanged), delivered as Publish(topic, *Folder).
func (c *Conn) Subscribe(topic Event, fn interface{}) error { return c.events.Subscribe(topic, fn) }

func (c *Conn) nextTag() string {
	n := atomic.AddUint64(&c.tag, 1)
	return fmt.Sprintf("A%04d", n)
}

// command is the low-level send/read-until-tagged loop every typed
// helper below is built on. untagged holds every response received
// between the command and its tagged completion, in wire order, per
// spec.md §5's ordering guarantee.
func (c *Conn) command(format string, args ...interface{}) (untagged []*imapparser.Response, tagged *imapparser.Response, err error) {
	if c.state == Logout || c.state == None {
		return nil, nil, vmimeerr.New(vmimeerr.NotConnected, "not connected")
	}
	tag := c.nextTag()
	cmd := fmt.Sprintf(format, args...)
	line := tag + " " + cmd + "\r\n"

	if c.cfg.Log != nil {
		c.cfg.Log.WithFields(logrus.Fields{"tag": tag, "cmd": cmd}).Debug("imapclient: >")
	}
	if err := c.sock.WaitForWrite(c.cfg.timeout()); err != nil {
		return nil, nil, vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to write", err)
	}
	if _, err := socketWriter{c.sock}.Write([]byte(line)); err != nil {
		return nil, nil, vmimeerr.Wrap(vmimeerr.SocketError, "write command", err)
	}

	for {
		resp, err := c.readOne()
		if err != nil {
			return untagged, nil, err
		}
		if resp.Tag == tag {
			if c.cfg.Log != nil {
				c.cfg.Log.WithFields(logrus.Fields{"tag": tag, "status": string(resp.Status)}).Debug("imapclient: <")
			}
			return untagged, resp, nil
		}
		c.dispatchUntagged(resp)
		untagged = append(untagged, resp)
	}
}

func (c *Conn) readOne() (*imapparser.Response, error) {
	if err := c.sock.WaitForRead(c.cfg.timeout()); err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to read", err)
	}
	resp, err := c.p.ParseResponse()
	if err != nil {
		if err == io.EOF {
			return nil, vmimeerr.Wrap(vmimeerr.ConnectionBroken, "connection closed", err)
		}
		return nil, vmimeerr.Wrap(vmimeerr.MalformedResponse, "reading response", err)
	}
	return resp, nil
}

// dispatchUntagged applies an untagged response to the currently
// selected folder's mirror (EXISTS/RECENT/EXPUNGE/FETCH/FLAGS) and
// fires events, before the caller sees it via command's untagged slice.
func (c *Conn) dispatchUntagged(resp *imapparser.Response) {
	if resp.Kind == imapparser.KindStatus && resp.Status == imapparser.StatusBYE {
		c.setState(Logout)
		return
	}
	if c.selected == nil {
		return
	}
	switch resp.Kind {
	case imapparser.KindExists:
		c.selected.MessageCount = resp.SeqNum
		c.events.Publish(EventMessageCount, c.selected)
	case imapparser.KindRecent:
		c.selected.Recent = resp.SeqNum
	case imapparser.KindExpunge:
		c.selected.expunge(resp.SeqNum)
		c.events.Publish(EventMessageCount, c.selected)
	case imapparser.KindFlags:
		c.selected.Flags = resp.Flags
	case imapparser.KindFetch:
		if c.selected.applyFetch(resp.SeqNum, resp.Fetch) {
			c.events.Publish(EventMessageChanged, c.selected)
		}
	case imapparser.KindStatus:
		c.applyStatusCode(resp)
	}
}

// applyStatusCode reads "* OK [UNSEEN 12] ..." / "[UIDVALIDITY n]" /
// "[READ-WRITE]" style resp-text-codes against the selected folder, the
// way scenario S5 requires.
func (c *Conn) applyStatusCode(resp *imapparser.Response) {
	if resp.Code == "" || c.selected == nil {
		return
	}
	var kw string
	var n uint64
	fmt.Sscanf(resp.Code, "%s %d", &kw, &n)
	switch kw {
	case "UNSEEN":
		c.selected.FirstUnseen = uint32(n)
	case "UIDVALIDITY":
		c.selected.UIDValidity = uint32(n)
	case "UIDNEXT":
		c.selected.UIDNext = uint32(n)
	case "HIGHESTMODSEQ":
		c.selected.HighestModSeq = int64(n)
	}
	switch resp.Code {
	case "READ-WRITE":
		c.selected.ReadWrite = true
	case "READ-ONLY":
		c.selected.ReadWrite = false
	}
}

// commandErr returns nil when tagged is a successful completion, and
// otherwise builds the command-error spec.md §7 requires (NO is permanent, BAD is
// treated as permanent too since retrying the same malformed command
// cannot help).
func commandErr(cmd string, tagged *imapparser.Response) error {
	if tagged == nil {
		return vmimeerr.New(vmimeerr.UnexpectedResponse, "no tagged response")
	}
	if tagged.Status == imapparser.StatusOK {
		return nil
	}
	return vmimeerr.CommandErrSeverity(cmd, tagged.Text, string(tagged.Status), vmimeerr.Permanent)
}

// Logout sends LOGOUT and transitions to Logout regardless of outcome.
func (c *Conn) Logout() error {
	_, tagged, err := c.command("LOGOUT")
	c.setState(Logout)
	c.sock.Disconnect()
	if err != nil {
		return err
	}
	return commandErr("LOGOUT", tagged)
}
