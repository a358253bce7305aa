// Package pop3 implements the POP3 client spec.md §4.8 describes: a
// line-oriented protocol with a three-state machine (Authorization,
// Transaction, Update) built on transport.Socket, the same socket
// abstraction imapclient and smtpclient use.
package pop3

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vmime.dev/vmime/sasl"
	"vmime.dev/vmime/transport"
	"vmime.dev/vmime/vmimeerr"
)

// State is the POP3 session state machine spec.md §4.8 describes.
type State int

const (
	Authorization State = iota
	Transaction
	Update
)

func (s State) String() string {
	switch s {
	case Authorization:
		return "authorization"
	case Transaction:
		return "transaction"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a Client; see imapclient.Config for the shared
// zero-value-default convention this mirrors.
type Config struct {
	Timeout time.Duration
	TLS     *transport.Config
	Log     *logrus.Logger
}

func (cfg *Config) timeout() time.Duration {
	if cfg.Timeout <= 0 {
		return 30 * time.Second
	}
	return cfg.Timeout
}

// Client is a single POP3 connection.
type Client struct {
	cfg   Config
	sock  transport.Socket
	br    *bufio.Reader
	state State

	// apopBanner is the "<...>" timestamp token from the greeting, used
	// by APOP; empty if the server didn't advertise one.
	apopBanner string

	Capabilities map[string]bool
}

var apopBannerRE = regexp.MustCompile(`<[^>]+>`)

// Dial connects to addr and reads the greeting line.
func Dial(addr string, cfg Config) (*Client, error) {
	raw, err := transport.Connect("tcp", addr, cfg.timeout())
	if err != nil {
		return nil, err
	}
	var sock transport.Socket = raw
	if cfg.TLS != nil {
		tc, err := transport.UpgradeTLS(raw, cfg.TLS.ServerName, cfg.TLS)
		if err != nil {
			raw.Disconnect()
			return nil, err
		}
		sock = tc
	}

	c := &Client{cfg: cfg, sock: sock, br: bufio.NewReader(socketReader{sock}), Capabilities: make(map[string]bool)}
	line, ok, err := c.readStatusLine()
	if err != nil {
		sock.Disconnect()
		return nil, err
	}
	if !ok {
		sock.Disconnect()
		return nil, vmimeerr.New(vmimeerr.UnexpectedResponse, "POP3: greeting was -ERR")
	}
	if m := apopBannerRE.FindString(line); m != "" {
		c.apopBanner = m
	}
	c.state = Authorization
	return c, nil
}

type socketReader struct{ sock transport.Socket }

func (r socketReader) Read(p []byte) (int, error) { return r.sock.Receive(p) }

type socketWriter struct{ sock transport.Socket }

func (w socketWriter) Write(p []byte) (int, error) {
	if err := w.sock.Send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Client) State() State { return c.state }

// writeLine sends cmd + CRLF.
func (c *Client) writeLine(cmd string) error {
	if c.cfg.Log != nil {
		c.cfg.Log.WithField("cmd", cmd).Debug("pop3: >")
	}
	if err := c.sock.WaitForWrite(c.cfg.timeout()); err != nil {
		return vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to write", err)
	}
	_, err := (socketWriter{c.sock}).Write([]byte(cmd + "\r\n"))
	if err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write command", err)
	}
	return nil
}

// readLine reads one CRLF-terminated line, trimming the terminator.
func (c *Client) readLine() (string, error) {
	if err := c.sock.WaitForRead(c.cfg.timeout()); err != nil {
		return "", vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to read", err)
	}
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", vmimeerr.Wrap(vmimeerr.ConnectionBroken, "reading line", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readStatusLine reads a single "+OK ..."/"-ERR ..." line.
func (c *Client) readStatusLine() (text string, ok bool, err error) {
	line, err := c.readLine()
	if err != nil {
		return "", false, err
	}
	if c.cfg.Log != nil {
		c.cfg.Log.WithField("line", line).Debug("pop3: <")
	}
	switch {
	case strings.HasPrefix(line, "+OK"):
		return strings.TrimSpace(strings.TrimPrefix(line, "+OK")), true, nil
	case strings.HasPrefix(line, "-ERR"):
		return strings.TrimSpace(strings.TrimPrefix(line, "-ERR")), false, nil
	default:
		return "", false, vmimeerr.Malformed("POP3 status line: " + line)
	}
}

// command sends cmd and reads the single-line reply.
func (c *Client) command(cmd string) (text string, err error) {
	if err := c.writeLine(cmd); err != nil {
		return "", err
	}
	text, ok, err := c.readStatusLine()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", vmimeerr.CommandErrSeverity(cmd, text, text, vmimeerr.Permanent)
	}
	return text, nil
}

// readMultiline reads lines until a bare "." terminator, per spec.md
// §4.8 and §6's byte-stuffing rule: a leading "." on any body line is
// doubled by the sender and halved here on read.
func (c *Client) readMultiline() ([]string, error) {
	var lines []string
	for {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		} else if strings.HasPrefix(line, ".") {
			// A dot followed by non-dot content shouldn't occur
			// mid-stream under proper stuffing, but strip it too
			// rather than reject, matching the parser's lenient
			// posture elsewhere in this engine.
			line = line[1:]
		}
		lines = append(lines, line)
	}
}

// Capa issues CAPA, returning the advertised capability lines.
func (c *Client) Capa() ([]string, error) {
	if err := c.writeLine("CAPA"); err != nil {
		return nil, err
	}
	_, ok, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vmimeerr.New(vmimeerr.OperationNotSupported, "CAPA not supported")
	}
	lines, err := c.readMultiline()
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		name := l
		if i := strings.IndexByte(l, ' '); i >= 0 {
			name = l[:i]
		}
		c.Capabilities[strings.ToUpper(name)] = true
	}
	return lines, nil
}

// STLS upgrades the connection to TLS (RFC 2595), allowed only in
// Authorization state before any credentials are sent.
func (c *Client) STLS(cfg *transport.Config) error {
	if c.state != Authorization {
		return vmimeerr.New(vmimeerr.IllegalState, "STLS requires Authorization state")
	}
	if _, err := c.command("STLS"); err != nil {
		return vmimeerr.Wrap(vmimeerr.TLSUnavailable, "STLS rejected", err)
	}
	raw, ok := c.sock.(*transport.Conn)
	if !ok {
		return vmimeerr.New(vmimeerr.TLSUnavailable, "STLS: socket does not support TLS upgrade")
	}
	tc, err := transport.UpgradeTLS(raw, cfg.ServerName, cfg)
	if err != nil {
		return err
	}
	c.sock = tc
	c.br = bufio.NewReader(socketReader{tc})
	return nil
}

// User issues USER name.
func (c *Client) User(name string) error {
	if c.state != Authorization {
		return vmimeerr.New(vmimeerr.IllegalState, "USER requires Authorization state")
	}
	_, err := c.command("USER " + name)
	return err
}

// Pass issues PASS password; on success transitions Authorization →
// Transaction.
func (c *Client) Pass(password string) error {
	if c.state != Authorization {
		return vmimeerr.New(vmimeerr.IllegalState, "PASS requires Authorization state")
	}
	if _, err := c.command("PASS " + password); err != nil {
		return vmimeerr.Wrap(vmimeerr.AuthFailed, "PASS rejected", err)
	}
	c.state = Transaction
	return nil
}

// APOP authenticates with APOP name, MD5(apopBanner + password), per
// spec.md §4.8 ("MD5 of timestamp + password, if the banner advertised
// one").
func (c *Client) APOP(name, password string) error {
	if c.state != Authorization {
		return vmimeerr.New(vmimeerr.IllegalState, "APOP requires Authorization state")
	}
	if c.apopBanner == "" {
		return vmimeerr.New(vmimeerr.AuthMechanismUnavailable, "APOP: server greeting had no timestamp banner")
	}
	sum := md5.Sum([]byte(c.apopBanner + password))
	digest := hex.EncodeToString(sum[:])
	if _, err := c.command(fmt.Sprintf("APOP %s %s", name, digest)); err != nil {
		return vmimeerr.Wrap(vmimeerr.AuthFailed, "APOP rejected", err)
	}
	c.state = Transaction
	return nil
}

// Auth drives AUTH mechanism's base64 challenge loop (RFC 5034), the
// same continuation pattern imapclient.Authenticate uses.
func (c *Client) Auth(mech sasl.Mechanism) error {
	if c.state != Authorization {
		return vmimeerr.New(vmimeerr.IllegalState, "AUTH requires Authorization state")
	}
	if err := c.writeLine("AUTH " + mech.Name()); err != nil {
		return err
	}
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "+OK") {
			c.wrapSASLSocket(mech)
			c.state = Transaction
			return nil
		}
		if strings.HasPrefix(line, "-ERR") {
			return vmimeerr.New(vmimeerr.AuthFailed, strings.TrimSpace(strings.TrimPrefix(line, "-ERR")))
		}
		if !strings.HasPrefix(line, "+") {
			return vmimeerr.Malformed("AUTH: " + line)
		}
		challenge, err := sasl.DecodeChallenge(strings.TrimSpace(strings.TrimPrefix(line, "+")))
		if err != nil {
			return err
		}
		out, err := mech.Step(challenge)
		if err != nil {
			return err
		}
		if err := c.writeLine(sasl.EncodeChallenge(out)); err != nil {
			return err
		}
	}
}

// wrapSASLSocket replaces c.sock with a sasl.Socket funneling traffic
// through mech's negotiated security layer, per spec.md §4.10.
func (c *Client) wrapSASLSocket(mech sasl.Mechanism) {
	c.sock = sasl.NewSocket(c.sock, mech)
	c.br = bufio.NewReader(socketReader{c.sock})
}

// Stat issues STAT, returning message count and total octets.
func (c *Client) Stat() (count int, octets int64, err error) {
	text, err := c.command("STAT")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, 0, vmimeerr.Malformed("STAT: " + text)
	}
	n, _ := strconv.Atoi(fields[0])
	o, _ := strconv.ParseInt(fields[1], 10, 64)
	return n, o, nil
}

// ListEntry is one LIST/UIDL scan-listing entry.
type ListEntry struct {
	Msg    int
	Octets int64
	UID    string // set only by Uidl
}

// List issues LIST (all messages) or LIST msg (one message).
func (c *Client) List(msg int) ([]ListEntry, error) {
	if msg > 0 {
		text, err := c.command(fmt.Sprintf("LIST %d", msg))
		if err != nil {
			return nil, err
		}
		e, err := parseListLine(text)
		if err != nil {
			return nil, err
		}
		return []ListEntry{e}, nil
	}
	if err := c.writeLine("LIST"); err != nil {
		return nil, err
	}
	_, ok, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vmimeerr.New(vmimeerr.CommandError, "LIST rejected")
	}
	lines, err := c.readMultiline()
	if err != nil {
		return nil, err
	}
	out := make([]ListEntry, 0, len(lines))
	for _, l := range lines {
		e, err := parseListLine(l)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseListLine(s string) (ListEntry, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return ListEntry{}, vmimeerr.Malformed("LIST: " + s)
	}
	msg, _ := strconv.Atoi(fields[0])
	octets, _ := strconv.ParseInt(fields[1], 10, 64)
	return ListEntry{Msg: msg, Octets: octets}, nil
}

// Uidl issues UIDL (all) or UIDL msg (one message).
func (c *Client) Uidl(msg int) ([]ListEntry, error) {
	if msg > 0 {
		text, err := c.command(fmt.Sprintf("UIDL %d", msg))
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, vmimeerr.Malformed("UIDL: " + text)
		}
		n, _ := strconv.Atoi(fields[0])
		return []ListEntry{{Msg: n, UID: fields[1]}}, nil
	}
	if err := c.writeLine("UIDL"); err != nil {
		return nil, err
	}
	_, ok, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vmimeerr.New(vmimeerr.CommandError, "UIDL rejected")
	}
	lines, err := c.readMultiline()
	if err != nil {
		return nil, err
	}
	out := make([]ListEntry, 0, len(lines))
	for _, l := range lines {
		fields := strings.Fields(l)
		if len(fields) < 2 {
			continue
		}
		n, _ := strconv.Atoi(fields[0])
		out = append(out, ListEntry{Msg: n, UID: fields[1]})
	}
	return out, nil
}

// Dele issues DELE msg; deletion only takes effect if QUIT succeeds
// (spec.md §4.8's Update state commits deletions).
func (c *Client) Dele(msg int) error {
	_, err := c.command(fmt.Sprintf("DELE %d", msg))
	return err
}

// Retr issues RETR msg and returns the full (dot-unstuffed) message
// bytes; feed the result to message/msgparser to get a structured
// message.
func (c *Client) Retr(msg int) ([]byte, error) {
	if err := c.writeLine(fmt.Sprintf("RETR %d", msg)); err != nil {
		return nil, err
	}
	_, ok, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vmimeerr.CommandErrSeverity("RETR", "", "message unavailable", vmimeerr.Permanent)
	}
	lines, err := c.readMultiline()
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(lines, "\r\n") + "\r\n"), nil
}

// Top issues TOP msg lines: headers plus the first n body lines.
func (c *Client) Top(msg, lines int) ([]byte, error) {
	if err := c.writeLine(fmt.Sprintf("TOP %d %d", msg, lines)); err != nil {
		return nil, err
	}
	_, ok, err := c.readStatusLine()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vmimeerr.CommandErrSeverity("TOP", "", "message unavailable", vmimeerr.Permanent)
	}
	body, err := c.readMultiline()
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(body, "\r\n") + "\r\n"), nil
}

// Rset issues RSET, unmarking every message scheduled for deletion.
func (c *Client) Rset() error {
	_, err := c.command("RSET")
	return err
}

// Noop issues NOOP.
func (c *Client) Noop() error {
	_, err := c.command("NOOP")
	return err
}

// Quit issues QUIT. In Transaction state this commits any DELE calls
// and transitions to Update, per spec.md §4.8.
func (c *Client) Quit() error {
	_, err := c.command("QUIT")
	if c.state == Transaction {
		c.state = Update
	}
	c.sock.Disconnect()
	return err
}
