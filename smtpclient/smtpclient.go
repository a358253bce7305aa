// Package smtpclient implements the SMTP submission client spec.md
// §4.9 describes: EHLO-with-HELO-fallback, optional SASL and STARTTLS,
// MAIL/RCPT/DATA with dot-stuffing, and opportunistic PIPELINING and
// CHUNKING.
//
// Grounded on smtp/smtpclient/smtpclient.go's single-recipient dialing
// and classification shape, generalized to the full command/response
// cycle smtp/smtpserver/smtpserver.go implements from the other side.
package smtpclient

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vmime.dev/vmime/sasl"
	"vmime.dev/vmime/transport"
	"vmime.dev/vmime/vmimeerr"
)

// PipeliningMode selects smtp.pipelining/smtp.chunking/smtp.smtputf8's
// three-way force-on/force-off/auto setting, per spec.md §6.
type PipeliningMode int

const (
	Auto PipeliningMode = iota
	ForceOn
	ForceOff
)

// Config configures a Client.
type Config struct {
	Timeout    time.Duration
	TLS        *transport.Config
	LocalName  string // EHLO/HELO argument; defaults to "localhost"
	Log        *logrus.Logger
	Pipelining PipeliningMode
	Chunking   PipeliningMode
	SMTPUTF8   PipeliningMode
}

func (cfg *Config) timeout() time.Duration {
	if cfg.Timeout <= 0 {
		return 30 * time.Second
	}
	return cfg.Timeout
}

func (cfg *Config) localName() string {
	if cfg.LocalName == "" {
		return "localhost"
	}
	return cfg.LocalName
}

// reply is one parsed multi-line SMTP response, per spec.md §4.9:
// "NNN<sp>text for a singleton or final line, NNN-text for
// intermediate lines... concatenates text lines for enhanced-status-code
// extraction".
type reply struct {
	Code    int
	Lines   []string
	EnhCode string // "N.N.N", whenever the reply text starts with one; ENHANCEDSTATUSCODES is not checked
}

func (r reply) Text() string { return strings.Join(r.Lines, " ") }

// Severity classifies r.Code per spec.md §6: "2xx success, 3xx
// continue, 4xx transient, 5xx permanent".
func (r reply) Severity() vmimeerr.Severity {
	if r.Code >= 500 {
		return vmimeerr.Permanent
	}
	return vmimeerr.Transient
}

func (r reply) ok() bool { return r.Code >= 200 && r.Code < 400 }

var enhStatusRE = regexp.MustCompile(`^(\d\.\d{1,3}\.\d{1,3})\s*(.*)$`)

// Client is a single SMTP submission connection.
type Client struct {
	cfg  Config
	sock transport.Socket
	br   *bufio.Reader

	extensions map[string]string // EHLO-advertised keyword -> parameter text
	greeted    bool
	authed     bool
	inTx       bool // MAIL issued, transaction open
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

// Dial connects to addr, reads the greeting, and issues EHLO (falling
// back to HELO on a 5xx, per spec.md §4.9), optionally upgrading to
// TLS first when cfg.TLS is set and no STARTTLS dance is wanted.
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

	c := &Client{cfg: cfg, sock: sock, br: bufio.NewReader(socketReader{sock}), extensions: make(map[string]string)}
	greet, err := c.readReply()
	if err != nil {
		sock.Disconnect()
		return nil, err
	}
	if !greet.ok() {
		sock.Disconnect()
		return nil, vmimeerr.CommandErrSeverity("CONNECT", greet.Text(), greet.Text(), greet.Severity())
	}
	c.greeted = true
	if err := c.ehlo(); err != nil {
		sock.Disconnect()
		return nil, err
	}
	return c, nil
}

func (c *Client) writeLine(line string) error {
	if c.cfg.Log != nil {
		c.cfg.Log.WithField("cmd", line).Debug("smtpclient: >")
	}
	if err := c.sock.WaitForWrite(c.cfg.timeout()); err != nil {
		return vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to write", err)
	}
	_, err := (socketWriter{c.sock}).Write([]byte(line + "\r\n"))
	if err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write command", err)
	}
	return nil
}

// readReply reads one full multi-line SMTP response.
func (c *Client) readReply() (reply, error) {
	var r reply
	for {
		if err := c.sock.WaitForRead(c.cfg.timeout()); err != nil {
			return reply{}, vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to read", err)
		}
		line, err := c.br.ReadString('\n')
		if err != nil {
			return reply{}, vmimeerr.Wrap(vmimeerr.ConnectionBroken, "reading reply", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if c.cfg.Log != nil {
			c.cfg.Log.WithField("line", line).Debug("smtpclient: <")
		}
		if len(line) < 3 {
			return reply{}, vmimeerr.Malformed(line)
		}
		code, err := strconv.Atoi(line[:3])
		if err != nil {
			return reply{}, vmimeerr.Malformed(line)
		}
		r.Code = code
		text := ""
		if len(line) > 3 {
			text = strings.TrimPrefix(line[3:], " ")
		}
		if m := enhStatusRE.FindStringSubmatch(text); m != nil {
			r.EnhCode = m[1]
			text = m[2]
		}
		r.Lines = append(r.Lines, text)
		if len(line) >= 4 && line[3] == '-' {
			continue // intermediate line; keep reading
		}
		return r, nil
	}
}

// command writes a single command line and reads its reply.
func (c *Client) command(cmd string) (reply, error) {
	if err := c.writeLine(cmd); err != nil {
		return reply{}, err
	}
	return c.readReply()
}

// has reports whether the server's EHLO response advertised keyword.
func (c *Client) has(keyword string) bool {
	_, ok := c.extensions[keyword]
	return ok
}

func (c *Client) ehlo() error {
	r, err := c.command("EHLO " + c.cfg.localName())
	if err != nil {
		return err
	}
	if r.Code >= 500 {
		// Fall back to HELO, per spec.md §4.9.
		r, err = c.command("HELO " + c.cfg.localName())
		if err != nil {
			return err
		}
		if !r.ok() {
			return vmimeerr.CommandErrSeverity("HELO", r.Text(), r.Text(), r.Severity())
		}
		return nil
	}
	if !r.ok() {
		return vmimeerr.CommandErrSeverity("EHLO", r.Text(), r.Text(), r.Severity())
	}
	for _, line := range r.Lines[1:] {
		fields := strings.SplitN(line, " ", 2)
		kw := strings.ToUpper(fields[0])
		param := ""
		if len(fields) > 1 {
			param = fields[1]
		}
		c.extensions[kw] = param
	}
	return nil
}

// pipeliningEnabled resolves cfg.Pipelining against server advertisement.
func (c *Client) pipeliningEnabled() bool {
	switch c.cfg.Pipelining {
	case ForceOn:
		return true
	case ForceOff:
		return false
	default:
		return c.has("PIPELINING")
	}
}

func (c *Client) chunkingEnabled() bool {
	switch c.cfg.Chunking {
	case ForceOn:
		return true
	case ForceOff:
		return false
	default:
		return c.has("CHUNKING")
	}
}

func (c *Client) smtputf8Enabled() bool {
	switch c.cfg.SMTPUTF8 {
	case ForceOn:
		return true
	case ForceOff:
		return false
	default:
		return c.has("SMTPUTF8")
	}
}

// StartTLS issues STARTTLS and upgrades the connection in place,
// re-issuing EHLO afterward per RFC 3207 (a pre-TLS EHLO is
// untrustworthy, same rationale as imapclient.StartTLS).
func (c *Client) StartTLS(cfg *transport.Config) error {
	if !c.has("STARTTLS") {
		return vmimeerr.New(vmimeerr.TLSUnavailable, "server did not advertise STARTTLS")
	}
	r, err := c.command("STARTTLS")
	if err != nil {
		return err
	}
	if !r.ok() {
		return vmimeerr.CommandErrSeverity("STARTTLS", r.Text(), r.Text(), r.Severity())
	}
	raw, ok := c.sock.(*transport.Conn)
	if !ok {
		return vmimeerr.New(vmimeerr.TLSUnavailable, "STARTTLS: socket does not support TLS upgrade")
	}
	tc, err := transport.UpgradeTLS(raw, cfg.ServerName, cfg)
	if err != nil {
		return err
	}
	c.sock = tc
	c.br = bufio.NewReader(socketReader{tc})
	c.extensions = make(map[string]string)
	return c.ehlo()
}

// Authenticate runs AUTH mechanism over this connection, per spec.md
// §4.9's "optional SASL (via a selectable mechanism, default CRAM-MD5
// when offered, with graceful fallback to LOGIN and PLAIN)".
func (c *Client) Authenticate(mech sasl.Mechanism) error {
	if !c.has("AUTH") {
		return vmimeerr.New(vmimeerr.AuthMechanismUnavailable, "server did not advertise AUTH")
	}
	if err := c.writeLine("AUTH " + mech.Name()); err != nil {
		return err
	}
	for {
		r, err := c.readReply()
		if err != nil {
			return err
		}
		switch {
		case r.Code == 235:
			c.wrapSASLSocket(mech)
			c.authed = true
			return nil
		case r.Code == 334:
			challenge, err := sasl.DecodeChallenge(r.Text())
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
		default:
			return vmimeerr.CommandErrSeverity("AUTH", r.Text(), r.Text(), r.Severity())
		}
	}
}

// wrapSASLSocket replaces c.sock with a sasl.Socket funneling traffic
// through mech's negotiated security layer, per spec.md §4.10.
func (c *Client) wrapSASLSocket(mech sasl.Mechanism) {
	c.sock = sasl.NewSocket(c.sock, mech)
	c.br = bufio.NewReader(socketReader{c.sock})
}

// PickMechanism chooses among the mechanisms the server's AUTH
// extension advertised, preferring CRAM-MD5, then LOGIN, then PLAIN —
// the fallback order spec.md §4.9 names. It returns "" if none of the
// candidates is advertised.
func (c *Client) PickMechanism() string {
	advertised := strings.Fields(c.extensions["AUTH"])
	offered := make(map[string]bool, len(advertised))
	for _, m := range advertised {
		offered[strings.ToUpper(m)] = true
	}
	for _, pref := range []string{"CRAM-MD5", "LOGIN", "PLAIN"} {
		if offered[pref] {
			return pref
		}
	}
	return ""
}

// Recipient is one RCPT TO outcome from Send.
type Recipient struct {
	Address string
	Err     error // nil on 2xx acceptance
}

// Reset issues RSET, clearing any open transaction — the recovery step
// spec.md §4.9's error-handling paragraph and scenario S6 both require
// after a 5xx on MAIL or RCPT.
func (c *Client) Reset() error {
	r, err := c.command("RSET")
	if err != nil {
		return err
	}
	c.inTx = false
	if !r.ok() {
		return vmimeerr.CommandErrSeverity("RSET", r.Text(), r.Text(), r.Severity())
	}
	return nil
}

// Send runs one full MAIL/RCPT.../DATA transaction. recipients that
// are rejected with a 5xx are reported in the returned []Recipient
// without aborting the others; a 5xx on MAIL, or DATA itself, aborts
// immediately (after RSET) per spec.md §4.9.
func (c *Client) Send(from string, recipients []string, size int64, content io.Reader) ([]Recipient, error) {
	mailCmd, rcptCmds := c.buildEnvelope(from, recipients, size)

	if c.pipeliningEnabled() {
		return c.sendPipelined(mailCmd, rcptCmds, recipients, content)
	}
	return c.sendSequential(mailCmd, rcptCmds, recipients, content)
}

func (c *Client) buildEnvelope(from string, recipients []string, size int64) (mailCmd string, rcptCmds []string) {
	mailCmd = fmt.Sprintf("MAIL FROM:<%s>", from)
	if size > 0 && c.has("SIZE") {
		mailCmd += fmt.Sprintf(" SIZE=%d", size)
	}
	if c.smtputf8Enabled() {
		mailCmd += " SMTPUTF8"
	}
	rcptCmds = make([]string, len(recipients))
	for i, r := range recipients {
		rcptCmds[i] = fmt.Sprintf("RCPT TO:<%s>", r)
	}
	return mailCmd, rcptCmds
}

func (c *Client) sendSequential(mailCmd string, rcptCmds []string, recipients []string, content io.Reader) ([]Recipient, error) {
	r, err := c.command(mailCmd)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		c.Reset()
		return nil, vmimeerr.CommandErrSeverity("MAIL FROM", r.Text(), r.Text(), r.Severity())
	}
	c.inTx = true

	results := make([]Recipient, len(recipients))
	accepted := 0
	for i, cmd := range rcptCmds {
		rr, err := c.command(cmd)
		if err != nil {
			c.Reset()
			return nil, err
		}
		if rr.ok() {
			results[i] = Recipient{Address: recipients[i]}
			accepted++
		} else {
			results[i] = Recipient{Address: recipients[i], Err: vmimeerr.CommandErrSeverity("RCPT TO", rr.Text(), rr.Text(), rr.Severity())}
			if rr.Code >= 500 {
				c.Reset()
			}
		}
	}
	if accepted == 0 {
		return results, nil
	}

	if c.chunkingEnabled() {
		if err := c.sendChunked(content); err != nil {
			c.Reset()
			return results, err
		}
	} else {
		if err := c.sendData(content); err != nil {
			c.Reset()
			return results, err
		}
	}
	c.inTx = false
	return results, nil
}

// sendPipelined writes MAIL+RCPT+DATA in a single flush and reads back
// the replies in order, per spec.md §4.9's "Pipelining ... issues
// MAIL+RCPT+DATA as a single write and reads the responses in order; a
// mismatch in count or code is fatal to the connection."
func (c *Client) sendPipelined(mailCmd string, rcptCmds []string, recipients []string, content io.Reader) ([]Recipient, error) {
	var buf bytes.Buffer
	buf.WriteString(mailCmd + "\r\n")
	for _, cmd := range rcptCmds {
		buf.WriteString(cmd + "\r\n")
	}
	buf.WriteString("DATA\r\n")

	if c.cfg.Log != nil {
		c.cfg.Log.Debug("smtpclient: > (pipelined MAIL/RCPT/DATA)")
	}
	if err := c.sock.WaitForWrite(c.cfg.timeout()); err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.OperationTimedOut, "waiting to write", err)
	}
	if _, err := (socketWriter{c.sock}).Write(buf.Bytes()); err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.SocketError, "write pipelined envelope", err)
	}

	mailReply, err := c.readReply()
	if err != nil {
		return nil, err
	}
	if !mailReply.ok() {
		c.Reset()
		return nil, vmimeerr.CommandErrSeverity("MAIL FROM", mailReply.Text(), mailReply.Text(), mailReply.Severity())
	}
	c.inTx = true

	results := make([]Recipient, len(recipients))
	accepted := 0
	for i := range rcptCmds {
		rr, err := c.readReply()
		if err != nil {
			return nil, err
		}
		if rr.ok() {
			results[i] = Recipient{Address: recipients[i]}
			accepted++
		} else {
			results[i] = Recipient{Address: recipients[i], Err: vmimeerr.CommandErrSeverity("RCPT TO", rr.Text(), rr.Text(), rr.Severity())}
		}
	}

	dataReply, err := c.readReply()
	if err != nil {
		return nil, err
	}
	if accepted == 0 {
		c.Reset()
		return results, nil
	}
	if dataReply.Code != 354 {
		c.Reset()
		return results, vmimeerr.CommandErrSeverity("DATA", dataReply.Text(), dataReply.Text(), dataReply.Severity())
	}
	if err := c.writeContent(content); err != nil {
		c.Reset()
		return results, err
	}
	final, err := c.readReply()
	if err != nil {
		return results, err
	}
	if !final.ok() {
		c.Reset()
		return results, vmimeerr.CommandErrSeverity("DATA", final.Text(), final.Text(), final.Severity())
	}
	c.inTx = false
	return results, nil
}

// sendData issues DATA, streams dot-stuffed content, and reads the
// final reply.
func (c *Client) sendData(content io.Reader) error {
	r, err := c.command("DATA")
	if err != nil {
		return err
	}
	if r.Code != 354 {
		return vmimeerr.CommandErrSeverity("DATA", r.Text(), r.Text(), r.Severity())
	}
	if err := c.writeContent(content); err != nil {
		return err
	}
	final, err := c.readReply()
	if err != nil {
		return err
	}
	if !final.ok() {
		return vmimeerr.CommandErrSeverity("DATA", final.Text(), final.Text(), final.Severity())
	}
	return nil
}

// writeContent dot-stuffs content and terminates with the bare
// "CRLF.CRLF" sequence, per spec.md §4.9: "Content emission dot-stuffs
// every line whose first byte is '.' by prefixing another '.'".
func (c *Client) writeContent(content io.Reader) error {
	w := socketWriter{c.sock}
	br := bufio.NewReader(content)
	atLineStart := true
	buf := make([]byte, 0, 4096)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return vmimeerr.Wrap(vmimeerr.SocketError, "read message content", err)
		}
		if atLineStart && b == '.' {
			buf = append(buf, '.')
		}
		buf = append(buf, b)
		atLineStart = b == '\n'
		if len(buf) >= 4096 {
			if _, err := w.Write(buf); err != nil {
				return vmimeerr.Wrap(vmimeerr.SocketError, "write message content", err)
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		if _, err := w.Write(buf); err != nil {
			return vmimeerr.Wrap(vmimeerr.SocketError, "write message content", err)
		}
	}
	if !atLineStart {
		if _, err := w.Write([]byte("\r\n")); err != nil {
			return vmimeerr.Wrap(vmimeerr.SocketError, "write message content terminator", err)
		}
	}
	if _, err := w.Write([]byte(".\r\n")); err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write DATA terminator", err)
	}
	return nil
}

// sendChunked streams content as a sequence of BDAT chunks (RFC 3030),
// used instead of DATA when the server advertises CHUNKING.
func (c *Client) sendChunked(content io.Reader) error {
	const chunkSize = 1 << 16
	buf := make([]byte, chunkSize)
	for {
		n, err := content.Read(buf)
		if n > 0 {
			last := false
			// Peek for EOF by trying one more byte read isn't
			// available on a generic io.Reader, so the caller passes
			// LAST only on an explicit EOF from this Read call.
			if err == io.EOF {
				last = true
			}
			cmd := fmt.Sprintf("BDAT %d", n)
			if last {
				cmd += " LAST"
			}
			if err := c.writeLine(cmd); err != nil {
				return err
			}
			if err := c.sock.Send(buf[:n]); err != nil {
				return vmimeerr.Wrap(vmimeerr.SocketError, "write BDAT chunk", err)
			}
			r, err := c.readReply()
			if err != nil {
				return err
			}
			if !r.ok() {
				return vmimeerr.CommandErrSeverity("BDAT", r.Text(), r.Text(), r.Severity())
			}
			if last {
				return nil
			}
		}
		if err == io.EOF {
			if err := c.writeLine("BDAT 0 LAST"); err != nil {
				return err
			}
			r, err := c.readReply()
			if err != nil {
				return err
			}
			if !r.ok() {
				return vmimeerr.CommandErrSeverity("BDAT", r.Text(), r.Text(), r.Severity())
			}
			return nil
		}
		if err != nil {
			return vmimeerr.Wrap(vmimeerr.SocketError, "read message content", err)
		}
	}
}

// Noop issues NOOP, a keepalive with no transaction side effects.
func (c *Client) Noop() error {
	r, err := c.command("NOOP")
	if err != nil {
		return err
	}
	if !r.ok() {
		return vmimeerr.CommandErrSeverity("NOOP", r.Text(), r.Text(), r.Severity())
	}
	return nil
}

// Quit issues QUIT and disconnects.
func (c *Client) Quit() error {
	r, err := c.command("QUIT")
	c.sock.Disconnect()
	if err != nil {
		return err
	}
	if !r.ok() {
		return vmimeerr.CommandErrSeverity("QUIT", r.Text(), r.Text(), r.Severity())
	}
	return nil
}
