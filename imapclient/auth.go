package imapclient

import (
	"bufio"
	"strings"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/sasl"
	"vmime.dev/vmime/vmimeerr"
)

// Login issues LOGIN, quoting username/password as IMAP strings.
// Authenticated → transition on success, per spec.md §4.7.
func (c *Conn) Login(username, password string) error {
	if c.state != NonAuthenticated {
		return vmimeerr.New(vmimeerr.IllegalState, "LOGIN requires NonAuthenticated state")
	}
	_, tagged, err := c.command("LOGIN %s %s", quoteIMAPString(username), quoteIMAPString(password))
	if err != nil {
		return err
	}
	if err := commandErr("LOGIN", tagged); err != nil {
		return vmimeerr.Wrap(vmimeerr.AuthFailed, "LOGIN rejected", err)
	}
	c.setState(Authenticated)
	return nil
}

// Authenticate drives the AUTHENTICATE command's base64 challenge loop
// against mech (spec.md §4.10): each "+ <b64 challenge>" continuation
// is base64-decoded, fed to mech.Step, and the base64 response written
// back until the server sends the tagged completion.
func (c *Conn) Authenticate(mech sasl.Mechanism) error {
	if c.state != NonAuthenticated {
		return vmimeerr.New(vmimeerr.IllegalState, "AUTHENTICATE requires NonAuthenticated state")
	}
	tag := c.nextTag()
	line := tag + " AUTHENTICATE " + mech.Name() + "\r\n"
	if _, err := (socketWriter{c.sock}).Write([]byte(line)); err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write AUTHENTICATE", err)
	}

	for {
		resp, err := c.readOne()
		if err != nil {
			return err
		}
		if resp.Tag == tag {
			if err := commandErr("AUTHENTICATE", resp); err != nil {
				return vmimeerr.Wrap(vmimeerr.AuthFailed, "AUTHENTICATE rejected", err)
			}
			c.wrapSASLSocket(mech)
			c.setState(Authenticated)
			return nil
		}
		if resp.Kind != imapparser.KindContinuation {
			c.dispatchUntagged(resp)
			continue
		}
		challenge, decErr := sasl.DecodeChallenge(resp.Mechanism)
		if decErr != nil {
			return decErr
		}
		out, stepErr := mech.Step(challenge)
		if stepErr != nil {
			return stepErr
		}
		respLine := sasl.EncodeChallenge(out) + "\r\n"
		if _, err := (socketWriter{c.sock}).Write([]byte(respLine)); err != nil {
			return vmimeerr.Wrap(vmimeerr.SocketError, "write AUTHENTICATE response", err)
		}
	}
}

// wrapSASLSocket replaces c.sock with a sasl.Socket funneling traffic
// through mech's negotiated security layer, per spec.md §4.10 ("the
// connection's socket is replaced by a SASLSocket ... if the mechanism
// negotiated no security layer, the SASLSocket is a pass-through").
func (c *Conn) wrapSASLSocket(mech sasl.Mechanism) {
	c.sock = sasl.NewSocket(c.sock, mech)
	c.br = bufio.NewReader(socketReader{c.sock})
	c.p.SetSource(c.br)
}

// quoteIMAPString renders s as an IMAP quoted string, escaping '\' and
// '"'. Callers needing 8-bit/CRLF-safe transport should prefer a
// literal instead (spec.md §4.7); username/password are assumed clean.
func quoteIMAPString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '"':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
