// Package transport implements the socket abstraction spec.md §4.5
// describes: a bidirectional byte stream with connect/disconnect,
// timed send/receive, and a secure-transport status bit, shared by
// imapclient, pop3 and smtpclient. TLS upgrade (including STARTTLS)
// lives in tls.go.
package transport

import (
	"net"
	"time"

	"vmime.dev/vmime/vmimeerr"
)

// Socket is a connected, bidirectional byte stream. Conn (below) is the
// only implementation shipped by this package, but protocol clients
// depend on the interface so tests can substitute an in-memory pipe.
type Socket interface {
	// Send writes b in full or returns an error.
	Send(b []byte) error
	// Receive reads into b and returns the number of bytes read.
	Receive(b []byte) (int, error)
	// WaitForRead blocks until the socket has data to read or timeout
	// elapses; a zero timeout waits indefinitely.
	WaitForRead(timeout time.Duration) error
	// WaitForWrite blocks until the socket is ready to accept a write
	// or timeout elapses.
	WaitForWrite(timeout time.Duration) error
	// Secure reports whether the socket runs over TLS or is wrapped by
	// a SASL socket; a SASL-wrapped socket reports true whether or not
	// its mechanism negotiated an encrypting security layer.
	Secure() bool
	// Disconnect closes the underlying connection.
	Disconnect() error
}

// Conn is the default Socket, backed by a net.Conn. It is deliberately
// thin: dialing, STARTTLS upgrade and SASL wrapping are separate steps
// that each produce a new Socket value layered over the last, mirroring
// how a session in the teacher upgrades s.c/s.br/s.bw in place on
// STARTTLS (smtp/smtpserver/smtpserver.go's "STARTTLS" case).
type Conn struct {
	net.Conn
	secure bool
}

// Connect dials host:port over TCP. The caller is responsible for any
// subsequent TLS or STARTTLS upgrade via UpgradeTLS.
func Connect(network, addr string, timeout time.Duration) (*Conn, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.Dial(network, addr)
	if err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.SocketError, "connect", err)
	}
	return &Conn{Conn: c}, nil
}

func (c *Conn) Send(b []byte) error {
	_, err := c.Conn.Write(b)
	if err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "send", err)
	}
	return nil
}

func (c *Conn) Receive(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if err != nil {
		return n, vmimeerr.Wrap(vmimeerr.SocketError, "receive", err)
	}
	return n, nil
}

func (c *Conn) WaitForRead(timeout time.Duration) error {
	if timeout > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(timeout))
	} else {
		c.Conn.SetReadDeadline(time.Time{})
	}
	return nil
}

func (c *Conn) WaitForWrite(timeout time.Duration) error {
	if timeout > 0 {
		c.Conn.SetWriteDeadline(time.Now().Add(timeout))
	} else {
		c.Conn.SetWriteDeadline(time.Time{})
	}
	return nil
}

func (c *Conn) Secure() bool { return c.secure }

func (c *Conn) Disconnect() error {
	if err := c.Conn.Close(); err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "disconnect", err)
	}
	return nil
}

// CipherLevel is the platform-neutral cipher-suite strength spec.md
// §4.5 and §6 (tls.cipherSuite) name; a caller may instead pass a
// backend-native cipher-suite list directly in Config.CipherSuites.
type CipherLevel string

const (
	CipherDefault CipherLevel = "default"
	CipherHigh    CipherLevel = "high"
	CipherMedium  CipherLevel = "medium"
	CipherLow     CipherLevel = "low"
)
