// Package sasl implements the SASL mechanisms spec.md §4.10 names:
// a stateful, round-based challenge/response object, eventually wrapping
// the connection's transport.Socket in a SASLSocket integrity/privacy
// layer. Mechanisms are grounded on RFC 2195 (CRAM-MD5), RFC 4616
// (PLAIN), RFC 4422 appendix A (LOGIN, deprecated but widely deployed),
// and RFC 5802 (SCRAM), the last via github.com/xdg-go/scram the same
// way the wider pack's mail stack layers SCRAM for authentication.
package sasl

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/xdg-go/scram"
	"github.com/xdg-go/stringprep"

	"vmime.dev/vmime/vmimeerr"
)

// Mechanism is a stateful SASL mechanism object, spec.md §4.10.
type Mechanism interface {
	// Name returns the IANA SASL mechanism name (e.g. "CRAM-MD5").
	Name() string
	// Step feeds the (base64-decoded) server challenge, if any, and
	// returns the next client response to send (base64-encode it
	// before writing to the wire); the first call for mechanisms that
	// send first (PLAIN) receives a nil challenge.
	Step(serverChallenge []byte) ([]byte, error)
	// IsComplete reports whether the mechanism considers negotiation
	// finished; authentication success/failure is still reported
	// separately by the protocol client reading the server's final
	// reply code.
	IsComplete() bool
	// Encode/Decode apply the negotiated security layer (integrity or
	// privacy protection) to outgoing/incoming application data. Most
	// mechanisms here negotiate no security layer, so Encode/Decode
	// are identity by default.
	Encode(b []byte) ([]byte, error)
	Decode(b []byte) ([]byte, error)
}

// saslprep runs RFC 4013 SASLprep over a username or password before
// it is used in any mechanism below, per spec.md's domain-stack note
// that usernames/passwords are normalized before PLAIN/LOGIN/CRAM-MD5.
// Strings that SASLprep rejects (disallowed bidi or unassigned code
// points) are passed through unchanged rather than failing the whole
// authentication attempt — credentials are usually already ASCII.
func saslprep(s string) string {
	out, err := stringprep.SASLprep.Prepare(s)
	if err != nil {
		return s
	}
	return out
}

// CRAMMD5 implements RFC 2195: the server sends a challenge containing
// a process-unique timestamp token, the client responds with
// "username HMAC-MD5(challenge, password)" hex-encoded.
type CRAMMD5 struct {
	Username string
	Password string

	done bool
}

func (m *CRAMMD5) Name() string { return "CRAM-MD5" }

func (m *CRAMMD5) Step(challenge []byte) ([]byte, error) {
	if m.done {
		return nil, vmimeerr.New(vmimeerr.AuthMechanismUnavailable, "CRAM-MD5: already complete")
	}
	mac := hmac.New(md5.New, []byte(saslprep(m.Password)))
	mac.Write(challenge)
	digest := hex.EncodeToString(mac.Sum(nil))
	m.done = true
	return []byte(fmt.Sprintf("%s %s", saslprep(m.Username), digest)), nil
}

func (m *CRAMMD5) IsComplete() bool            { return m.done }
func (m *CRAMMD5) Encode(b []byte) ([]byte, error) { return b, nil }
func (m *CRAMMD5) Decode(b []byte) ([]byte, error) { return b, nil }

// Plain implements RFC 4616: a single response of
// "authzid\0authcid\0password", sent without waiting for a challenge.
type Plain struct {
	Identity string // authzid; usually empty
	Username string
	Password string

	done bool
}

func (m *Plain) Name() string { return "PLAIN" }

func (m *Plain) Step(_ []byte) ([]byte, error) {
	if m.done {
		return nil, vmimeerr.New(vmimeerr.AuthMechanismUnavailable, "PLAIN: already complete")
	}
	m.done = true
	resp := m.Identity + "\x00" + saslprep(m.Username) + "\x00" + saslprep(m.Password)
	return []byte(resp), nil
}

func (m *Plain) IsComplete() bool            { return m.done }
func (m *Plain) Encode(b []byte) ([]byte, error) { return b, nil }
func (m *Plain) Decode(b []byte) ([]byte, error) { return b, nil }

// Login implements the deprecated but still-deployed LOGIN mechanism:
// two server prompts ("Username:", "Password:"), echoed by smtpserver's
// serveAuthLogin on the server side of this same exchange.
type Login struct {
	Username string
	Password string

	step int
}

func (m *Login) Name() string { return "LOGIN" }

func (m *Login) Step(_ []byte) ([]byte, error) {
	switch m.step {
	case 0:
		m.step++
		return []byte(saslprep(m.Username)), nil
	case 1:
		m.step++
		return []byte(saslprep(m.Password)), nil
	default:
		return nil, vmimeerr.New(vmimeerr.AuthMechanismUnavailable, "LOGIN: already complete")
	}
}

func (m *Login) IsComplete() bool            { return m.step >= 2 }
func (m *Login) Encode(b []byte) ([]byte, error) { return b, nil }
func (m *Login) Decode(b []byte) ([]byte, error) { return b, nil }

// scramMechanism adapts github.com/xdg-go/scram's client conversation
// to the Mechanism interface. SCRAM negotiates no confidentiality
// layer in the variants this package offers (-PLUS channel binding is
// out of scope), so Encode/Decode stay identity.
type scramMechanism struct {
	name string
	conv *scram.ClientConversation
}

// NewSCRAMSHA1 and NewSCRAMSHA256 build a SCRAM-SHA-1 / SCRAM-SHA-256
// client mechanism (RFC 5802), supplementing CRAM-MD5 per spec.md's
// "default CRAM-MD5 when offered, with graceful fallback" — a server
// that advertises SCRAM instead gets this mechanism.
func NewSCRAMSHA1(username, password string) (Mechanism, error) {
	return newSCRAM(scram.SHA1, "SCRAM-SHA-1", username, password)
}

func NewSCRAMSHA256(username, password string) (Mechanism, error) {
	return newSCRAM(scram.SHA256, "SCRAM-SHA-256", username, password)
}

func newSCRAM(gen scram.HashGeneratorFcn, name, username, password string) (Mechanism, error) {
	client, err := gen.NewClient(saslprep(username), saslprep(password), "")
	if err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.AuthMechanismUnavailable, name+": client init failed", err)
	}
	return &scramMechanism{name: name, conv: client.NewConversation()}, nil
}

func (m *scramMechanism) Name() string { return m.name }

func (m *scramMechanism) Step(challenge []byte) ([]byte, error) {
	resp, err := m.conv.Step(string(challenge))
	if err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.AuthFailed, m.name+": step failed", err)
	}
	return []byte(resp), nil
}

func (m *scramMechanism) IsComplete() bool            { return m.conv.Done() }
func (m *scramMechanism) Encode(b []byte) ([]byte, error) { return b, nil }
func (m *scramMechanism) Decode(b []byte) ([]byte, error) { return b, nil }

// EncodeChallenge / DecodeChallenge are the base64 framing every
// mechanism's wire form uses (AUTH continuation lines, SMTP "334 ..."
// prompts, IMAP "+ ..." continuations).
func EncodeChallenge(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func DecodeChallenge(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, vmimeerr.Wrap(vmimeerr.MalformedResponse, "invalid base64 SASL challenge", err)
	}
	return b, nil
}
