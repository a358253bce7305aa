package imapclient

import (
	"bufio"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/transport"
	"vmime.dev/vmime/vmimeerr"
)

// Capability issues CAPABILITY and caches the results on c.Capabilities.
func (c *Conn) Capability() ([]string, error) {
	untagged, tagged, err := c.command("CAPABILITY")
	if err != nil {
		return nil, err
	}
	if err := commandErr("CAPABILITY", tagged); err != nil {
		return nil, err
	}
	var caps []string
	for _, u := range untagged {
		if u.Kind == imapparser.KindCapability {
			caps = u.Capabilities
			for _, cap := range caps {
				c.Capabilities[cap] = true
			}
		}
	}
	return caps, nil
}

// StartTLS issues STARTTLS and, on success, upgrades the underlying
// socket in place (spec.md §4.5's "TLS upgrade wraps an existing
// connected socket"). The connection must re-issue CAPABILITY
// afterward per RFC 3501 §6.2.1, since a pre-TLS CAPABILITY response
// is untrustworthy.
func (c *Conn) StartTLS(cfg *transport.Config) error {
	if c.state != NonAuthenticated {
		return vmimeerr.New(vmimeerr.IllegalState, "STARTTLS requires NonAuthenticated state")
	}
	_, tagged, err := c.command("STARTTLS")
	if err != nil {
		return err
	}
	if err := commandErr("STARTTLS", tagged); err != nil {
		return vmimeerr.Wrap(vmimeerr.TLSUnavailable, "STARTTLS rejected", err)
	}

	raw, ok := c.sock.(*transport.Conn)
	if !ok {
		return vmimeerr.New(vmimeerr.TLSUnavailable, "STARTTLS: socket does not support TLS upgrade")
	}
	host := cfg.ServerName
	tc, err := transport.UpgradeTLS(raw, host, cfg)
	if err != nil {
		return err
	}
	c.sock = tc
	c.br = bufio.NewReader(socketReader{tc})
	c.p.SetSource(c.br)
	return nil
}
