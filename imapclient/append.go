package imapclient

import (
	"fmt"
	"io"
	"strings"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/vmimeerr"
)

// Append issues APPEND mailbox (flags) {size}CRLF<content>, the one
// command in this package whose argument is itself a literal. It
// writes the command line up to and including the literal's "{N}CRLF",
// waits for the server's "+ " continuation (skipped entirely when
// LITERAL+ is in play, per spec.md §6's imap.useLiteralPlus), then
// streams content and reads the tagged completion.
func (c *Conn) Append(mailbox string, flags []string, content io.Reader, size int64) error {
	if err := c.requireAuthenticated("APPEND"); err != nil {
		return err
	}

	tag := c.nextTag()
	var flagList string
	if len(flags) > 0 {
		flagList = " (" + strings.Join(flags, " ") + ")"
	}

	useLiteralPlus := c.cfg.UseLiteralPlus && c.Capabilities["LITERAL+"]
	literalTag := "{%d}"
	if useLiteralPlus {
		literalTag = "{%d+}"
	}
	prefix := fmt.Sprintf("%s APPEND %s%s "+literalTag+"\r\n", tag, mailboxArg(mailbox), flagList, size)

	if c.cfg.Log != nil {
		c.cfg.Log.WithField("tag", tag).Debug("imapclient: > APPEND (literal)")
	}
	if _, err := (socketWriter{c.sock}).Write([]byte(prefix)); err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write APPEND", err)
	}

	if !useLiteralPlus {
		resp, err := c.readOne()
		if err != nil {
			return err
		}
		if resp.Kind != imapparser.KindContinuation {
			return vmimeerr.New(vmimeerr.UnexpectedResponse, "APPEND: expected continuation request")
		}
	}

	if _, err := io.CopyN(socketWriter{c.sock}, content, size); err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write APPEND literal", err)
	}
	if _, err := (socketWriter{c.sock}).Write([]byte("\r\n")); err != nil {
		return vmimeerr.Wrap(vmimeerr.SocketError, "write APPEND trailer", err)
	}

	for {
		resp, err := c.readOne()
		if err != nil {
			return err
		}
		if resp.Tag == tag {
			return commandErr("APPEND", resp)
		}
		c.dispatchUntagged(resp)
	}
}

// UIDExpunge issues UID EXPUNGE uidset (RFC 4315 UIDPLUS), expunging
// only the named messages instead of every \Deleted message.
func (c *Conn) UIDExpunge(uidset string) error {
	if err := c.requireSelected("UID EXPUNGE"); err != nil {
		return err
	}
	_, tagged, err := c.command("UID EXPUNGE %s", uidset)
	if err != nil {
		return err
	}
	return commandErr("UID EXPUNGE", tagged)
}
