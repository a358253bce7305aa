package imapclient

import (
	"strings"

	"vmime.dev/vmime/imapparser"
	"vmime.dev/vmime/vmimeerr"
)

// MessageMirror is the locally cached per-message state spec.md §4.7
// describes: populated by FETCH, kept current by STORE-echoed FETCH
// and reconciled across EXPUNGE renumbering.
type MessageMirror struct {
	UID   uint32
	Flags []string
}

// Folder is the mirror of a SELECTed or EXAMINEd mailbox: the message
// count/flags/UID state spec.md §4.7 requires a connection to track
// between FETCHes, kept in sync by untagged responses as they arrive.
type Folder struct {
	conn *Conn

	Name      string
	ReadWrite bool

	MessageCount  uint32
	Recent        uint32
	UIDValidity   uint32
	UIDNext       uint32
	FirstUnseen   uint32
	HighestModSeq int64

	Flags          []string // FLAGS response: flags usable in this folder
	PermanentFlags []string // PERMANENTFLAGS resp-text-code

	mirror map[uint32]*MessageMirror
}

func newFolder(c *Conn, name string) *Folder {
	return &Folder{conn: c, Name: name, mirror: make(map[uint32]*MessageMirror)}
}

// Mirror returns the cached state for a sequence number, or nil if this
// folder has never fetched it.
func (f *Folder) Mirror(seqNum uint32) *MessageMirror { return f.mirror[seqNum] }

// expunge applies spec.md §8's EXPUNGE renumbering invariant: the
// message numbered n is removed, and every cached message numbered
// greater than n has its number decremented by one.
func (f *Folder) expunge(n uint32) {
	delete(f.mirror, n)
	shifted := make(map[uint32]*MessageMirror, len(f.mirror))
	for seq, m := range f.mirror {
		switch {
		case seq > n:
			shifted[seq-1] = m
		case seq < n:
			shifted[seq] = m
		}
	}
	f.mirror = shifted
	if f.MessageCount > 0 {
		f.MessageCount--
	}
}

// applyFetch reconciles one FETCH response's flags/UID into the
// mirror. Per spec.md §4.7, a STORE-echoed FETCH (flags with no UID,
// for a message this folder never fetched before) does not create a
// new mirror entry; only messages previously seen via an explicit
// FETCH/UID FETCH get tracked.
func (f *Folder) applyFetch(seqNum uint32, fd *imapparser.FetchData) bool {
	if fd == nil {
		return false
	}
	m, ok := f.mirror[seqNum]
	if !ok {
		if fd.UID == 0 {
			return false
		}
		m = &MessageMirror{}
		f.mirror[seqNum] = m
	}
	if fd.UID != 0 {
		m.UID = fd.UID
	}
	changed := false
	if fd.Flags != nil {
		m.Flags = append([]string(nil), fd.Flags...)
		changed = true
	}
	return changed
}

// mailboxArg renders name as the quoted modified-UTF-7 wire form
// spec.md §4.7 specifies. EncodeMailboxName's output never contains
// 8-bit bytes, but ASCII bytes, control characters such as CR/LF
// included, pass through it unchanged; the result is always sent as a
// quoted string, never as a literal.
func mailboxArg(name string) string {
	return quoteIMAPString(imapparser.EncodeMailboxName(name))
}

func (c *Conn) requireAuthenticated(verb string) error {
	if c.state != Authenticated && c.state != Selected {
		return vmimeerr.New(vmimeerr.IllegalState, verb+" requires Authenticated or Selected state")
	}
	return nil
}

func (c *Conn) requireSelected(verb string) error {
	if c.state != Selected {
		return vmimeerr.New(vmimeerr.IllegalState, verb+" requires Selected state")
	}
	return nil
}

// selectFolder implements both SELECT and EXAMINE: build the command,
// let the normal read loop populate the new Folder's mirror from the
// untagged FLAGS/EXISTS/RECENT/OK[...] responses (scenario S5), then
// read the tagged completion's own resp-text-code for READ-WRITE/-ONLY.
func (c *Conn) selectFolder(name, verb string) (*Folder, error) {
	if err := c.requireAuthenticated(verb); err != nil {
		return nil, err
	}
	folder := newFolder(c, name)
	prevSelected := c.selected
	c.selected = folder

	_, tagged, err := c.command("%s %s", verb, mailboxArg(name))
	if err != nil {
		c.selected = prevSelected
		return nil, err
	}
	if err := commandErr(verb, tagged); err != nil {
		c.selected = prevSelected
		return nil, err
	}

	switch tagged.Code {
	case "READ-WRITE":
		folder.ReadWrite = true
	case "READ-ONLY":
		folder.ReadWrite = false
	default:
		folder.ReadWrite = verb == "SELECT"
	}
	c.setState(Selected)
	return folder, nil
}

// Select issues SELECT, transitioning Authenticated → Selected.
func (c *Conn) Select(name string) (*Folder, error) { return c.selectFolder(name, "SELECT") }

// Examine issues EXAMINE (read-only SELECT).
func (c *Conn) Examine(name string) (*Folder, error) { return c.selectFolder(name, "EXAMINE") }

// Close issues CLOSE, transitioning Selected → Authenticated and
// silently expunging \Deleted messages, per RFC 3501 §6.4.2.
func (c *Conn) Close() error {
	if err := c.requireSelected("CLOSE"); err != nil {
		return err
	}
	_, tagged, err := c.command("CLOSE")
	if err != nil {
		return err
	}
	if err := commandErr("CLOSE", tagged); err != nil {
		return err
	}
	c.selected = nil
	c.setState(Authenticated)
	return nil
}

func (c *Conn) Create(name string) error {
	if err := c.requireAuthenticated("CREATE"); err != nil {
		return err
	}
	_, tagged, err := c.command("CREATE %s", mailboxArg(name))
	if err != nil {
		return err
	}
	return commandErr("CREATE", tagged)
}

func (c *Conn) Delete(name string) error {
	if err := c.requireAuthenticated("DELETE"); err != nil {
		return err
	}
	_, tagged, err := c.command("DELETE %s", mailboxArg(name))
	if err != nil {
		return err
	}
	return commandErr("DELETE", tagged)
}

func (c *Conn) Rename(oldName, newName string) error {
	if err := c.requireAuthenticated("RENAME"); err != nil {
		return err
	}
	_, tagged, err := c.command("RENAME %s %s", mailboxArg(oldName), mailboxArg(newName))
	if err != nil {
		return err
	}
	return commandErr("RENAME", tagged)
}

func (c *Conn) Subscribe(name string) error {
	if err := c.requireAuthenticated("SUBSCRIBE"); err != nil {
		return err
	}
	_, tagged, err := c.command("SUBSCRIBE %s", mailboxArg(name))
	if err != nil {
		return err
	}
	return commandErr("SUBSCRIBE", tagged)
}

func (c *Conn) Unsubscribe(name string) error {
	if err := c.requireAuthenticated("UNSUBSCRIBE"); err != nil {
		return err
	}
	_, tagged, err := c.command("UNSUBSCRIBE %s", mailboxArg(name))
	if err != nil {
		return err
	}
	return commandErr("UNSUBSCRIBE", tagged)
}

// MailboxListEntry is a decoded LIST/LSUB result: Name has already
// been converted out of the wire's modified-UTF-7 form.
type MailboxListEntry struct {
	Name      string
	Delimiter byte
	Flags     []string
}

func (c *Conn) list(verb, reference, pattern string) ([]MailboxListEntry, error) {
	if err := c.requireAuthenticated(verb); err != nil {
		return nil, err
	}
	untagged, tagged, err := c.command("%s %s %s", verb, quoteIMAPString(reference), mailboxPattern(pattern))
	if err != nil {
		return nil, err
	}
	if err := commandErr(verb, tagged); err != nil {
		return nil, err
	}
	var out []MailboxListEntry
	for _, u := range untagged {
		if u.Kind != imapparser.KindList {
			continue
		}
		if c.Delimiter == 0 && u.List.Delimiter != 0 {
			c.Delimiter = u.List.Delimiter
		}
		out = append(out, MailboxListEntry{
			Name:      imapparser.DecodeMailboxName(u.List.Name),
			Delimiter: u.List.Delimiter,
			Flags:     u.List.Flags,
		})
	}
	return out, nil
}

// mailboxPattern quotes a LIST/LSUB pattern verbatim, '%'/'*'
// wildcards included. Patterns do not go through EncodeMailboxName, so
// a non-ASCII pattern is sent as raw UTF-8 rather than modified UTF-7.
func mailboxPattern(pattern string) string {
	if pattern == "" {
		return `""`
	}
	return quoteIMAPString(pattern)
}

// List issues LIST reference pattern.
func (c *Conn) List(reference, pattern string) ([]MailboxListEntry, error) {
	return c.list("LIST", reference, pattern)
}

// LSub issues LSUB reference pattern.
func (c *Conn) LSub(reference, pattern string) ([]MailboxListEntry, error) {
	return c.list("LSUB", reference, pattern)
}

// DiscoverHierarchyDelimiter issues LIST "" "" (spec.md §4.7) and
// returns the server-announced separator, caching it on the Conn.
func (c *Conn) DiscoverHierarchyDelimiter() (byte, error) {
	if _, err := c.List("", ""); err != nil {
		return 0, err
	}
	return c.Delimiter, nil
}

// Status issues STATUS mailbox (items...), returning the parsed
// item/value map (e.g. {"MESSAGES": 231, "UIDNEXT": 44292}).
func (c *Conn) Status(name string, items ...string) (map[string]int64, error) {
	if err := c.requireAuthenticated("STATUS"); err != nil {
		return nil, err
	}
	untagged, tagged, err := c.command("STATUS %s (%s)", mailboxArg(name), strings.Join(items, " "))
	if err != nil {
		return nil, err
	}
	if err := commandErr("STATUS", tagged); err != nil {
		return nil, err
	}
	for _, u := range untagged {
		if u.Kind == imapparser.KindStatusData {
			return u.StatusItems, nil
		}
	}
	return nil, vmimeerr.New(vmimeerr.UnexpectedResponse, "STATUS: no STATUS data in response")
}

// Copy issues COPY seqset mailbox.
func (c *Conn) Copy(seqset, mailbox string) error {
	if err := c.requireSelected("COPY"); err != nil {
		return err
	}
	_, tagged, err := c.command("COPY %s %s", seqset, mailboxArg(mailbox))
	if err != nil {
		return err
	}
	return commandErr("COPY", tagged)
}

// UIDCopy issues UID COPY uidset mailbox.
func (c *Conn) UIDCopy(uidset, mailbox string) error {
	if err := c.requireSelected("UID COPY"); err != nil {
		return err
	}
	_, tagged, err := c.command("UID COPY %s %s", uidset, mailboxArg(mailbox))
	if err != nil {
		return err
	}
	return commandErr("UID COPY", tagged)
}

// StoreMode selects STORE's flag operation: replace, add, or remove.
type StoreMode int

const (
	StoreSet StoreMode = iota
	StoreAdd
	StoreRemove
)

func (m StoreMode) verb(silent bool) string {
	switch m {
	case StoreAdd:
		if silent {
			return "+FLAGS.SILENT"
		}
		return "+FLAGS"
	case StoreRemove:
		if silent {
			return "-FLAGS.SILENT"
		}
		return "-FLAGS"
	default:
		if silent {
			return "FLAGS.SILENT"
		}
		return "FLAGS"
	}
}

// Store issues STORE seqset <mode>FLAGS (flags). Untagged FETCH
// responses it provokes are reconciled into the folder mirror by the
// normal read loop before Store returns.
func (c *Conn) Store(seqset string, mode StoreMode, silent bool, flags []string) error {
	if err := c.requireSelected("STORE"); err != nil {
		return err
	}
	_, tagged, err := c.command("STORE %s %s (%s)", seqset, mode.verb(silent), strings.Join(flags, " "))
	if err != nil {
		return err
	}
	return commandErr("STORE", tagged)
}

// UIDStore issues UID STORE uidset <mode>FLAGS (flags).
func (c *Conn) UIDStore(uidset string, mode StoreMode, silent bool, flags []string) error {
	if err := c.requireSelected("UID STORE"); err != nil {
		return err
	}
	_, tagged, err := c.command("UID STORE %s %s (%s)", uidset, mode.verb(silent), strings.Join(flags, " "))
	if err != nil {
		return err
	}
	return commandErr("UID STORE", tagged)
}

// Expunge issues EXPUNGE; each "* n EXPUNGE" the server sends back is
// applied to the folder mirror (Folder.expunge) before Expunge returns.
func (c *Conn) Expunge() error {
	if err := c.requireSelected("EXPUNGE"); err != nil {
		return err
	}
	_, tagged, err := c.command("EXPUNGE")
	if err != nil {
		return err
	}
	return commandErr("EXPUNGE", tagged)
}

// FetchResult pairs one FETCH response's sequence number with its data.
type FetchResult struct {
	SeqNum uint32
	Data   *imapparser.FetchData
}

func (c *Conn) fetch(verb, set, items string) ([]FetchResult, error) {
	if err := c.requireSelected(verb); err != nil {
		return nil, err
	}
	untagged, tagged, err := c.command("%s %s %s", verb, set, items)
	if err != nil {
		return nil, err
	}
	if err := commandErr(verb, tagged); err != nil {
		return nil, err
	}
	var out []FetchResult
	for _, u := range untagged {
		if u.Kind == imapparser.KindFetch {
			out = append(out, FetchResult{SeqNum: u.SeqNum, Data: u.Fetch})
		}
	}
	return out, nil
}

// Fetch issues FETCH seqset items, e.g. items = "(FLAGS UID BODYSTRUCTURE)".
func (c *Conn) Fetch(seqset, items string) ([]FetchResult, error) {
	return c.fetch("FETCH", seqset, items)
}

// UIDFetch issues UID FETCH uidset items.
func (c *Conn) UIDFetch(uidset, items string) ([]FetchResult, error) {
	return c.fetch("UID FETCH", uidset, items)
}

func (c *Conn) search(verb, criteria string) ([]uint32, int64, error) {
	if err := c.requireSelected(verb); err != nil {
		return nil, 0, err
	}
	untagged, tagged, err := c.command("%s %s", verb, criteria)
	if err != nil {
		return nil, 0, err
	}
	if err := commandErr(verb, tagged); err != nil {
		return nil, 0, err
	}
	for _, u := range untagged {
		if u.Kind == imapparser.KindSearch {
			return u.SearchHits, u.SearchHighestModSeq, nil
		}
	}
	return nil, 0, nil
}

// Search issues SEARCH criteria, returning matching sequence numbers.
func (c *Conn) Search(criteria string) ([]uint32, error) {
	hits, _, err := c.search("SEARCH", criteria)
	return hits, err
}

// UIDSearch issues UID SEARCH criteria, returning matching UIDs.
func (c *Conn) UIDSearch(criteria string) ([]uint32, error) {
	hits, _, err := c.search("UID SEARCH", criteria)
	return hits, err
}
