package imapparser

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crawshaw.io/iox"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/charset"
	"vmime.dev/vmime/message/encword"
	"vmime.dev/vmime/message/field"
	"vmime.dev/vmime/vmimeerr"
)

// Parser turns a stream of IMAP response lines into Response values.
// One Parser reads an entire connection's worth of responses; it is
// not safe for concurrent use (matching the single-reader-goroutine
// idiom imapclient drives it with).
type Parser struct {
	s       *Scanner
	backend charset.Backend
}

func NewParser(r *bufio.Reader, filer *iox.Filer) *Parser {
	return &Parser{s: NewScanner(r, filer)}
}

func (p *Parser) SetSource(r *bufio.Reader) { p.s.SetSource(r) }

// SetCharsetBackend overrides the charset.Backend used to decode
// RFC 2047 encoded words inside ENVELOPE fields. nil uses the package
// default table.
func (p *Parser) SetCharsetBackend(b charset.Backend) { p.backend = b }

func (p *Parser) malformed(detail string) error {
	return vmimeerr.Malformed("imap response: " + detail)
}

// ParseResponse reads and parses exactly one response line (plus any
// literal it embeds) from the underlying reader.
func (p *Parser) ParseResponse() (*Response, error) {
	s := p.s
	// The scanner does not read a lone '*' as an atom, so untagged
	// responses are recognized here before tokenizing.
	s.consumeWhitespace()
	if s.peekChar() == '*' {
		s.readChar()
		return p.parseUntagged()
	}
	if !s.Next(TokenUnknown) {
		if s.Error != nil {
			return nil, s.Error
		}
		return nil, p.malformed("missing tag")
	}

	switch {
	case s.Token == TokenAtom && string(s.Value) == "+":
		return p.parseContinuation()
	case s.Token == TokenAtom && string(s.Value) == "*":
		return p.parseUntagged()
	case s.Token == TokenAtom:
		tag := string(s.Value)
		return p.parseStatus(tag)
	default:
		return nil, p.malformed(fmt.Sprintf("unexpected leading token %s", s.Token))
	}
}

func (p *Parser) parseContinuation() (*Response, error) {
	text, err := p.readTextToEnd()
	if err != nil {
		return nil, err
	}
	return &Response{Kind: KindContinuation, Tag: "+", Text: text, Mechanism: text}, nil
}

func (p *Parser) parseUntagged() (*Response, error) {
	s := p.s
	if !s.Next(TokenUnknown) {
		return nil, p.eitherErr("expected response type after '*'")
	}

	if s.Token == TokenNumber || (s.Token == TokenAtom && isAllDigits(s.Value)) {
		n, _ := strconv.ParseUint(string(s.Value), 10, 32)
		seqNum := uint32(n)
		if !s.Next(TokenAtom) {
			return nil, p.eitherErr("expected keyword after sequence number")
		}
		switch strings.ToUpper(string(s.Value)) {
		case "EXISTS":
			return &Response{Kind: KindExists, Tag: "*", SeqNum: seqNum}, p.expectEnd()
		case "RECENT":
			return &Response{Kind: KindRecent, Tag: "*", SeqNum: seqNum}, p.expectEnd()
		case "EXPUNGE":
			return &Response{Kind: KindExpunge, Tag: "*", SeqNum: seqNum}, p.expectEnd()
		case "FETCH":
			fd, err := p.parseFetchData()
			if err != nil {
				return nil, err
			}
			return &Response{Kind: KindFetch, Tag: "*", SeqNum: seqNum, Fetch: fd}, p.expectEnd()
		default:
			return nil, p.malformed("unknown numbered response keyword")
		}
	}

	word := strings.ToUpper(string(s.Value))
	switch word {
	case "OK", "NO", "BAD", "PREAUTH", "BYE":
		return p.parseStatusResponse("*", StatusKind(word))
	case "CAPABILITY":
		caps, err := p.readAtomsToEnd()
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindCapability, Tag: "*", Capabilities: caps}, nil
	case "FLAGS":
		flags, err := p.parseFlagList()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		return &Response{Kind: KindFlags, Tag: "*", Flags: flags}, nil
	case "LIST", "LSUB":
		entry, err := p.parseMailboxListEntry()
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindList, Tag: "*", List: entry}, nil
	case "SEARCH":
		hits, highest, err := p.parseSearchResults()
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindSearch, Tag: "*", SearchHits: hits, SearchHighestModSeq: highest}, nil
	case "STATUS":
		mailbox, items, err := p.parseStatusData()
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindStatusData, Tag: "*", StatusMailbox: mailbox, StatusItems: items}, nil
	default:
		// Unrecognized untagged data (e.g. an extension this client
		// doesn't understand): drain to end of line and surface it as
		// a best-effort status line so callers can at least log it.
		text, err := p.readTextToEnd()
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindUnknown, Tag: "*", Text: word + " " + text}, nil
	}
}

func (p *Parser) parseStatus(tag string) (*Response, error) {
	s := p.s
	if !s.Next(TokenAtom) {
		return nil, p.eitherErr("expected status keyword")
	}
	word := strings.ToUpper(string(s.Value))
	switch StatusKind(word) {
	case StatusOK, StatusNO, StatusBAD:
		return p.parseStatusResponse(tag, StatusKind(word))
	default:
		return nil, p.malformed("unexpected tagged response keyword " + word)
	}
}

func (p *Parser) parseStatusResponse(tag string, kind StatusKind) (*Response, error) {
	s := p.s
	resp := &Response{Kind: KindStatus, Tag: tag, Status: kind}

	s.consumeWhitespace()
	if s.peekChar() == '[' {
		code, err := p.readRespTextCode()
		if err != nil {
			return nil, err
		}
		resp.Code = code
	}
	text, err := p.readTextToEnd()
	if err != nil {
		return nil, err
	}
	resp.Text = strings.TrimSpace(text)
	return resp, nil
}

// readRespTextCode reads a bracketed "[CODE ...]" resp-text-code,
// returning its contents without the brackets.
func (p *Parser) readRespTextCode() (string, error) {
	s := p.s
	s.readChar() // consume '['
	var buf []byte
	depth := 1
	for {
		b := s.peekChar()
		if b == 0 {
			return "", p.eitherErr("unterminated resp-text-code")
		}
		if b == '[' {
			depth++
		}
		if b == ']' {
			depth--
			s.readChar()
			if depth == 0 {
				return string(buf), nil
			}
			buf = append(buf, b)
			continue
		}
		s.readChar()
		buf = append(buf, b)
	}
}

// readTextToEnd consumes the remainder of the line (resp-text / the
// continuation greeting), up to and including CRLF, returning it
// without the line terminator.
func (p *Parser) readTextToEnd() (string, error) {
	s := p.s
	s.consumeWhitespace()
	var buf []byte
	for {
		b := s.peekChar()
		if b == 0 {
			if s.ioErr != nil {
				return "", s.ioErr
			}
			return string(buf), nil
		}
		if b == '\r' {
			s.readChar()
			if s.peekChar() == '\n' {
				s.readChar()
			}
			return string(buf), nil
		}
		if b == '\n' {
			s.readChar()
			return string(buf), nil
		}
		s.readChar()
		buf = append(buf, b)
	}
}

func (p *Parser) expectEnd() error {
	s := p.s
	if !s.Next(TokenEnd) {
		if s.Error != nil {
			return s.Error
		}
		return p.malformed("expected end of line")
	}
	return nil
}

func (p *Parser) eitherErr(detail string) error {
	if p.s.Error != nil {
		return p.s.Error
	}
	return p.malformed(detail)
}

func isAllDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (p *Parser) readAtomsToEnd() ([]string, error) {
	s := p.s
	var atoms []string
	for {
		s.consumeWhitespace()
		b := s.peekChar()
		if b == 0 || b == '\r' || b == '\n' {
			break
		}
		if !s.Next(TokenAtom) {
			return nil, p.eitherErr("expected atom")
		}
		atoms = append(atoms, string(s.Value))
	}
	return atoms, p.expectEnd()
}

func (p *Parser) parseFlagList() ([]string, error) {
	s := p.s
	if !s.Next(TokenListStart) {
		return nil, p.eitherErr("expected '('")
	}
	var flags []string
	for {
		s.consumeWhitespace()
		if s.peekChar() == ')' {
			s.Next(TokenListEnd)
			return flags, nil
		}
		if !s.Next(TokenAtom) {
			return nil, p.eitherErr("expected flag atom")
		}
		flags = append(flags, string(s.Value))
	}
}

func (p *Parser) parseMailboxListEntry() (*MailboxListEntry, error) {
	s := p.s
	flags, err := p.parseFlagList()
	if err != nil {
		return nil, err
	}
	s.consumeWhitespace()
	if !s.Next(TokenString) {
		return nil, p.eitherErr("expected mailbox delimiter")
	}
	var delim byte
	if len(s.Value) == 1 {
		delim = s.Value[0]
	}
	s.consumeWhitespace()
	name, err := p.readMailboxName()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return &MailboxListEntry{Flags: flags, Delimiter: delim, Name: name}, nil
}

// readMailboxName reads a mailbox name (quoted string, literal, or
// atom) and decodes it from modified UTF-7 (RFC 3501 section 5.1.3).
func (p *Parser) readMailboxName() (string, error) {
	s := p.s
	if !s.Next(TokenUnknown) {
		return "", p.eitherErr("expected mailbox name")
	}
	return DecodeMailboxName(string(s.Value)), nil
}

func (p *Parser) parseSearchResults() ([]uint32, int64, error) {
	s := p.s
	var hits []uint32
	var highest int64
	for {
		s.consumeWhitespace()
		b := s.peekChar()
		if b == 0 || b == '\r' || b == '\n' {
			break
		}
		if b == '(' {
			// "(MODSEQ <n>)" trailer per RFC 7162.
			s.Next(TokenListStart)
			s.Next(TokenAtom) // "MODSEQ"
			s.Next(TokenUnknown)
			highest, _ = strconv.ParseInt(string(s.Value), 10, 64)
			s.Next(TokenListEnd)
			continue
		}
		if !s.Next(TokenUnknown) {
			return nil, 0, p.eitherErr("expected search hit number")
		}
		n, err := strconv.ParseUint(string(s.Value), 10, 32)
		if err != nil {
			return nil, 0, p.malformed("invalid search hit number")
		}
		hits = append(hits, uint32(n))
	}
	return hits, highest, p.expectEnd()
}

func (p *Parser) parseStatusData() (string, map[string]int64, error) {
	s := p.s
	s.consumeWhitespace()
	mailbox, err := p.readMailboxName()
	if err != nil {
		return "", nil, err
	}
	s.consumeWhitespace()
	if !s.Next(TokenListStart) {
		return "", nil, p.eitherErr("expected '(' in STATUS response")
	}
	items := make(map[string]int64)
	for {
		s.consumeWhitespace()
		if s.peekChar() == ')' {
			s.Next(TokenListEnd)
			break
		}
		if !s.Next(TokenAtom) {
			return "", nil, p.eitherErr("expected status item name")
		}
		name := strings.ToUpper(string(s.Value))
		if !s.Next(TokenUnknown) {
			return "", nil, p.eitherErr("expected status item value")
		}
		n, err := strconv.ParseInt(string(s.Value), 10, 64)
		if err != nil {
			return "", nil, p.malformed("invalid status item value")
		}
		items[name] = n
	}
	if err := p.expectEnd(); err != nil {
		return "", nil, err
	}
	return mailbox, items, nil
}

// parseFetchData parses the "(att att ...)" list that follows a
// numbered "FETCH" keyword.
func (p *Parser) parseFetchData() (*FetchData, error) {
	s := p.s
	if !s.Next(TokenListStart) {
		return nil, p.eitherErr("expected '(' in FETCH response")
	}
	fd := &FetchData{}
	for {
		s.consumeWhitespace()
		if s.peekChar() == ')' {
			s.Next(TokenListEnd)
			return fd, nil
		}
		if !s.Next(TokenAtom) {
			return nil, p.eitherErr("expected FETCH attribute name")
		}
		name := strings.ToUpper(string(s.Value))
		s.consumeWhitespace()
		switch {
		case name == "UID":
			if !s.Next(TokenUnknown) {
				return nil, p.eitherErr("expected UID value")
			}
			n, _ := strconv.ParseUint(string(s.Value), 10, 32)
			fd.UID = uint32(n)
		case name == "FLAGS":
			flags, err := p.parseFlagList()
			if err != nil {
				return nil, err
			}
			fd.Flags = flags
		case name == "INTERNALDATE":
			if !s.Next(TokenString) {
				return nil, p.eitherErr("expected INTERNALDATE value")
			}
			t, err := parseInternalDate(string(s.Value))
			if err != nil {
				return nil, p.malformed(err.Error())
			}
			fd.InternalDate = t
		case name == "RFC822.SIZE":
			if !s.Next(TokenUnknown) {
				return nil, p.eitherErr("expected RFC822.SIZE value")
			}
			n, _ := strconv.ParseUint(string(s.Value), 10, 32)
			fd.RFC822Size = uint32(n)
		case name == "MODSEQ":
			if !s.Next(TokenListStart) {
				return nil, p.eitherErr("expected '(' after MODSEQ")
			}
			if !s.Next(TokenUnknown) {
				return nil, p.eitherErr("expected MODSEQ value")
			}
			fd.ModSeq, _ = strconv.ParseInt(string(s.Value), 10, 64)
			if !s.Next(TokenListEnd) {
				return nil, p.eitherErr("expected ')' after MODSEQ")
			}
		case name == "ENVELOPE":
			env, err := p.parseEnvelope()
			if err != nil {
				return nil, err
			}
			fd.Envelope = env
		case name == "BODYSTRUCTURE" || name == "BODY" && s.peekChar() == '(':
			bs, err := p.parseBodyStructure()
			if err != nil {
				return nil, err
			}
			fd.BodyStructure = bs
		case name == "BODY" || name == "BODY.PEEK":
			section, content, err := p.parseBodySection()
			if err != nil {
				return nil, err
			}
			if fd.BodySection == nil {
				fd.BodySection = make(map[string][]byte)
			}
			fd.BodySection[section] = content
		default:
			return nil, p.malformed("unknown FETCH attribute " + name)
		}
	}
}

// parseBodySection reads "[section]<partial> literal" following a
// BODY/BODY.PEEK fetch attribute name (the '[' has not yet been
// consumed).
func (p *Parser) parseBodySection() (string, []byte, error) {
	s := p.s
	if s.peekChar() != '[' {
		return "", nil, p.malformed("expected '[' after BODY")
	}
	s.readChar()
	var section []byte
	for s.peekChar() != ']' {
		b := s.peekChar()
		if b == 0 {
			return "", nil, p.eitherErr("unterminated body section")
		}
		s.readChar()
		section = append(section, b)
	}
	s.readChar() // consume ']'

	if s.peekChar() == '<' {
		// Partial-range marker on the response, e.g. "<0>"; it carries
		// no extra information we need to retain beyond the literal.
		for s.peekChar() != '>' && s.peekChar() != 0 {
			s.readChar()
		}
		if s.peekChar() == '>' {
			s.readChar()
		}
	}
	s.consumeWhitespace()
	if !s.Next(TokenUnknown) {
		return string(section), nil, p.eitherErr("expected body section literal")
	}
	if s.Literal != nil {
		data := make([]byte, s.Literal.Size())
		if _, err := s.Literal.ReadAt(data, 0); err != nil {
			return string(section), nil, err
		}
		return string(section), data, nil
	}
	return string(section), append([]byte(nil), s.Value...), nil
}

func (p *Parser) parseEnvelope() (*Envelope, error) {
	s := p.s
	if !s.Next(TokenListStart) {
		return nil, p.eitherErr("expected '(' for ENVELOPE")
	}
	env := &Envelope{}

	dateStr, err := p.readNillableString()
	if err != nil {
		return nil, err
	}
	if dateStr != "" {
		if t, err := field.ParseDate(dateStr); err == nil {
			env.Date = t
		}
	}

	subj, err := p.readNillableString()
	if err != nil {
		return nil, err
	}
	env.Subject = decodeEnvelopeText(p.backend, subj)

	for _, dst := range []*[]message.Mailbox{&env.From, &env.Sender, &env.ReplyTo, &env.To, &env.Cc, &env.Bcc} {
		addrs, err := p.parseEnvelopeAddressList()
		if err != nil {
			return nil, err
		}
		*dst = addrs
	}

	env.InReplyTo, err = p.readNillableString()
	if err != nil {
		return nil, err
	}
	env.MessageID, err = p.readNillableString()
	if err != nil {
		return nil, err
	}

	if !s.Next(TokenListEnd) {
		return nil, p.eitherErr("expected ')' closing ENVELOPE")
	}
	return env, nil
}

func (p *Parser) readNillableString() (string, error) {
	s := p.s
	s.consumeWhitespace()
	if !s.Next(TokenUnknown) {
		return "", p.eitherErr("expected string or NIL")
	}
	if s.Token == TokenNIL {
		return "", nil
	}
	return string(s.Value), nil
}

// parseEnvelopeAddressList parses one of ENVELOPE's six address-list
// fields: NIL or a parenthesized list of (name adl mailbox host).
func (p *Parser) parseEnvelopeAddressList() ([]message.Mailbox, error) {
	s := p.s
	s.consumeWhitespace()
	if !s.Next(TokenUnknown) {
		return nil, p.eitherErr("expected address list or NIL")
	}
	if s.Token == TokenNIL {
		return nil, nil
	}
	if s.Token != TokenListStart {
		return nil, p.malformed("expected '(' starting address list")
	}
	var out []message.Mailbox
	for {
		s.consumeWhitespace()
		if s.peekChar() == ')' {
			s.Next(TokenListEnd)
			return out, nil
		}
		mb, err := p.parseEnvelopeAddress()
		if err != nil {
			return nil, err
		}
		out = append(out, mb)
	}
}

func (p *Parser) parseEnvelopeAddress() (message.Mailbox, error) {
	s := p.s
	if !s.Next(TokenListStart) {
		return message.Mailbox{}, p.eitherErr("expected '(' starting address")
	}
	name, err := p.readNillableString()
	if err != nil {
		return message.Mailbox{}, err
	}
	if _, err := p.readNillableString(); err != nil { // adl, unused (RFC 822 source-route)
		return message.Mailbox{}, err
	}
	mailbox, err := p.readNillableString()
	if err != nil {
		return message.Mailbox{}, err
	}
	host, err := p.readNillableString()
	if err != nil {
		return message.Mailbox{}, err
	}
	if !s.Next(TokenListEnd) {
		return message.Mailbox{}, p.eitherErr("expected ')' closing address")
	}
	addr := message.EmailAddress{LocalPart: mailbox, Domain: host}
	return message.Mailbox{Name: decodeEnvelopeText(p.backend, name), Address: addr}, nil
}

func decodeEnvelopeText(backend charset.Backend, s string) string {
	if s == "" {
		return s
	}
	return encword.DecodeString(backend, s)
}

// parseBodyStructure parses a (possibly nested) BODY/BODYSTRUCTURE
// value, following RFC 3501 section 7.4.2's grammar: a multipart
// structure is "(" part* mediaSubtype ... ")"; a leaf is
// "(" mediatype subtype params id description encoding size ... ")".
func (p *Parser) parseBodyStructure() (*BodyStructure, error) {
	s := p.s
	if !s.Next(TokenListStart) {
		return nil, p.eitherErr("expected '(' for BODY/BODYSTRUCTURE")
	}

	if s.peekChar() == '(' {
		return p.parseMultipartBodyStructure()
	}
	return p.parseLeafBodyStructure()
}

func (p *Parser) parseMultipartBodyStructure() (*BodyStructure, error) {
	s := p.s
	bs := &BodyStructure{}
	for s.peekChar() == '(' {
		child, err := p.parseBodyStructure()
		if err != nil {
			return nil, err
		}
		bs.Children = append(bs.Children, child)
	}
	subtype, err := p.readNillableString()
	if err != nil {
		return nil, err
	}
	bs.MediaType = message.MediaType{Type: message.TypeMultipart, Subtype: strings.ToLower(subtype)}

	// Extension data (params, disposition, language, location) is
	// optional; stop as soon as we hit the closing paren.
	s.consumeWhitespace()
	if s.peekChar() != ')' {
		params, err := p.parseBodyParamList()
		if err == nil {
			bs.Params = params
		}
	}
	p.skipBodyExtensionFields(bs)
	if !s.Next(TokenListEnd) {
		return nil, p.eitherErr("expected ')' closing multipart BODYSTRUCTURE")
	}
	return bs, nil
}

func (p *Parser) parseLeafBodyStructure() (*BodyStructure, error) {
	s := p.s
	bs := &BodyStructure{}

	mtype, err := p.readNillableString()
	if err != nil {
		return nil, err
	}
	subtype, err := p.readNillableString()
	if err != nil {
		return nil, err
	}
	bs.MediaType = message.MediaType{Type: strings.ToLower(mtype), Subtype: strings.ToLower(subtype)}

	params, err := p.parseBodyParamList()
	if err != nil {
		return nil, err
	}
	bs.Params = params

	bs.ID, err = p.readNillableString()
	if err != nil {
		return nil, err
	}
	bs.Description, err = p.readNillableString()
	if err != nil {
		return nil, err
	}
	encName, err := p.readNillableString()
	if err != nil {
		return nil, err
	}
	bs.Encoding = message.ParseEncoding(encName)

	s.consumeWhitespace()
	if !s.Next(TokenUnknown) {
		return nil, p.eitherErr("expected body size")
	}
	n, _ := strconv.ParseUint(string(s.Value), 10, 32)
	bs.Size = uint32(n)

	if bs.MediaType.IsText() {
		s.consumeWhitespace()
		if s.peekChar() != ')' {
			if !s.Next(TokenUnknown) {
				return nil, p.eitherErr("expected text line count")
			}
			n, _ := strconv.ParseUint(string(s.Value), 10, 32)
			bs.Lines = uint32(n)
		}
	} else if bs.MediaType.IsMessage() && bs.MediaType.Subtype == "rfc822" {
		s.consumeWhitespace()
		if s.peekChar() != ')' {
			env, err := p.parseEnvelope()
			if err != nil {
				return nil, err
			}
			bs.Envelope = env
			nested, err := p.parseBodyStructure()
			if err != nil {
				return nil, err
			}
			bs.Nested = nested
			s.consumeWhitespace()
			if !s.Next(TokenUnknown) {
				return nil, p.eitherErr("expected message/rfc822 line count")
			}
			n, _ := strconv.ParseUint(string(s.Value), 10, 32)
			bs.Lines = uint32(n)
		}
	}

	p.skipBodyExtensionFields(bs)
	if !s.Next(TokenListEnd) {
		return nil, p.eitherErr("expected ')' closing BODYSTRUCTURE")
	}
	return bs, nil
}

func (p *Parser) parseBodyParamList() (field.Params, error) {
	s := p.s
	s.consumeWhitespace()
	if !s.Next(TokenUnknown) {
		return field.Params{}, p.eitherErr("expected body parameter list or NIL")
	}
	if s.Token == TokenNIL {
		return field.Params{}, nil
	}
	if s.Token != TokenListStart {
		return field.Params{}, p.malformed("expected '(' starting parameter list")
	}
	params := field.Params{Values: map[string]string{}}
	for {
		s.consumeWhitespace()
		if s.peekChar() == ')' {
			s.Next(TokenListEnd)
			return params, nil
		}
		if !s.Next(TokenString) {
			return field.Params{}, p.eitherErr("expected parameter name")
		}
		name := strings.ToLower(string(s.Value))
		if !s.Next(TokenString) {
			return field.Params{}, p.eitherErr("expected parameter value")
		}
		params.Set(name, string(s.Value))
	}
}

// skipBodyExtensionFields consumes BODYSTRUCTURE's optional
// md5 (single-part only)/disposition/language/location extension
// fields, if present, filling in bs.MD5/Disposition/Language/Location.
func (p *Parser) skipBodyExtensionFields(bs *BodyStructure) {
	s := p.s
	s.consumeWhitespace()
	if s.peekChar() == ')' {
		return
	}
	// body-fld-md5, present only in a single part's extension data
	if len(bs.Children) == 0 {
		if v, err := p.readNillableString(); err == nil {
			bs.MD5 = v
		}
		s.consumeWhitespace()
		if s.peekChar() == ')' {
			return
		}
	}
	// body-fld-dsp: NIL or (string param-list)
	if !s.Next(TokenUnknown) {
		return
	}
	if s.Token == TokenListStart {
		s.consumeWhitespace()
		if s.Next(TokenString) {
			kind := string(s.Value)
			params, _ := p.parseBodyParamList()
			bs.Disposition = &field.ContentDisposition{Kind: kind, Params: params}
		}
		s.Next(TokenListEnd)
	}

	s.consumeWhitespace()
	if s.peekChar() == ')' {
		return
	}
	// body-fld-lang: NIL, a single string, or a parenthesized list.
	if !s.Next(TokenUnknown) {
		return
	}
	switch s.Token {
	case TokenString, TokenAtom:
		bs.Language = []string{string(s.Value)}
	case TokenListStart:
		for {
			s.consumeWhitespace()
			if s.peekChar() == ')' {
				s.Next(TokenListEnd)
				break
			}
			if !s.Next(TokenString) {
				break
			}
			bs.Language = append(bs.Language, string(s.Value))
		}
	}

	s.consumeWhitespace()
	if s.peekChar() == ')' {
		return
	}
	if loc, err := p.readNillableString(); err == nil {
		bs.Location = loc
	}

	// Any further extension fields (body-extension*) are not
	// interpreted; drain them without failing the parse.
	for {
		s.consumeWhitespace()
		if s.peekChar() == ')' || s.peekChar() == 0 {
			return
		}
		if !s.Next(TokenUnknown) {
			return
		}
	}
}

// parseInternalDate parses RFC 3501 section 9's date-time production,
// e.g. "02-Jan-2006 15:04:05 -0700".
func parseInternalDate(s string) (time.Time, error) {
	const layout = "02-Jan-2006 15:04:05 -0700"
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid INTERNALDATE %q: %w", s, err)
	}
	return t, nil
}
