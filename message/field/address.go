// Package field implements the typed header-field values MIME headers
// carry: address lists, media types, content-transfer-encodings,
// content-disposition, parameterized values (RFC 2231), unstructured
// text, date-time, and message-ID (sequences).
//
// Each value type is parsed from the complete field value string and
// returned as a Go value; parsers do not take a position or report how
// many bytes they consumed. Values are rendered back by Format/Encode
// functions that return a string and do not track the output column;
// line folding happens afterwards in message.HeaderEntry.Encode.
package field

import (
	"errors"
	"strings"
	"unicode/utf8"

	"vmime.dev/vmime/message"
	"vmime.dev/vmime/message/charset"
	"vmime.dev/vmime/message/encword"
)

// AddressList parses s (the full value of a To/Cc/Bcc/From/Reply-To/
// Sender header) into zero or more message.Address values, grounded
// directly on the teacher's addrParser recursive-descent algorithm
// (third_party/imf/addr.go), adapted to decode RFC 2047 words through
// message/encword instead of the stdlib mime.WordDecoder and to build
// message.Address/Mailbox/Group values instead of email.Address.
func AddressList(backend charset.Backend, s string) ([]message.Address, error) {
	p := &addrParser{s: s, backend: backend}
	return p.parseAddressList()
}

// Mailbox parses s as a single RFC 5322 mailbox (e.g. the Sender
// header's value).
func Mailbox(backend charset.Backend, s string) (message.Mailbox, error) {
	p := &addrParser{s: s, backend: backend}
	addrs, err := p.parseAddress(false)
	if err != nil {
		return message.Mailbox{}, err
	}
	if !p.skipCFWS() {
		return message.Mailbox{}, errors.New("field: misformatted parenthetical comment")
	}
	if !p.empty() {
		return message.Mailbox{}, errors.New("field: trailing data after mailbox")
	}
	if len(addrs) != 1 || addrs[0].IsGroup() {
		return message.Mailbox{}, errors.New("field: expected a single mailbox")
	}
	return addrs[0].Mailbox, nil
}

// FormatAddressList renders addrs back as a comma-separated header
// value, RFC 2047 encoding any display name that needs it.
func FormatAddressList(backend charset.Backend, addrs []message.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = FormatAddress(backend, a)
	}
	return strings.Join(parts, ", ")
}

// FormatAddress renders a single address, RFC 2047 encoding its display
// name(s) as needed.
func FormatAddress(backend charset.Backend, a message.Address) string {
	if a.IsGroup() {
		parts := make([]string, len(a.Group.Mailboxes))
		for i, mb := range a.Group.Mailboxes {
			parts[i] = FormatMailbox(backend, mb)
		}
		return a.Group.Name + ": " + strings.Join(parts, ", ") + ";"
	}
	return FormatMailbox(backend, a.Mailbox)
}

// FormatMailbox renders a single mailbox.
func FormatMailbox(backend charset.Backend, mb message.Mailbox) string {
	if mb.Name == "" {
		return mb.Address.String()
	}
	name, err := encword.Encode(backend, mb.Name, encword.EncodeOptions{})
	if err != nil {
		name = quoteString(mb.Name)
	} else if name == mb.Name && needsQuoting(name) {
		name = quoteString(name)
	}
	return name + " <" + mb.Address.String() + ">"
}

func needsQuoting(s string) bool {
	for _, r := range s {
		if !isAtext(r, true, true) && r != ' ' {
			return true
		}
	}
	return false
}

type addrParser struct {
	s       string
	backend charset.Backend
}

func (p *addrParser) parseAddressList() ([]message.Address, error) {
	var list []message.Address
	for {
		p.skipSpace()
		if p.empty() {
			break
		}
		addrs, err := p.parseAddress(true)
		if err != nil {
			return nil, err
		}
		list = append(list, addrs...)

		if !p.skipCFWS() {
			return nil, errors.New("field: misformatted parenthetical comment")
		}
		if p.empty() {
			break
		}
		if !p.consume(',') {
			return nil, errors.New("field: expected comma")
		}
	}
	return list, nil
}

func (p *addrParser) parseAddress(handleGroup bool) ([]message.Address, error) {
	p.skipSpace()
	if p.empty() {
		return nil, errors.New("field: no address")
	}

	spec, err := p.consumeAddrSpec()
	if err == nil {
		var displayName string
		p.skipSpace()
		if !p.empty() && p.peek() == '(' {
			displayName, err = p.consumeDisplayNameComment()
			if err != nil {
				return nil, err
			}
		}
		return []message.Address{message.NewMailboxAddress(message.Mailbox{
			Name:    displayName,
			Address: message.ParseEmailAddress(spec),
		})}, nil
	}

	var displayName string
	if p.peek() != '<' {
		displayName, err = p.consumePhrase()
		if err != nil {
			return nil, err
		}
	}

	p.skipSpace()
	if handleGroup {
		if p.consume(':') {
			mbs, err := p.consumeGroupList()
			if err != nil {
				return nil, err
			}
			return []message.Address{message.NewGroupAddress(message.Group{
				Name:      displayName,
				Mailboxes: mbs,
			})}, nil
		}
	}

	if !p.consume('<') {
		return nil, errors.New("field: no angle-addr")
	}
	spec, err = p.consumeAddrSpec()
	if err != nil {
		return nil, err
	}
	if !p.consume('>') {
		return nil, errors.New("field: unclosed angle-addr")
	}
	return []message.Address{message.NewMailboxAddress(message.Mailbox{
		Name:    displayName,
		Address: message.ParseEmailAddress(spec),
	})}, nil
}

func (p *addrParser) consumeGroupList() ([]message.Mailbox, error) {
	var group []message.Mailbox
	p.skipSpace()
	if p.consume(';') {
		p.skipCFWS()
		return group, nil
	}
	for {
		p.skipSpace()
		addrs, err := p.parseAddress(false)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			group = append(group, a.Mailboxes()...)
		}
		if !p.skipCFWS() {
			return nil, errors.New("field: misformatted parenthetical comment")
		}
		if p.consume(';') {
			p.skipCFWS()
			break
		}
		if !p.consume(',') {
			return nil, errors.New("field: expected comma")
		}
	}
	return group, nil
}

func (p *addrParser) consumeAddrSpec() (spec string, err error) {
	orig := *p
	defer func() {
		if err != nil {
			*p = orig
		}
	}()

	var localPart string
	p.skipSpace()
	if p.empty() {
		return "", errors.New("field: no addr-spec")
	}
	if p.peek() == '"' {
		localPart, err = p.consumeQuotedString()
		if err == nil && localPart == "" {
			err = errors.New("field: empty quoted string in addr-spec")
		}
	} else {
		localPart, err = p.consumeAtom(true, false)
	}
	if err != nil {
		return "", err
	}

	if !p.consume('@') {
		return "", errors.New("field: missing @ in addr-spec")
	}

	p.skipSpace()
	if p.empty() {
		return "", errors.New("field: no domain in addr-spec")
	}
	domain, err := p.consumeAtom(true, false)
	if err != nil {
		return "", err
	}
	return localPart + "@" + domain, nil
}

func (p *addrParser) consumePhrase() (phrase string, err error) {
	var words []string
	var isPrevEncoded bool
	for {
		var word string
		p.skipSpace()
		if p.empty() {
			break
		}
		isEncoded := false
		if p.peek() == '"' {
			word, err = p.consumeQuotedString()
		} else {
			word, err = p.consumeAtom(true, true)
			if err == nil {
				decoded := encword.DecodeString(p.backend, word)
				isEncoded = decoded != word
				word = decoded
			}
		}
		if err != nil {
			break
		}
		if isPrevEncoded && isEncoded {
			words[len(words)-1] += word
		} else {
			words = append(words, word)
		}
		isPrevEncoded = isEncoded
	}
	if err != nil && len(words) == 0 {
		return "", errors.New("field: missing word in phrase")
	}
	return strings.Join(words, " "), nil
}

func (p *addrParser) consumeQuotedString() (qs string, err error) {
	i := 1
	qsb := make([]rune, 0, 10)
	escaped := false
Loop:
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])
		switch {
		case size == 0:
			return "", errors.New("field: unclosed quoted-string")
		case size == 1 && r == utf8.RuneError:
			return "", errors.New("field: invalid utf-8 in quoted-string")
		case escaped:
			if !isVchar(r) && !isWSP(r) {
				return "", errors.New("field: bad character in quoted-string")
			}
			qsb = append(qsb, r)
			escaped = false
		case isQtext(r) || isWSP(r):
			qsb = append(qsb, r)
		case r == '"':
			break Loop
		case r == '\\':
			escaped = true
		default:
			return "", errors.New("field: bad character in quoted-string")
		}
		i += size
	}
	p.s = p.s[i+1:]
	return string(qsb), nil
}

func (p *addrParser) consumeAtom(dot, permissive bool) (atom string, err error) {
	i := 0
Loop:
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])
		switch {
		case size == 1 && r == utf8.RuneError:
			return "", errors.New("field: invalid utf-8 in address")
		case size == 0 || !isAtext(r, dot, permissive):
			break Loop
		default:
			i += size
		}
	}
	if i == 0 {
		return "", errors.New("field: invalid string")
	}
	atom, p.s = p.s[:i], p.s[i:]
	if !permissive {
		if strings.HasPrefix(atom, ".") {
			return "", errors.New("field: leading dot in atom")
		}
		if strings.Contains(atom, "..") {
			return "", errors.New("field: double dot in atom")
		}
		if strings.HasSuffix(atom, ".") {
			return "", errors.New("field: trailing dot in atom")
		}
	}
	return atom, nil
}

func (p *addrParser) consumeDisplayNameComment() (string, error) {
	if !p.consume('(') {
		return "", errors.New("field: comment does not start with (")
	}
	comment, ok := p.consumeComment()
	if !ok {
		return "", errors.New("field: misformatted parenthetical comment")
	}
	words := strings.FieldsFunc(comment, func(r rune) bool { return r == ' ' || r == '\t' })
	for i, w := range words {
		words[i] = encword.DecodeString(p.backend, w)
	}
	return strings.Join(words, " "), nil
}

func (p *addrParser) consume(c byte) bool {
	if p.empty() || p.peek() != c {
		return false
	}
	p.s = p.s[1:]
	return true
}

func (p *addrParser) skipSpace() { p.s = strings.TrimLeft(p.s, " \t") }

func (p *addrParser) peek() byte { return p.s[0] }

func (p *addrParser) empty() bool { return len(p.s) == 0 }

func (p *addrParser) skipCFWS() bool {
	p.skipSpace()
	for {
		if !p.consume('(') {
			break
		}
		if _, ok := p.consumeComment(); !ok {
			return false
		}
		p.skipSpace()
	}
	return true
}

func (p *addrParser) consumeComment() (string, bool) {
	depth := 1
	var comment strings.Builder
	for {
		if p.empty() || depth == 0 {
			break
		}
		if p.peek() == '\\' && len(p.s) > 1 {
			p.s = p.s[1:]
		} else if p.peek() == '(' {
			depth++
		} else if p.peek() == ')' {
			depth--
		}
		if depth > 0 {
			comment.WriteByte(p.s[0])
		}
		p.s = p.s[1:]
	}
	return comment.String(), depth == 0
}

func isAtext(r rune, dot, permissive bool) bool {
	switch r {
	case '.':
		return dot
	case '(', ')', '[', ']', ';', '@', '\\', ',':
		return permissive
	case '<', '>', '"', ':':
		return false
	}
	return isVchar(r)
}

func isQtext(r rune) bool {
	if r == '\\' || r == '"' {
		return false
	}
	return isVchar(r)
}

func quoteString(s string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, r := range s {
		if isQtext(r) || isWSP(r) {
			buf.WriteRune(r)
		} else if isVchar(r) {
			buf.WriteByte('\\')
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}

func isVchar(r rune) bool { return ('!' <= r && r <= '~') || isMultibyte(r) }

func isMultibyte(r rune) bool { return r >= utf8.RuneSelf }

func isWSP(r rune) bool { return r == ' ' || r == '\t' }
