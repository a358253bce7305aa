package field

import (
	"errors"
	"strings"
)

// MessageID is a parsed "Message-ID:"-style value: the content between
// the angle brackets of a single msg-id.
type MessageID string

// ParseMessageID parses s as a single "<...>" msg-id, as used by the
// Message-ID and Resent-Message-ID headers.
func ParseMessageID(s string) (MessageID, error) {
	ids, err := ParseMessageIDSequence(s)
	if err != nil {
		return "", err
	}
	if len(ids) != 1 {
		return "", errors.New("field: expected exactly one message-id")
	}
	return ids[0], nil
}

// ParseMessageIDSequence parses s as a whitespace-separated sequence of
// "<...>" msg-ids, as used by the References and In-Reply-To headers,
// grounded on the teacher's addrParser.parseReferences.
func ParseMessageIDSequence(s string) ([]MessageID, error) {
	p := &addrParser{s: s}
	var ids []MessageID
	for {
		p.skipSpace()
		if p.empty() {
			break
		}
		if !p.consume('<') {
			return nil, errors.New("field: message-id missing '<'")
		}
		spec, err := p.consumeAddrSpec()
		if err != nil {
			return nil, err
		}
		if !p.consume('>') {
			return nil, errors.New("field: unclosed message-id")
		}
		ids = append(ids, MessageID(spec))
	}
	return ids, nil
}

// Encode renders id back with its angle brackets.
func (id MessageID) Encode() string { return "<" + string(id) + ">" }

// EncodeMessageIDSequence renders ids space-separated, each bracketed.
func EncodeMessageIDSequence(ids []MessageID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Encode()
	}
	return strings.Join(parts, " ")
}

// Path is a parsed "Return-Path:" value: either a single bracketed
// addr-spec, or the empty "<>" (null reverse-path, per RFC 5321 §4.1.1.3).
type Path struct {
	Address string // empty for the null path "<>"
	IsNull  bool
}

// ParsePath parses s as a Return-Path value.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "<>" {
		return Path{IsNull: true}, nil
	}
	p := &addrParser{s: s}
	if !p.consume('<') {
		return Path{}, errors.New("field: return-path missing '<'")
	}
	spec, err := p.consumeAddrSpec()
	if err != nil {
		return Path{}, err
	}
	if !p.consume('>') {
		return Path{}, errors.New("field: unclosed return-path")
	}
	return Path{Address: spec}, nil
}

// Encode renders p back as a header value.
func (p Path) Encode() string {
	if p.IsNull {
		return "<>"
	}
	return "<" + p.Address + ">"
}
