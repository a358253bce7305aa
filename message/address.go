package message

import "strings"

// EmailAddress is a parsed addr-spec: local-part "@" domain.
type EmailAddress struct {
	LocalPart string
	Domain    string
}

// String renders the addr-spec form ("local@domain"), quoting the
// local-part if it contains characters that require it.
func (a EmailAddress) String() string {
	if a.Domain == "" {
		return a.LocalPart
	}
	return a.LocalPart + "@" + a.Domain
}

// ParseEmailAddress splits s on the last unquoted '@'. It does not
// validate local-part/domain grammar; that is message/field's job when
// parsing a full address-list header value.
func ParseEmailAddress(s string) EmailAddress {
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return EmailAddress{LocalPart: s[:i], Domain: s[i+1:]}
	}
	return EmailAddress{LocalPart: s}
}

// Mailbox is a single RFC 5322 mailbox: an optional display name plus
// an addr-spec.
type Mailbox struct {
	Name    string // display-name, already RFC 2047 decoded; may be empty
	Address EmailAddress
}

func (m Mailbox) String() string {
	if m.Name == "" {
		return m.Address.String()
	}
	return m.Name + " <" + m.Address.String() + ">"
}

// AddressKind discriminates the two alternatives of the RFC 5322
// "address" production.
type AddressKind int

const (
	// KindMailbox marks an Address holding a single Mailbox.
	KindMailbox AddressKind = iota
	// KindGroup marks an Address holding a named group of Mailboxes.
	KindGroup
)

// Address is the tagged union VMime's class hierarchy
// (address/mailbox/mailboxGroup) collapses to in Go: either a single
// Mailbox or a named Group, discriminated by Kind.
type Address struct {
	Kind    AddressKind
	Mailbox Mailbox // valid iff Kind == KindMailbox
	Group   Group   // valid iff Kind == KindGroup
}

// Group is a named list of mailboxes, e.g. "Undisclosed-recipients:;".
type Group struct {
	Name      string
	Mailboxes []Mailbox
}

// NewMailboxAddress wraps a Mailbox as an Address.
func NewMailboxAddress(mb Mailbox) Address {
	return Address{Kind: KindMailbox, Mailbox: mb}
}

// NewGroupAddress wraps a Group as an Address.
func NewGroupAddress(g Group) Address {
	return Address{Kind: KindGroup, Group: g}
}

// IsGroup reports whether a holds a Group rather than a single Mailbox.
func (a Address) IsGroup() bool { return a.Kind == KindGroup }

// Mailboxes flattens the address to its constituent mailboxes: a single
// element for KindMailbox, or the group's members for KindGroup.
func (a Address) Mailboxes() []Mailbox {
	if a.Kind == KindGroup {
		return a.Group.Mailboxes
	}
	return []Mailbox{a.Mailbox}
}

func (a Address) String() string {
	if a.Kind == KindGroup {
		parts := make([]string, len(a.Group.Mailboxes))
		for i, mb := range a.Group.Mailboxes {
			parts[i] = mb.String()
		}
		return a.Group.Name + ": " + strings.Join(parts, ", ") + ";"
	}
	return a.Mailbox.String()
}
