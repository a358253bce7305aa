package field

import "vmime.dev/vmime/message"

// Kind classifies which grammar a header field's value follows, so a
// generic Header walker can dispatch to the right parser without a
// hardcoded switch over every known field name.
type Kind int

const (
	KindUnstructured Kind = iota
	KindAddressList
	KindMailbox
	KindContentType
	KindContentDisposition
	KindMessageID
	KindMessageIDSequence
	KindDate
	KindPath
)

// KindForKey returns the Kind conventionally associated with a
// canonical header Key, defaulting to KindUnstructured for anything not
// in the table (matching spec §3's "unknown fields are carried as
// opaque unstructured text").
func KindForKey(k message.Key) Kind {
	switch k {
	case "To", "CC", "Bcc", "Reply-To", "Resent-To", "Resent-Cc", "Resent-Bcc":
		return KindAddressList
	case "From", "Resent-From":
		return KindAddressList
	case "Sender", "Resent-Sender":
		return KindMailbox
	case "Content-Type":
		return KindContentType
	case "Content-Disposition":
		return KindContentDisposition
	case "Message-ID", "Content-ID", "Resent-Message-Id":
		return KindMessageID
	case "In-Reply-To", "References":
		return KindMessageIDSequence
	case "Date", "Resent-Date":
		return KindDate
	case "Return-Path":
		return KindPath
	default:
		return KindUnstructured
	}
}
