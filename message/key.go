// Package message holds the data types fundamental to representing an
// Internet Message Format (RFC 5322 + MIME) message: header fields, the
// header container, and the handful of small value types (addresses,
// media types, encodings) that header field values are built from.
//
// The body/part tree lives in the sibling message/body package, typed
// field values in message/field, transfer-encoding codecs in
// message/codec, and the RFC 2047 encoded-word engine in
// message/encword.
package message

// Key is a canonical MIME header field name: case-insensitive ASCII,
// normalized to its conventional mixed-case spelling.
//
// Use CanonicalKey to build a Key from raw bytes.
type Key string

// CanonicalKey canonicalizes raw header-field-name bytes into a Key.
//
// It recognizes a fixed table of common header names (built the same
// way the teacher's email.CanonicalKey table was: by frequency over a
// real mail corpus) and falls back to capitalizing the letter following
// every '-' for anything else.
func CanonicalKey(keyBytes []byte) Key {
	b := append([]byte(nil), keyBytes...)
	asciiLower(b)

	if k, ok := commonKeys[string(b)]; ok {
		return k
	}

	for i, c := range b {
		if 'a' <= c && c <= 'z' && (i == 0 || b[i-1] == '-') {
			b[i] -= 'a' - 'A'
		}
	}
	return Key(b)
}

func asciiLower(data []byte) {
	for i, c := range data {
		if c >= 'A' && c <= 'Z' {
			data[i] = c + ('a' - 'A')
		}
	}
}

var commonKeys = map[string]Key{
	"subject":                   "Subject",
	"date":                      "Date",
	"to":                        "To",
	"from":                      "From",
	"cc":                        "CC",
	"bcc":                       "Bcc",
	"reply-to":                  "Reply-To",
	"sender":                    "Sender",
	"content-id":                "Content-ID",
	"content-disposition":       "Content-Disposition",
	"content-length":            "Content-Length",
	"content-type":              "Content-Type",
	"content-transfer-encoding": "Content-Transfer-Encoding",
	"content-language":          "Content-Language",
	"mime-version":              "MIME-Version",
	"message-id":                "Message-ID",
	"in-reply-to":               "In-Reply-To",
	"references":                "References",
	"received":                  "Received",
	"return-path":               "Return-Path",
	"delivered-to":              "Delivered-To",
	"dkim-signature":            "DKIM-Signature",
	"authentication-results":    "Authentication-Results",
	"list-id":                   "List-ID",
	"list-unsubscribe":          "List-Unsubscribe",
	"precedence":                "Precedence",
	"x-mailer":                  "X-Mailer",
}
