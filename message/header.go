package message

import (
	"bytes"
	"fmt"
	"io"
)

// HeaderEntry is one "Key: value" header line (its continuation lines
// already unfolded into Value).
type HeaderEntry struct {
	Key   Key
	Value []byte
}

// Encode writes entry to w, folding Value across multiple lines per
// RFC 5322 §2.1.1: lines SHOULD stay under ctx.maxLine() (default 78)
// and MUST stay under the 998 hard ceiling. Folding prefers to break at
// a space; if none exists before the soft limit, the soft limit is
// abandoned in favor of the hard one before a fold is forced anyway.
func (entry *HeaderEntry) Encode(w io.Writer, ctx *GenerationContext) (n int, err error) {
	var wErr error
	defer func() {
		if err == nil {
			err = wErr
		}
	}()
	printf := func(format string, args ...interface{}) {
		n2, perr := fmt.Fprintf(w, format, args...)
		if wErr == nil {
			wErr = perr
		}
		n += n2
	}

	v := entry.Value
	if len(v) == 0 {
		printf("%s:\r\n", entry.Key)
		return n, nil
	}
	printf("%s: ", entry.Key)

	const padding = "    "
	soft := ctx.maxLine()
	spent := len(entry.Key) + len(": ")
	limit := soft

	for {
		if len(v) < limit-spent {
			printf("%s", v)
			break
		}
		var i int
		for i = limit - spent - 1; i > 0; i-- {
			if v[i] == ' ' {
				break
			}
		}
		if i == 0 {
			if limit == soft {
				limit = 998
				continue
			}
			// RFC 5322 MUST: insert a fold even with nowhere natural to
			// break it.
			i = 998 - spent
			if i <= 0 || i >= len(v) {
				i = len(v)
			}
		}
		printf("%s\r\n%s", v[:i], padding)
		spent = len(padding)
		limit = soft
		v = v[i:]
	}
	printf("\r\n")
	return n, nil
}

// Header is an ordered collection of header entries with an index for
// fast lookup by Key, generalized from the teacher's email.Header.
type Header struct {
	Entries []HeaderEntry
	Index   map[Key][][]byte
}

// Add appends a new entry for k.
func (h *Header) Add(k Key, v []byte) {
	h.Entries = append(h.Entries, HeaderEntry{Key: k, Value: v})
	if h.Index == nil {
		h.Index = make(map[Key][][]byte)
	}
	h.Index[k] = append(h.Index[k], v)
}

// Set replaces every existing entry for k with a single new one.
func (h *Header) Set(k Key, v []byte) {
	h.Del(k)
	h.Add(k, v)
}

// Get returns the first value stored for k, or nil if absent.
func (h *Header) Get(k Key) []byte {
	vals := h.GetAll(k)
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// GetAll returns every value stored for k, in entry order.
func (h *Header) GetAll(k Key) [][]byte {
	if h.Index == nil {
		h.Index = make(map[Key][][]byte)
		for _, entry := range h.Entries {
			h.Index[entry.Key] = append(h.Index[entry.Key], entry.Value)
		}
	}
	return h.Index[k]
}

// Has reports whether any entry exists for k.
func (h *Header) Has(k Key) bool { return len(h.GetAll(k)) > 0 }

// Del removes every entry for k.
func (h *Header) Del(k Key) {
	var e []HeaderEntry
	for _, entry := range h.Entries {
		if entry.Key != k {
			e = append(e, entry)
		}
	}
	h.Entries = e
	if h.Index != nil {
		delete(h.Index, k)
	}
}

// Encode writes every entry followed by the blank line that terminates
// a header block.
func (h *Header) Encode(w io.Writer, ctx *GenerationContext) (n int, err error) {
	for _, entry := range h.Entries {
		n2, err := entry.Encode(w, ctx)
		n += n2
		if err != nil {
			return n, err
		}
	}
	n2, err := io.WriteString(w, "\r\n")
	n += n2
	return n, err
}

func (h Header) String() string {
	buf := new(bytes.Buffer)
	if _, err := h.Encode(buf, nil); err != nil {
		return fmt.Sprintf("message.Header(encode error: %v)", err)
	}
	return buf.String()
}
