package field

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order; RFC 5322 §3.3 permits day-name and
// seconds to be omitted, and a handful of obsolete zone forms ("GMT",
// "UT", military letters) and two-digit years appear in the wild.
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 06 15:04:05 -0700",
	"2 Jan 06 15:04:05 -0700",
}

// ParseDate parses s (a "Date:" header's value) into a time.Time. It
// tolerates the common malformations real-world mail exhibits (missing
// day name, two-digit years, "GMT"/"UT" in place of a numeric zone).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "  ", " ")
	if strings.HasSuffix(s, " UT") {
		s = strings.TrimSuffix(s, "UT") + "+0000"
	}
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("field: cannot parse date %q: %w", s, firstErr)
}

// EncodeDate renders t in the canonical RFC 5322 §3.3 form.
func EncodeDate(t time.Time) string {
	return t.Format("Mon, 2 Jan 2006 15:04:05 -0700")
}
