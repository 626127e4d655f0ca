package inventory

import (
	"time"
)

// DateLayout is the calendar-date format used in every collection.
const DateLayout = "2006-01-02"

// FormatDate renders t as a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// laterDate returns whichever of a and b is later. Empty dates never win,
// parseable dates beat unparseable ones, and two unparseable dates compare
// lexically.
func laterDate(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		if tb.After(ta) {
			return b
		}
		return a
	case okA:
		return a
	case okB:
		return b
	case b > a:
		return b
	default:
		return a
	}
}
