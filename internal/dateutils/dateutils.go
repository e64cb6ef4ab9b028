// Package dateutils provides the date layouts found on receipts and the
// clock used for the "today" fallback.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layouts
const (
	DateLayoutISO     = "2006-01-02"
	DateLayoutDisplay = "02/01/2006"
)

// ReceiptLayouts are the layouts tried by ParseDate, in order.
var ReceiptLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
	"02-01-06",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
}

// Clock returns the current time. Extraction takes a Clock so tests can pin
// the fallback date.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// Today formats the clock's current day as DD/MM/YYYY.
func Today(clock Clock) string {
	if clock == nil {
		clock = SystemClock
	}
	return clock().Format(DateLayoutDisplay)
}

var spaces = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate parses a date as printed on a receipt. Day-first layouts win for
// ambiguous numeric dates.
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("unable to parse date: empty")
	}
	for _, layout := range ReceiptLayouts {
		if t, err := time.Parse(layout, normalizeMonth(cleaned)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate converts a receipt date string to YYYY-MM-DD, or returns "" when
// it cannot be parsed.
func ToISODate(dateStr string) string {
	t, err := ParseDate(dateStr)
	if err != nil {
		return ""
	}
	return t.Format(DateLayoutISO)
}

// normalizeMonth title-cases month names ("JUN" -> "Jun") and drops the dot
// of abbreviations ("Jun." -> "Jun") so time.Parse accepts them.
func normalizeMonth(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		f = strings.TrimSuffix(f, ".")
		trail := ""
		if strings.HasSuffix(f, ",") {
			f, trail = strings.TrimSuffix(f, ","), ","
		}
		if len(f) >= 3 && isLetters(f) {
			f = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
		}
		fields[i] = f + trail
	}
	return strings.Join(fields, " ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
