package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DatePattern matches DD/MM/YY and DD/MM/YYYY tokens.
var DatePattern = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{2}(?:\d{2})?)\b`)

// ExpandYear expands a two-digit year: 00-49 map to the 2000s, 50-99 to
// the 1900s. Four-digit years pass through unchanged.
func ExpandYear(yy int) int {
	if yy >= 100 {
		return yy
	}
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

// Date parses DD/MM/YY or DD/MM/YYYY into a time.Time. The second return
// is false when the input is not date-shaped or names an impossible
// calendar date.
func Date(text string) (time.Time, bool) {
	m := DatePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil || m[0] != strings.TrimSpace(text) {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	year = ExpandYear(year)

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; reject anything that moved.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate canonicalizes a date string to DD/MM/YYYY. Unparseable
// input is returned unchanged so the caller decides fallback policy.
func NormalizeDate(text string) string {
	t, ok := Date(text)
	if !ok {
		return text
	}
	return fmt.Sprintf("%02d/%02d/%04d", t.Day(), int(t.Month()), t.Year())
}
