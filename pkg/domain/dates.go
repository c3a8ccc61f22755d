package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date text format is a fixed DD/MM/YYYY with zero-padded day and month. All
// comparisons truncate to local midnight so time-of-day never produces
// off-by-one results, and day deltas round up so a same-day expiry counts as
// day 0 rather than -1.

// nowFn is swapped out by tests that need a fixed clock.
var nowFn = time.Now

// ParseDate parses DD/MM/YYYY text. It returns false on a wrong segment count
// or a non-numeric segment and never panics. Out-of-range day or month values
// normalize forward the way time.Date does.
func ParseDate(text string) (time.Time, bool) {
	parts := strings.Split(text, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	dd, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	mm, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	yy, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(yy, time.Month(mm), dd, 0, 0, 0, 0, time.Local), true
}

// FormatDate renders t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d", t.Day(), int(t.Month()), t.Year())
}

// Today returns the current date truncated to local midnight.
func Today() time.Time {
	return truncateDay(nowFn())
}

// TodayString returns today's date in DD/MM/YYYY form.
func TodayString() string {
	return FormatDate(Today())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// IsFutureDate reports whether text parses and is strictly later than today.
// Unparsable input is not future.
func IsFutureDate(text string) bool {
	d, ok := ParseDate(text)
	if !ok {
		return false
	}
	return truncateDay(d).After(Today())
}

// IsBeforeDate reports whether both dates parse and a is strictly earlier
// than b. Any parse failure yields false.
func IsBeforeDate(a, b string) bool {
	da, ok := ParseDate(a)
	if !ok {
		return false
	}
	db, ok := ParseDate(b)
	if !ok {
		return false
	}
	return truncateDay(da).Before(truncateDay(db))
}

// DaysUntil returns the whole-day delta from today to text, rounding up, or
// false if text is unparsable. Past dates yield negative values.
func DaysUntil(text string) (int, bool) {
	d, ok := ParseDate(text)
	if !ok {
		return 0, false
	}
	delta := truncateDay(d).Sub(Today())
	return int(math.Ceil(delta.Hours() / 24)), true
}
