package domain

import (
	"testing"
	"time"
)

// withFixedNow pins the clock for the duration of a test.
func withFixedNow(t *testing.T, fixed time.Time) {
	t.Helper()
	prev := nowFn
	nowFn = func() time.Time { return fixed }
	t.Cleanup(func() { nowFn = prev })
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"05/06/2024", time.Date(2024, 6, 5, 0, 0, 0, 0, time.Local), true},
		{"5/6/2024", time.Date(2024, 6, 5, 0, 0, 0, 0, time.Local), true},
		{" 5 / 6 / 2024 ", time.Date(2024, 6, 5, 0, 0, 0, 0, time.Local), true},
		// Out-of-range values normalize forward rather than failing.
		{"31/04/2024", time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), true},
		{"2024-06-05", time.Time{}, false},
		{"05/06", time.Time{}, false},
		{"aa/06/2024", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseDate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatDatePads(t *testing.T) {
	got := FormatDate(time.Date(2024, 6, 5, 0, 0, 0, 0, time.Local))
	if got != "05/06/2024" {
		t.Fatalf("FormatDate = %q, want 05/06/2024", got)
	}
}

func TestTodayTruncatesToMidnight(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 13, 45, 30, 0, time.Local))
	today := Today()
	if today.Hour() != 0 || today.Minute() != 0 || today.Second() != 0 {
		t.Fatalf("Today not truncated: %v", today)
	}
	if TodayString() != "15/06/2024" {
		t.Fatalf("TodayString = %q, want 15/06/2024", TodayString())
	}
}

func TestIsFutureDate(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 13, 45, 0, 0, time.Local))
	if !IsFutureDate("16/06/2024") {
		t.Fatalf("tomorrow should be future")
	}
	if IsFutureDate("15/06/2024") {
		t.Fatalf("today is not future")
	}
	if IsFutureDate("14/06/2024") {
		t.Fatalf("yesterday is not future")
	}
	if IsFutureDate("not-a-date") {
		t.Fatalf("unparsable input must not be future")
	}
}

func TestIsBeforeDate(t *testing.T) {
	if !IsBeforeDate("14/06/2024", "15/06/2024") {
		t.Fatalf("earlier date should be before")
	}
	if IsBeforeDate("15/06/2024", "15/06/2024") {
		t.Fatalf("equal dates are not before")
	}
	if IsBeforeDate("16/06/2024", "15/06/2024") {
		t.Fatalf("later date is not before")
	}
	if IsBeforeDate("garbage", "15/06/2024") || IsBeforeDate("15/06/2024", "garbage") {
		t.Fatalf("parse failure must yield false")
	}
}

func TestDaysUntil(t *testing.T) {
	withFixedNow(t, time.Date(2024, 6, 15, 13, 45, 0, 0, time.Local))
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"15/06/2024", 0, true},
		{"16/06/2024", 1, true},
		{"14/06/2024", -1, true},
		{"15/07/2024", 30, true},
		{"garbage", 0, false},
	}
	for _, tc := range cases {
		got, ok := DaysUntil(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("DaysUntil(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
