package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	USD    CalendarID = "USD"
	GBP    CalendarID = "GBP"
	JPN    CalendarID = "JPN"
)

// holidays holds each calendar's non-weekend closures keyed by formatted
// date. Unknown calendars are weekend-only.
var holidays = map[CalendarID]map[string]struct{}{
	TARGET: {},
	USD:    {},
	GBP:    {},
	JPN:    {},
}

func isHoliday(cal CalendarID, t time.Time) bool {
	_, ok := holidays[cal][t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay reports whether t is neither a weekend nor a holiday on cal.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
