package utils

import (
	"time"
)

// Days returns the day count fraction in days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// AddMonth behaves like Excel's EDATE: a day of month past the end of the
// target month clamps to its last day instead of rolling over.
func AddMonth(t time.Time, months int) time.Time {
	shifted := t.AddDate(0, months, 0)
	if d := shifted.Day(); d != t.Day() {
		// AddDate normalized the overflow into the following month;
		// stepping back by the spilled days lands on the last day of
		// the intended month.
		return shifted.AddDate(0, 0, -d)
	}
	return shifted
}
