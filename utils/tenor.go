package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AddTenor advances a date by a tenor string like "3M", "26W", "10Y" or "180D".
func AddTenor(t time.Time, tenor string) (time.Time, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("AddTenor: malformed tenor %q", tenor)
	}

	unit := s[len(s)-1:]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return time.Time{}, fmt.Errorf("AddTenor: malformed tenor %q: %w", tenor, err)
	}

	switch unit {
	case "D":
		return t.AddDate(0, 0, n), nil
	case "W":
		return t.AddDate(0, 0, 7*n), nil
	case "M":
		return AddMonth(t, n), nil
	case "Y":
		return AddMonth(t, 12*n), nil
	default:
		return time.Time{}, fmt.Errorf("AddTenor: unrecognized tenor unit %q", tenor)
	}
}

// TenorMonths returns the whole number of months in a month- or year-unit tenor.
func TenorMonths(tenor string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if len(s) < 2 {
		return 0, fmt.Errorf("TenorMonths: malformed tenor %q", tenor)
	}

	unit := s[len(s)-1:]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("TenorMonths: malformed tenor %q: %w", tenor, err)
	}

	switch unit {
	case "M":
		return n, nil
	case "Y":
		return 12 * n, nil
	default:
		return 0, fmt.Errorf("TenorMonths: tenor %q has no whole-month representation", tenor)
	}
}
