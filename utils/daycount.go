package utils

import (
	"time"
)

// YearFraction converts the span between two dates into a year fraction
// under the named day count convention. ACT/360, ACT/365F, 30/360 and
// 30E/360 are supported; any other name falls back to ACT/365.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case "ACT/360":
		return Days(start, end) / 360.0
	case "ACT/365F":
		return Days(start, end) / 365.0
	case "30E/360", "30/360":
		return thirty360(start, end)
	default:
		return Days(start, end) / 365.0
	}
}

// thirty360 is the Eurobond basis: both day-of-month terms cap at 30.
func thirty360(start, end time.Time) float64 {
	d1, d2 := start.Day(), end.Day()
	if d1 > 30 {
		d1 = 30
	}
	if d2 > 30 {
		d2 = 30
	}
	days := 360*(end.Year()-start.Year()) + 30*(int(end.Month())-int(start.Month())) + d2 - d1
	return float64(days) / 360.0
}
