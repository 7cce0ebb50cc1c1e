// Package bonds builds bond cashflow schedules from common feed shapes.
package bonds

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/bond"
	"github.com/meenmo/curvelib/utils"
)

// CashflowCents mirrors feeds that store coupon and principal as integer
// minor units (e.g., cents for USD).
type CashflowCents struct {
	Date           time.Time
	CouponCents    int64
	PrincipalCents int64
}

func (c CashflowCents) ToCashflow() bond.Cashflow {
	return bond.Cashflow{
		Date:      c.Date,
		Coupon:    float64(c.CouponCents) / 100.0,
		Principal: float64(c.PrincipalCents) / 100.0,
	}
}

func ToCashflows(in []CashflowCents) []bond.Cashflow {
	out := make([]bond.Cashflow, 0, len(in))
	for _, cf := range in {
		out = append(out, cf.ToCashflow())
	}
	return out
}

// Bullet builds the remaining schedule of a fixed-coupon bullet bond:
// coupon dates roll back from maturity at the payment frequency, keeping
// those after settlement, and the principal is repaid at maturity.
// couponRate is the annual rate in decimal.
func Bullet(settlement, maturity time.Time, couponRate, principal float64, freq int) ([]bond.Cashflow, error) {
	if freq <= 0 || 12%freq != 0 {
		return nil, fmt.Errorf("Bullet: unsupported coupon frequency %d", freq)
	}
	if !maturity.After(settlement) {
		return nil, fmt.Errorf("Bullet: maturity %s not after settlement %s",
			maturity.Format("2006-01-02"), settlement.Format("2006-01-02"))
	}

	step := 12 / freq
	var dates []time.Time
	for cur := maturity; cur.After(settlement); cur = utils.AddMonth(cur, -step) {
		dates = append(dates, cur)
	}
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}

	coupon := principal * couponRate / float64(freq)
	out := make([]bond.Cashflow, len(dates))
	for i, d := range dates {
		out[i] = bond.Cashflow{Date: d, Coupon: coupon}
	}
	out[len(out)-1].Principal = principal
	return out, nil
}
