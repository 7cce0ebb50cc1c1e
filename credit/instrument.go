package credit

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/utils"
)

// Convention describes the premium-leg conventions of a standard CDS
// contract.
type Convention struct {
	Name              string
	Currency          string
	PaymentFreqMonths int
	DayCount          string // premium accrual convention
	Calendar          calendar.CalendarID
}

// PremiumPeriod is one accrual period of the premium leg.
type PremiumPeriod struct {
	Start   time.Time
	End     time.Time
	Pay     time.Time
	Accrual float64
}

// CDS is a resolved single-name credit default swap: protection on a unit
// notional against a running premium.
type CDS struct {
	LegalEntityID   string
	Currency        string
	Coupon          float64
	ProtectionStart time.Time
	Maturity        time.Time
	Periods         []PremiumPeriod
}

// Resolve builds the CDS maturing one tenor past the valuation date.
func (c Convention) Resolve(valuation time.Time, tenor, legalEntityID string, coupon float64) (CDS, error) {
	maturity, err := utils.AddTenor(valuation, tenor)
	if err != nil {
		return CDS{}, fmt.Errorf("Resolve: %w", err)
	}
	return c.ResolveToDate(valuation, maturity, legalEntityID, coupon)
}

// ResolveToDate builds the CDS with the given scheduled maturity. Premium
// periods roll back from maturity at the payment frequency; dates take the
// Following convention and the protection window runs from the valuation
// date to the adjusted maturity.
func (c Convention) ResolveToDate(valuation, maturity time.Time, legalEntityID string, coupon float64) (CDS, error) {
	if c.PaymentFreqMonths <= 0 {
		return CDS{}, fmt.Errorf("ResolveToDate: unsupported payment frequency %d", c.PaymentFreqMonths)
	}
	if !maturity.After(valuation) {
		return CDS{}, fmt.Errorf("ResolveToDate: maturity %s not after valuation %s",
			maturity.Format("2006-01-02"), valuation.Format("2006-01-02"))
	}

	var unadjusted []time.Time
	for cur := maturity; cur.After(valuation); cur = utils.AddMonth(cur, -c.PaymentFreqMonths) {
		unadjusted = append([]time.Time{cur}, unadjusted...)
	}
	if len(unadjusted) > 1 && utils.Days(valuation, unadjusted[0]) <= 7 {
		unadjusted = unadjusted[1:]
	}
	unadjusted = append([]time.Time{valuation}, unadjusted...)

	periods := make([]PremiumPeriod, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		start := calendar.AdjustFollowing(c.Calendar, unadjusted[i])
		end := calendar.AdjustFollowing(c.Calendar, unadjusted[i+1])
		periods = append(periods, PremiumPeriod{
			Start:   start,
			End:     end,
			Pay:     end,
			Accrual: utils.YearFraction(start, end, c.DayCount),
		})
	}

	return CDS{
		LegalEntityID:   legalEntityID,
		Currency:        c.Currency,
		Coupon:          coupon,
		ProtectionStart: valuation,
		Maturity:        periods[len(periods)-1].End,
		Periods:         periods,
	}, nil
}
