// Package discount bundles per-currency conventions for the instruments
// that calibrate a discount curve.
package discount

import (
	"fmt"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/rates"
)

// MarketConventions groups the quoting conventions a currency's deposit
// and par swap instruments share.
type MarketConventions struct {
	CurveName       string
	Currency        string
	CurveDayCount   string
	Calendar        calendar.CalendarID
	SpotLagDays     int
	DepositDayCount string
	FixedFreqMonths int
	FixedDayCount   string
}

// Preset conventions for the supported currencies.
var (
	// USD: ACT/360 deposits, semiannual 30/360 fixed legs, two-day spot.
	USD = MarketConventions{
		CurveName:       "usd-disc",
		Currency:        "USD",
		CurveDayCount:   "ACT/365F",
		Calendar:        calendar.USD,
		SpotLagDays:     2,
		DepositDayCount: "ACT/360",
		FixedFreqMonths: 6,
		FixedDayCount:   "30/360",
	}

	// EUR: ACT/360 deposits, annual 30E/360 fixed legs, two-day spot,
	// TARGET calendar.
	EUR = MarketConventions{
		CurveName:       "eur-disc",
		Currency:        "EUR",
		CurveDayCount:   "ACT/365F",
		Calendar:        calendar.TARGET,
		SpotLagDays:     2,
		DepositDayCount: "ACT/360",
		FixedFreqMonths: 12,
		FixedDayCount:   "30E/360",
	}

	// GBP: ACT/365F throughout, semiannual fixed legs, same-day spot.
	GBP = MarketConventions{
		CurveName:       "gbp-disc",
		Currency:        "GBP",
		CurveDayCount:   "ACT/365F",
		Calendar:        calendar.GBP,
		SpotLagDays:     0,
		DepositDayCount: "ACT/365F",
		FixedFreqMonths: 6,
		FixedDayCount:   "ACT/365F",
	}
)

// ByCurrency returns the preset for a currency code.
func ByCurrency(currency string) (MarketConventions, bool) {
	switch currency {
	case "USD":
		return USD, true
	case "EUR":
		return EUR, true
	case "GBP":
		return GBP, true
	}
	return MarketConventions{}, false
}

// Definition returns the curve identity shared by the nodes.
func (m MarketConventions) Definition() rates.CurveDefinition {
	return rates.CurveDefinition{
		Name:     m.CurveName,
		Currency: m.Currency,
		DayCount: m.CurveDayCount,
		Calendar: m.Calendar,
	}
}

// Deposit builds one deposit node under m's conventions.
func (m MarketConventions) Deposit(label, tenor string, rate float64) rates.DepositDefinition {
	return rates.DepositDefinition{
		Label:       label,
		Currency:    m.Currency,
		Tenor:       tenor,
		Rate:        rate,
		DayCount:    m.DepositDayCount,
		Calendar:    m.Calendar,
		SpotLagDays: m.SpotLagDays,
	}
}

// Swap builds one par swap node under m's conventions.
func (m MarketConventions) Swap(label, tenor string, rate float64) rates.SwapDefinition {
	return rates.SwapDefinition{
		Label:           label,
		Currency:        m.Currency,
		Tenor:           tenor,
		Rate:            rate,
		FixedFreqMonths: m.FixedFreqMonths,
		FixedDayCount:   m.FixedDayCount,
		Calendar:        m.Calendar,
		SpotLagDays:     m.SpotLagDays,
	}
}

// Nodes converts a quote snapshot into bootstrap instruments, deposits
// first then swaps.
func (m MarketConventions) Nodes(set marketdata.DiscountQuoteSet) ([]rates.NodeDefinition, error) {
	if set.Currency != m.Currency {
		return nil, fmt.Errorf("Nodes: quote set currency %s does not match %s", set.Currency, m.Currency)
	}
	out := make([]rates.NodeDefinition, 0, len(set.Deposits)+len(set.Swaps))
	for _, q := range set.Deposits {
		out = append(out, m.Deposit(q.Label, q.Tenor, q.Rate))
	}
	for _, q := range set.Swaps {
		out = append(out, m.Swap(q.Label, q.Tenor, q.Rate))
	}
	return out, nil
}
