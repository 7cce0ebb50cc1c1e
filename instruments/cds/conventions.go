// Package cds bundles standard single-name CDS contract conventions.
package cds

import (
	"fmt"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/marketdata"
)

// Standard running coupons paired with quoted-spread and points-upfront
// quotes.
const (
	Coupon100 = 0.01
	Coupon500 = 0.05
)

// Preset contract conventions: quarterly premium with ACT/360 accrual on
// the currency's calendar.
var (
	USD = credit.Convention{
		Name:              "usd-std",
		Currency:          "USD",
		PaymentFreqMonths: 3,
		DayCount:          "ACT/360",
		Calendar:          calendar.USD,
	}

	EUR = credit.Convention{
		Name:              "eur-std",
		Currency:          "EUR",
		PaymentFreqMonths: 3,
		DayCount:          "ACT/360",
		Calendar:          calendar.TARGET,
	}
)

// ByCurrency returns the preset for a currency code.
func ByCurrency(currency string) (credit.Convention, bool) {
	switch currency {
	case "USD":
		return USD, true
	case "EUR":
		return EUR, true
	}
	return credit.Convention{}, false
}

// Definition converts a quote snapshot into a calibration definition for
// the given contract convention. name names the resulting curve,
// curveDayCount maps its dates onto curve time, and coupon is the
// standard running coupon applied to quoted-spread and points-upfront
// quotes.
func Definition(name string, set marketdata.CreditQuoteSet, conv credit.Convention, curveDayCount string, coupon float64) (credit.CurveDefinition, error) {
	if set.Currency != conv.Currency {
		return credit.CurveDefinition{}, fmt.Errorf("Definition: quote set currency %s does not match %s", set.Currency, conv.Currency)
	}
	if len(set.Quotes) == 0 {
		return credit.CurveDefinition{}, fmt.Errorf("Definition: quote set for %s has no quotes", set.LegalEntityID)
	}
	nodes := make([]credit.CDSNode, 0, len(set.Quotes))
	for _, q := range set.Quotes {
		nodes = append(nodes, credit.CDSNode{
			Label: q.Label,
			Tenor: q.Tenor,
			Quote: credit.Quote{Convention: set.Convention, Value: q.Value},
		})
	}
	return credit.CurveDefinition{
		Name:          name,
		LegalEntityID: set.LegalEntityID,
		Currency:      set.Currency,
		DayCount:      curveDayCount,
		Coupon:        coupon,
		Convention:    conv,
		Nodes:         nodes,
	}, nil
}
