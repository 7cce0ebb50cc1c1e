package marketdata

import (
	"time"

	"github.com/meenmo/curvelib/credit"
)

// SampleDate is the observation date of the bundled snapshots.
var SampleDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// USDDiscountSample is a small bundled USD discount snapshot: one deposit
// and two par swaps.
var USDDiscountSample = DiscountQuoteSet{
	Date:     SampleDate,
	Currency: "USD",
	Deposits: []DepositQuote{
		{Label: "1M", Tenor: "1M", Rate: 0.005},
	},
	Swaps: []SwapQuote{
		{Label: "2Y", Tenor: "2Y", Rate: 0.010},
		{Label: "5Y", Tenor: "5Y", Rate: 0.015},
	},
}

// ACMECreditSample is a bundled par-spread CDS snapshot for a fictional
// reference entity.
var ACMECreditSample = CreditQuoteSet{
	Date:          SampleDate,
	LegalEntityID: "ACME",
	Currency:      "USD",
	Convention:    credit.QuoteParSpread,
	Quotes: []CDSQuote{
		{Label: "1Y", Tenor: "1Y", Value: 0.0050},
		{Label: "3Y", Tenor: "3Y", Value: 0.0080},
		{Label: "5Y", Tenor: "5Y", Value: 0.0120},
	},
}

// DefaultSource builds a map-backed source holding the bundled samples.
func DefaultSource() *MapQuoteSource {
	src := NewMapQuoteSource()
	src.PutDiscount(USDDiscountSample)
	src.PutCredit(ACMECreditSample)
	return src
}
