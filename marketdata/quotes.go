// Package marketdata carries the quote snapshots consumed by the curve
// calibrators and the sources that supply them.
package marketdata

import (
	"errors"
	"time"

	"github.com/meenmo/curvelib/credit"
)

// ErrNoQuotes is returned when a source has no snapshot for the requested
// key.
var ErrNoQuotes = errors.New("no quotes for key")

// DepositQuote is one term-deposit rate observation.
type DepositQuote struct {
	Label string
	Tenor string
	Rate  float64
}

// SwapQuote is one par swap rate observation.
type SwapQuote struct {
	Label string
	Tenor string
	Rate  float64
}

// DiscountQuoteSet is one currency's discount-curve snapshot, nodes in
// maturity order.
type DiscountQuoteSet struct {
	Date     time.Time
	Currency string
	Deposits []DepositQuote
	Swaps    []SwapQuote
}

// CDSQuote is one CDS observation in the set's quote convention.
type CDSQuote struct {
	Label string
	Tenor string
	Value float64
}

// CreditQuoteSet is one legal entity's CDS snapshot, nodes in maturity
// order. All quotes share one convention.
type CreditQuoteSet struct {
	Date          time.Time
	LegalEntityID string
	Currency      string
	Convention    credit.QuoteConvention
	Quotes        []CDSQuote
}

// QuoteSource supplies quote snapshots by date.
type QuoteSource interface {
	DiscountQuotes(date time.Time, currency string) (DiscountQuoteSet, error)
	CreditQuotes(date time.Time, legalEntityID string) (CreditQuoteSet, error)
}
