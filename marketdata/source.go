package marketdata

import (
	"fmt"
	"time"
)

// MapQuoteSource is a static map-backed implementation for development and
// testing.
type MapQuoteSource struct {
	discount map[string]DiscountQuoteSet
	credit   map[string]CreditQuoteSet
}

func NewMapQuoteSource() *MapQuoteSource {
	return &MapQuoteSource{
		discount: map[string]DiscountQuoteSet{},
		credit:   map[string]CreditQuoteSet{},
	}
}

func sourceKey(date time.Time, id string) string {
	return date.Format("2006-01-02") + "|" + id
}

// PutDiscount stores set under its date and currency.
func (m *MapQuoteSource) PutDiscount(set DiscountQuoteSet) {
	m.discount[sourceKey(set.Date, set.Currency)] = set
}

// PutCredit stores set under its date and legal entity.
func (m *MapQuoteSource) PutCredit(set CreditQuoteSet) {
	m.credit[sourceKey(set.Date, set.LegalEntityID)] = set
}

func (m *MapQuoteSource) DiscountQuotes(date time.Time, currency string) (DiscountQuoteSet, error) {
	set, ok := m.discount[sourceKey(date, currency)]
	if !ok {
		return DiscountQuoteSet{}, fmt.Errorf("DiscountQuotes: %s %s: %w",
			date.Format("2006-01-02"), currency, ErrNoQuotes)
	}
	return set, nil
}

func (m *MapQuoteSource) CreditQuotes(date time.Time, legalEntityID string) (CreditQuoteSet, error) {
	set, ok := m.credit[sourceKey(date, legalEntityID)]
	if !ok {
		return CreditQuoteSet{}, fmt.Errorf("CreditQuotes: %s %s: %w",
			date.Format("2006-01-02"), legalEntityID, ErrNoQuotes)
	}
	return set, nil
}
