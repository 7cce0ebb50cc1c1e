package store

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/marketdata"
)

// openTestStore connects to the database named by CURVELIB_TEST_DSN, or
// skips the test when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CURVELIB_TEST_DSN")
	if dsn == "" {
		t.Skip("CURVELIB_TEST_DSN not set")
	}
	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testDate = time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

func TestStoreDiscountRoundTrip(t *testing.T) {
	s := openTestStore(t)

	set := marketdata.DiscountQuoteSet{
		Date:     testDate,
		Currency: "TST",
		Deposits: []marketdata.DepositQuote{
			{Label: "1M", Tenor: "1M", Rate: 0.005},
		},
		Swaps: []marketdata.SwapQuote{
			{Label: "2Y", Tenor: "2Y", Rate: 0.010},
			{Label: "5Y", Tenor: "5Y", Rate: 0.015},
		},
	}
	require.NoError(t, s.SaveDiscount(set))
	t.Cleanup(func() {
		s.SaveDiscount(marketdata.DiscountQuoteSet{Date: testDate, Currency: "TST"})
	})

	got, err := s.DiscountQuotes(testDate, "TST")
	require.NoError(t, err)
	require.Equal(t, set.Currency, got.Currency)
	require.Equal(t, set.Deposits, got.Deposits)
	require.Equal(t, set.Swaps, got.Swaps)

	// Saving again replaces the snapshot rather than appending to it.
	set.Swaps = set.Swaps[:1]
	require.NoError(t, s.SaveDiscount(set))
	got, err = s.DiscountQuotes(testDate, "TST")
	require.NoError(t, err)
	require.Len(t, got.Swaps, 1)
	require.Equal(t, "2Y", got.Swaps[0].Label)
}

func TestStoreCreditRoundTrip(t *testing.T) {
	s := openTestStore(t)

	set := marketdata.CreditQuoteSet{
		Date:          testDate,
		LegalEntityID: "TEST-HOLDCO",
		Currency:      "TST",
		Convention:    credit.QuotePointsUpfront,
		Quotes: []marketdata.CDSQuote{
			{Label: "1Y", Tenor: "1Y", Value: 0.01},
			{Label: "5Y", Tenor: "5Y", Value: 0.04},
		},
	}
	require.NoError(t, s.SaveCredit(set))
	t.Cleanup(func() {
		s.SaveCredit(marketdata.CreditQuoteSet{Date: testDate, LegalEntityID: "TEST-HOLDCO"})
	})

	var src marketdata.QuoteSource = s
	got, err := src.CreditQuotes(testDate, "TEST-HOLDCO")
	require.NoError(t, err)
	require.Equal(t, set.Currency, got.Currency)
	require.Equal(t, set.Convention, got.Convention)
	require.Equal(t, set.Quotes, got.Quotes)
}

func TestStoreMisses(t *testing.T) {
	s := openTestStore(t)

	_, err := s.DiscountQuotes(testDate, "NONE")
	require.ErrorIs(t, err, marketdata.ErrNoQuotes)

	_, err = s.CreditQuotes(testDate, "NOBODY")
	require.ErrorIs(t, err, marketdata.ErrNoQuotes)
}
