// Command aswspread computes asset swap spreads for a batch of bonds
// against a discount curve bootstrapped from the fixture's quotes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meenmo/curvelib/bond"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments/discount"
	"github.com/meenmo/curvelib/rates"
)

type aswFixture struct {
	CurveDate string `json:"curve_date"`
	Currency  string `json:"currency"`
	// FloatFreqMonths and FloatDayCount describe the asset swap floating
	// leg used for PV01 (default quarterly ACT/360).
	FloatFreqMonths int          `json:"float_freq_months"`
	FloatDayCount   string       `json:"float_day_count"`
	Deposits        []curveQuote `json:"deposits"`
	Swaps           []curveQuote `json:"swaps"`
	Bonds           []bondCase   `json:"bonds"`
}

type curveQuote struct {
	Label string  `json:"label"`
	Tenor string  `json:"tenor"`
	Rate  float64 `json:"rate"`
}

type bondCase struct {
	ISIN           string        `json:"isin"`
	Notional       float64       `json:"notional"`
	BondDirtyPrice json.Number   `json:"bond_dirty_price"`
	Cashflows      []cashflowRow `json:"cashflows"`
}

type cashflowRow struct {
	Date      string `json:"date"`
	Coupon    int64  `json:"coupon"`
	Principal int64  `json:"principal"`
}

type aswOutput struct {
	CurveDate        string  `json:"curve_date"`
	SettlementDate   string  `json:"settlement_date"`
	ISIN             string  `json:"isin"`
	Currency         string  `json:"currency"`
	BondMaturityDate string  `json:"bond_maturity_date"`
	BondNotional     float64 `json:"bond_notional"`
	BondDirtyPrice   float64 `json:"bond_dirty_price"`
	BondPVRF         float64 `json:"bond_pv_rf"`
	SwapPV01         float64 `json:"swap_pv01"`
	ASWSpreadBP      float64 `json:"asw_spread_bp"`
}

func main() {
	inputParams := flag.String("input-params", "", "ASW fixture JSON path")
	input := flag.String("input", "", "ASW fixture JSON path (alias of -input-params)")
	flag.Parse()

	path := strings.TrimSpace(*inputParams)
	if path == "" {
		path = strings.TrimSpace(*input)
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "usage: aswspread -input-params /path/to/input.json\n")
		os.Exit(2)
	}

	path = resolvePath(path)
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	var fixture aswFixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		fmt.Fprintf(os.Stderr, "parse input: %v\n", err)
		os.Exit(1)
	}

	curveDate, err := time.Parse("2006-01-02", fixture.CurveDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "input: curve_date parse: %v\n", err)
		os.Exit(1)
	}
	currency := fixture.Currency
	if currency == "" {
		currency = "USD"
	}
	conv, ok := discount.ByCurrency(currency)
	if !ok {
		fmt.Fprintf(os.Stderr, "input: no discount conventions for currency %s\n", currency)
		os.Exit(1)
	}
	floatFreq := fixture.FloatFreqMonths
	if floatFreq == 0 {
		floatFreq = 3
	}
	floatDC := fixture.FloatDayCount
	if floatDC == "" {
		floatDC = "ACT/360"
	}

	disc, err := buildDiscountCurve(conv, curveDate, fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build curve: %v\n", err)
		os.Exit(1)
	}
	settlement := disc.ValuationDate()

	outputs := make([]aswOutput, 0, len(fixture.Bonds))

	for _, tc := range fixture.Bonds {
		cfs := make([]bond.Cashflow, 0, len(tc.Cashflows))
		for _, r := range tc.Cashflows {
			d, err := time.Parse("2006-01-02", r.Date)
			if err != nil {
				fmt.Fprintf(os.Stderr, "isin=%s cashflow date parse: %v\n", tc.ISIN, err)
				os.Exit(1)
			}
			cfs = append(cfs, bond.Cashflow{
				Date:      d,
				Coupon:    float64(r.Coupon),
				Principal: float64(r.Principal),
			})
		}

		pxDirty, _ := tc.BondDirtyPrice.Float64()
		dirtyPrice := tc.Notional * pxDirty / 100.0

		res, err := bond.ComputeASWSpread(bond.ASWInput{
			SettlementDate:  settlement,
			DirtyPrice:      dirtyPrice,
			Notional:        tc.Notional,
			Cashflows:       cfs,
			FloatFreqMonths: floatFreq,
			FloatDayCount:   floatDC,
			Calendar:        conv.Calendar,
			Discount:        disc,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "isin=%s ComputeASWSpread: %v\n", tc.ISIN, err)
			os.Exit(1)
		}

		maturity := maturityDate(cfs)

		outputs = append(outputs, aswOutput{
			CurveDate:        fixture.CurveDate,
			SettlementDate:   settlement.Format("2006-01-02"),
			ISIN:             tc.ISIN,
			Currency:         currency,
			BondMaturityDate: maturity.Format("2006-01-02"),
			BondNotional:     tc.Notional,
			BondDirtyPrice:   pxDirty,
			BondPVRF:         res.PVBondRF,
			SwapPV01:         res.PV01,
			ASWSpreadBP:      res.SpreadBP,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		fmt.Fprintf(os.Stderr, "json encode: %v\n", err)
		os.Exit(1)
	}
}

func resolvePath(value string) string {
	if value == "" {
		return value
	}
	if _, err := os.Stat(value); err == nil {
		return value
	}

	clean := filepath.Clean(value)
	if strings.HasPrefix(clean, "bond"+string(filepath.Separator)) {
		trimmed := strings.TrimPrefix(clean, "bond"+string(filepath.Separator))
		if _, err := os.Stat(trimmed); err == nil {
			return trimmed
		}
	}

	return value
}

func maturityDate(cfs []bond.Cashflow) time.Time {
	var maturity time.Time
	for _, cf := range cfs {
		if cf.Date.After(maturity) {
			maturity = cf.Date
		}
	}
	return maturity
}

func buildDiscountCurve(conv discount.MarketConventions, curveDate time.Time, fixture aswFixture) (*curve.DiscountFactors, error) {
	nodes := make([]rates.NodeDefinition, 0, len(fixture.Deposits)+len(fixture.Swaps))
	for _, q := range fixture.Deposits {
		nodes = append(nodes, conv.Deposit(q.Label, q.Tenor, q.Rate))
	}
	for _, q := range fixture.Swaps {
		nodes = append(nodes, conv.Swap(q.Label, q.Tenor, q.Rate))
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no curve quotes")
	}
	return rates.Bootstrapper{}.Bootstrap(conv.Definition(), nodes, curveDate, rates.Options{})
}
