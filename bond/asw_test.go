package bond_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvelib/bond"
	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/credit"
)

func aswInput(disc credit.DiscountCurve, dirty float64) bond.ASWInput {
	return bond.ASWInput{
		SettlementDate:  asOf,
		DirtyPrice:      dirty,
		Notional:        100,
		Cashflows:       bulletBond(2.5, 5),
		FloatFreqMonths: 3,
		FloatDayCount:   "ACT/360",
		Calendar:        calendar.USD,
		Discount:        disc,
	}
}

func TestComputeASWSpreadFairlyPricedBondIsZero(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.03)
	in := aswInput(disc, 0)
	in.DirtyPrice = riskFreeValue(disc, in.Cashflows)

	res, err := bond.ComputeASWSpread(in)
	if err != nil {
		t.Fatalf("ComputeASWSpread: %v", err)
	}
	if math.Abs(res.SpreadBP) > 1e-9 {
		t.Fatalf("spread = %v bp, want 0 for a bond priced on the curve", res.SpreadBP)
	}
}

func TestComputeASWSpreadDiscountToCurve(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.03)
	in := aswInput(disc, 0)
	pvRF := riskFreeValue(disc, in.Cashflows)
	in.DirtyPrice = pvRF - 0.5

	res, err := bond.ComputeASWSpread(in)
	if err != nil {
		t.Fatalf("ComputeASWSpread: %v", err)
	}

	if math.Abs(res.PVBondRF-pvRF) > 1e-10 {
		t.Fatalf("PVBondRF = %v, want %v", res.PVBondRF, pvRF)
	}
	// 5y quarterly 1bp annuity on notional 100, mildly discounted.
	if res.PV01 < 0.03 || res.PV01 > 0.06 {
		t.Fatalf("PV01 = %v outside plausible band", res.PV01)
	}
	if want := 0.5 / res.PV01; math.Abs(res.SpreadBP-want) > 1e-9 {
		t.Fatalf("spread = %v bp, want %v", res.SpreadBP, want)
	}
	if res.SpreadBP <= 0 {
		t.Fatalf("spread = %v bp, want positive for a bond cheap to the curve", res.SpreadBP)
	}
}

func TestComputeASWSpreadValidation(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.03)

	in := aswInput(disc, 95)
	in.SettlementDate = asOf.AddDate(0, 0, 1)
	if _, err := bond.ComputeASWSpread(in); err == nil {
		t.Fatal("settlement mismatch: expected error")
	}

	in = aswInput(nil, 95)
	if _, err := bond.ComputeASWSpread(in); !errors.Is(err, credit.ErrNilCurve) {
		t.Fatalf("nil discount: got %v, want ErrNilCurve", err)
	}

	cases := []struct {
		name   string
		mutate func(*bond.ASWInput)
	}{
		{"zero settlement", func(in *bond.ASWInput) { in.SettlementDate = time.Time{} }},
		{"zero notional", func(in *bond.ASWInput) { in.Notional = 0 }},
		{"no cashflows", func(in *bond.ASWInput) { in.Cashflows = nil }},
		{"zero frequency", func(in *bond.ASWInput) { in.FloatFreqMonths = 0 }},
		{"maturity at settlement", func(in *bond.ASWInput) {
			in.Cashflows = []bond.Cashflow{{Date: asOf, Coupon: 2.5, Principal: 100}}
		}},
	}
	for _, tc := range cases {
		in := aswInput(disc, 95)
		tc.mutate(&in)
		if _, err := bond.ComputeASWSpread(in); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
