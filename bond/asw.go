package bond

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/utils"
)

type ASWInput struct {
	// SettlementDate must equal the discount curve's valuation date.
	SettlementDate time.Time
	// DirtyPrice is the bond's full price, in the same units as the
	// cashflow amounts.
	DirtyPrice float64
	Notional   float64
	Cashflows  []Cashflow

	// FloatFreqMonths, FloatDayCount and Calendar define the floating leg
	// the spread is paid over (e.g. quarterly ACT/360). They control the
	// PV01 schedule only; no forward projection is involved.
	FloatFreqMonths int
	FloatDayCount   string
	Calendar        calendar.CalendarID

	Discount credit.DiscountCurve
}

type ASWResult struct {
	SpreadBP float64
	PVBondRF float64
	PV01     float64
}

// ComputeASWSpread computes the asset swap spread (in bp) using the approximation:
//
//	ASW ≈ (PV_bond^{rf} - P_dirty) / PV01
//
// where PV01 is the PV of receiving 1bp on the floating leg over the bond's
// remaining life.
func ComputeASWSpread(in ASWInput) (ASWResult, error) {
	if in.SettlementDate.IsZero() {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: SettlementDate is required")
	}
	if in.Notional <= 0 {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: Notional must be positive")
	}
	if in.Discount == nil {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: %w", credit.ErrNilCurve)
	}
	if len(in.Cashflows) == 0 {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: Cashflows are required")
	}
	if in.FloatFreqMonths <= 0 {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: FloatFreqMonths must be positive")
	}
	if !in.SettlementDate.Equal(in.Discount.ValuationDate()) {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: settlement %s does not match discount curve date %s",
			in.SettlementDate.Format("2006-01-02"), in.Discount.ValuationDate().Format("2006-01-02"))
	}

	maturity := in.SettlementDate
	for _, cf := range in.Cashflows {
		if cf.Date.After(maturity) {
			maturity = cf.Date
		}
	}
	if !maturity.After(in.SettlementDate) {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: maturity (%s) must be after settlement (%s)",
			maturity.Format("2006-01-02"), in.SettlementDate.Format("2006-01-02"))
	}

	pvBondRF := 0.0
	for _, cf := range in.Cashflows {
		if cf.Date.Before(in.SettlementDate) {
			continue
		}
		pvBondRF += cf.Amount() * in.Discount.DiscountFactor(cf.Date)
	}

	// Floating leg schedule: roll back from maturity, folding a short front
	// stub into the first full period.
	var unadjusted []time.Time
	for cur := maturity; cur.After(in.SettlementDate); cur = utils.AddMonth(cur, -in.FloatFreqMonths) {
		unadjusted = append([]time.Time{cur}, unadjusted...)
	}
	if len(unadjusted) > 1 && utils.Days(in.SettlementDate, unadjusted[0]) <= 7 {
		unadjusted = unadjusted[1:]
	}
	unadjusted = append([]time.Time{in.SettlementDate}, unadjusted...)

	pv01 := 0.0
	for i := 0; i+1 < len(unadjusted); i++ {
		start := calendar.Adjust(in.Calendar, unadjusted[i])
		end := calendar.Adjust(in.Calendar, unadjusted[i+1])
		accrual := utils.YearFraction(start, end, in.FloatDayCount)
		pv01 += in.Notional * accrual * 1e-4 * in.Discount.DiscountFactor(end)
	}
	if pv01 == 0 {
		return ASWResult{}, fmt.Errorf("ComputeASWSpread: PV01 is zero")
	}

	spreadBP := (pvBondRF - in.DirtyPrice) / pv01
	return ASWResult{
		SpreadBP: spreadBP,
		PVBondRF: pvBondRF,
		PV01:     pv01,
	}, nil
}
