package rates

import (
	"github.com/meenmo/curvelib/calendar"
)

// CurveDefinition identifies the discount curve being bootstrapped and the
// conventions shared by its nodes.
type CurveDefinition struct {
	Name     string
	Currency string
	DayCount string // maps dates onto curve time
	Calendar calendar.CalendarID
}

// NodeDefinition is one par-quoted calibration instrument. Concrete node
// types are DepositDefinition and SwapDefinition; the bootstrapper rejects
// anything else.
type NodeDefinition interface {
	NodeLabel() string
	NodeCurrency() string
	NodeSpotLag() int
}

// DepositDefinition is a money-market deposit node: funds placed at spot,
// repaid with simple interest at maturity.
type DepositDefinition struct {
	Label       string
	Currency    string
	Tenor       string
	Rate        float64 // simple rate, decimal
	DayCount    string  // deposit accrual convention
	Calendar    calendar.CalendarID
	SpotLagDays int
}

func (d DepositDefinition) NodeLabel() string    { return d.Label }
func (d DepositDefinition) NodeCurrency() string { return d.Currency }
func (d DepositDefinition) NodeSpotLag() int     { return d.SpotLagDays }

// SwapDefinition is a par fixed-vs-floating swap node. Only the fixed leg
// matters to the bootstrap: at par under single-curve discounting the
// floating leg collapses to 1 - DF(maturity).
type SwapDefinition struct {
	Label           string
	Currency        string
	Tenor           string
	Rate            float64 // par fixed rate, decimal
	FixedFreqMonths int
	FixedDayCount   string
	Calendar        calendar.CalendarID
	SpotLagDays     int
}

func (s SwapDefinition) NodeLabel() string    { return s.Label }
func (s SwapDefinition) NodeCurrency() string { return s.Currency }
func (s SwapDefinition) NodeSpotLag() int     { return s.SpotLagDays }
