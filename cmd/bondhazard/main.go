// Command bondhazard solves the flat hazard rate a risky bond price
// implies and maps it to an equivalent CDS par spread.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/meenmo/curvelib/bond"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments/bonds"
	"github.com/meenmo/curvelib/instruments/cds"
	"github.com/meenmo/curvelib/utils"
)

type hazardInput struct {
	TaskID        string     `json:"task_id,omitempty"`
	ValuationDate string     `json:"valuation_date"`
	Currency      string     `json:"currency"`
	DayCount      string     `json:"day_count,omitempty"`
	DiscountKnots []knotJSON `json:"discount_knots"`
	DirtyPrice    float64    `json:"dirty_price"`
	RecoveryRate  float64    `json:"recovery_rate"`

	// Either an explicit schedule in minor units, or the bullet shorthand.
	Cashflows       []cashflowJSON `json:"cashflows,omitempty"`
	CouponRate      float64        `json:"coupon_rate,omitempty"`
	CouponFrequency int            `json:"coupon_frequency,omitempty"`
	MaturityDate    string         `json:"maturity_date,omitempty"`
	Principal       float64        `json:"principal,omitempty"`
}

type knotJSON struct {
	Label    string  `json:"label"`
	Date     string  `json:"date"`
	ZeroRate float64 `json:"zero_rate"`
}

type cashflowJSON struct {
	Date      string `json:"date"`
	Coupon    int64  `json:"coupon"`
	Principal int64  `json:"principal"`
}

type hazardOutput struct {
	TaskID            string  `json:"task_id,omitempty"`
	ValuationDate     string  `json:"valuation_date"`
	DirtyPrice        float64 `json:"dirty_price"`
	ImpliedHazardRate float64 `json:"implied_hazard_rate"`
	EquivalentSpread  float64 `json:"equivalent_cds_spread"`
	RiskFreeValue     float64 `json:"risk_free_value"`
	RecoveryFloor     float64 `json:"recovery_floor"`
	Error             string  `json:"error,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: bondhazard -input <path>")
		fmt.Fprintln(os.Stderr, "Solve the flat hazard rate implied by a risky bond price.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: bondhazard -input <path>")
			os.Exit(2)
		}
	}

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}

	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	hadError := false
	outputs := make([]hazardOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := process(in)
		if err != nil {
			hadError = true
			outputs = append(outputs, hazardOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		outputs = append(outputs, *out)
	}

	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Println(string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Println(string(b))
	}

	if hadError {
		os.Exit(1)
	}
}

func process(in hazardInput) (*hazardOutput, error) {
	valuation, err := time.Parse("2006-01-02", in.ValuationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid valuation_date: %v", err)
	}
	dayCount := in.DayCount
	if dayCount == "" {
		dayCount = "ACT/365F"
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	conv, ok := cds.ByCurrency(currency)
	if !ok {
		return nil, fmt.Errorf("no CDS conventions for currency %s", currency)
	}

	disc, err := buildDiscount(valuation, dayCount, currency, in.DiscountKnots)
	if err != nil {
		return nil, err
	}

	flows, err := resolveCashflows(in, valuation)
	if err != nil {
		return nil, err
	}

	input := bond.HazardRateInput{
		ValuationDate: valuation,
		Cashflows:     flows,
		RecoveryRate:  in.RecoveryRate,
		Discount:      disc,
		DirtyPrice:    in.DirtyPrice,
	}
	lambda, err := bond.ImpliedHazardRate(input)
	if err != nil {
		return nil, err
	}

	maturity := flows[0].Date
	var principal float64
	for _, cf := range flows {
		if cf.Date.After(maturity) {
			maturity = cf.Date
		}
		if cf.Date.After(valuation) {
			principal += cf.Principal
		}
	}
	spread, err := bond.EquivalentCDSSpread(lambda, in.RecoveryRate, maturity, disc, conv, "")
	if err != nil {
		return nil, err
	}
	riskFree, err := bond.RiskyPrice(input, 0)
	if err != nil {
		return nil, err
	}

	return &hazardOutput{
		TaskID:            in.TaskID,
		ValuationDate:     in.ValuationDate,
		DirtyPrice:        in.DirtyPrice,
		ImpliedHazardRate: lambda,
		EquivalentSpread:  spread,
		RiskFreeValue:     riskFree,
		RecoveryFloor:     in.RecoveryRate * principal,
	}, nil
}

func buildDiscount(valuation time.Time, dayCount, currency string, knots []knotJSON) (*curve.DiscountFactors, error) {
	if len(knots) == 0 {
		return nil, fmt.Errorf("no discount_knots")
	}
	nodes := make([]curve.Node, 0, len(knots))
	values := make([]float64, 0, len(knots))
	for _, k := range knots {
		d, err := time.Parse("2006-01-02", k.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid knot date %s: %v", k.Date, err)
		}
		nodes = append(nodes, curve.Node{
			Time:  utils.YearFraction(valuation, d, dayCount),
			Label: k.Label,
			Date:  d,
		})
		values = append(values, k.ZeroRate)
	}
	c, err := curve.New("bond-disc", valuation, dayCount, nodes, values)
	if err != nil {
		return nil, err
	}
	return curve.NewDiscountFactors(currency, c), nil
}

func resolveCashflows(in hazardInput, valuation time.Time) ([]bond.Cashflow, error) {
	if len(in.Cashflows) > 0 {
		cents := make([]bonds.CashflowCents, 0, len(in.Cashflows))
		for _, cf := range in.Cashflows {
			d, err := time.Parse("2006-01-02", cf.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid cashflow date %s: %v", cf.Date, err)
			}
			cents = append(cents, bonds.CashflowCents{
				Date:           d,
				CouponCents:    cf.Coupon,
				PrincipalCents: cf.Principal,
			})
		}
		return bonds.ToCashflows(cents), nil
	}

	if in.MaturityDate == "" {
		return nil, fmt.Errorf("either cashflows or maturity_date is required")
	}
	maturity, err := time.Parse("2006-01-02", in.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("invalid maturity_date: %v", err)
	}
	principal := in.Principal
	if principal == 0 {
		principal = 100
	}
	return bonds.Bullet(valuation, maturity, in.CouponRate, principal, in.CouponFrequency)
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parseInputs(raw []byte) ([]hazardInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []hazardInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input hazardInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []hazardInput{input}, false, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(hazardOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
