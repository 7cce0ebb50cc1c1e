// Command bondyield solves the yield to maturity implied by a bond's
// dirty price.
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
	"github.com/meenmo/curvelib/instruments/bonds"
)

type yieldInput struct {
	TaskID          string  `json:"task_id,omitempty"`
	SettlementDate  string  `json:"settlement_date"`
	DirtyPrice      float64 `json:"dirty_price"`
	CouponFrequency int     `json:"coupon_frequency"`

	// Either an explicit schedule in minor units, or the bullet shorthand.
	Cashflows    []cashflowJSON `json:"cashflows,omitempty"`
	CouponRate   float64        `json:"coupon_rate,omitempty"`
	MaturityDate string         `json:"maturity_date,omitempty"`
	Principal    float64        `json:"principal,omitempty"`
}

type cashflowJSON struct {
	Date      string `json:"date"`
	Coupon    int64  `json:"coupon"`
	Principal int64  `json:"principal"`
}

type yieldOutput struct {
	TaskID          string  `json:"task_id,omitempty"`
	SettlementDate  string  `json:"settlement_date"`
	DirtyPrice      float64 `json:"dirty_price"`
	Yield           float64 `json:"yield"`
	AccruedInterest float64 `json:"accrued_interest"`
	CleanPrice      float64 `json:"clean_price"`
	Error           string  `json:"error,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: bondyield -input <path>")
		fmt.Fprintln(os.Stderr, "Solve ACT/ACT yield to maturity from dirty price via Newton-Raphson.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: bondyield -input <path>")
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
	outputs := make([]yieldOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := process(in)
		if err != nil {
			hadError = true
			outputs = append(outputs, yieldOutput{TaskID: in.TaskID, Error: err.Error()})
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

func process(in yieldInput) (*yieldOutput, error) {
	settlement, err := time.Parse("2006-01-02", in.SettlementDate)
	if err != nil {
		return nil, fmt.Errorf("invalid settlement_date: %v", err)
	}

	flows, err := resolveCashflows(in, settlement)
	if err != nil {
		return nil, err
	}

	res, err := bond.ComputeYield(bond.YieldInput{
		SettlementDate:  settlement,
		DirtyPrice:      in.DirtyPrice,
		CouponFrequency: in.CouponFrequency,
		Cashflows:       flows,
	})
	if err != nil {
		return nil, err
	}

	return &yieldOutput{
		TaskID:          in.TaskID,
		SettlementDate:  in.SettlementDate,
		DirtyPrice:      in.DirtyPrice,
		Yield:           res.Yield,
		AccruedInterest: res.AccruedInterest,
		CleanPrice:      res.CleanPrice,
	}, nil
}

func resolveCashflows(in yieldInput, settlement time.Time) ([]bond.Cashflow, error) {
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
	return bonds.Bullet(settlement, maturity, in.CouponRate, principal, in.CouponFrequency)
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parseInputs(raw []byte) ([]yieldInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []yieldInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input yieldInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []yieldInput{input}, false, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(yieldOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
