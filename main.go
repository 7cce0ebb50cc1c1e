package main

import (
	"fmt"
	"log"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/instruments/cds"
	"github.com/meenmo/curvelib/instruments/discount"
	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/rates"
)

func main() {
	src := marketdata.DefaultSource()
	date := marketdata.SampleDate

	discSet, err := src.DiscountQuotes(date, "USD")
	if err != nil {
		log.Fatal(err)
	}
	nodes, err := discount.USD.Nodes(discSet)
	if err != nil {
		log.Fatal(err)
	}
	df, err := rates.Bootstrapper{}.Bootstrap(discount.USD.Definition(), nodes, date, rates.Options{ComputeJacobian: true})
	if err != nil {
		log.Fatal(err)
	}

	c := df.Curve()
	fmt.Printf("%s, anchored %s\n", c.Name(), c.Base().Format("2006-01-02"))
	for i, n := range c.Nodes() {
		fmt.Printf("  %-4s zero %.6f  df %.6f\n", n.Label, c.Value(i), c.DiscountAt(n.Time))
	}

	credSet, err := src.CreditQuotes(date, "ACME")
	if err != nil {
		log.Fatal(err)
	}
	def, err := cds.Definition("acme-cds", credSet, cds.USD, df.DayCount(), cds.Coupon100)
	if err != nil {
		log.Fatal(err)
	}
	asOf := df.ValuationDate()
	surv, err := credit.NewCalibrator().Calibrate(def, df, credit.ConstantRecovery(0.4), asOf, credit.Options{})
	if err != nil {
		log.Fatal(err)
	}

	sc := surv.Curve()
	fmt.Printf("%s (%s)\n", sc.Name(), surv.LegalEntityID())
	for i, n := range sc.Nodes() {
		fmt.Printf("  %-4s hazard %.6f  survival %.6f\n", n.Label, sc.Value(i), sc.DiscountAt(n.Time))
	}

	// Reprice the 5Y node off the calibrated curve.
	contract, err := cds.USD.Resolve(asOf, "5Y", "ACME", 0)
	if err != nil {
		log.Fatal(err)
	}
	spread, err := credit.ParSpread(df, surv, contract, credit.ConstantRecovery(0.4), credit.AccruedMidpoint)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("5Y par spread repriced: %.4f%% (quoted %.4f%%)\n",
		spread*100, credSet.Quotes[2].Value*100)
}
