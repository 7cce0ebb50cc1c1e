package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/instruments/cds"
)

func newCreditCmd() *cobra.Command {
	var dateStr, currency, entity string
	var coupon, recovery float64

	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Calibrate a CDS survival curve over the discount curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dateStr == "" {
				dateStr = cfg.Date
			}
			if currency == "" {
				currency = cfg.Currency
			}
			if entity == "" {
				entity = cfg.Credit.Entity
			}
			if coupon == 0 {
				coupon = cfg.Credit.Coupon
			}
			if recovery == 0 {
				recovery = cfg.Credit.Recovery
			}
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", dateStr, err)
			}

			src, closeSrc, err := openSource()
			if err != nil {
				return err
			}
			defer closeSrc()

			df, err := buildDiscount(src, date, currency)
			if err != nil {
				return err
			}

			set, err := src.CreditQuotes(date, entity)
			if err != nil {
				return err
			}
			conv, ok := cds.ByCurrency(set.Currency)
			if !ok {
				return fmt.Errorf("no CDS conventions for currency %s", set.Currency)
			}
			name := strings.ToLower(entity) + "-cds"
			def, err := cds.Definition(name, set, conv, df.DayCount(), coupon)
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"entity":   entity,
				"nodes":    len(def.Nodes),
				"recovery": recovery,
			}).Info("calibrating credit curve")

			cal := credit.NewCalibrator()
			cal.Handling = credit.ArbitrageHandling(cfg.Credit.Handling)
			// The bootstrapped curve is anchored at spot, so the credit
			// curve calibrates off the same anchor.
			surv, err := cal.Calibrate(def, df, credit.ConstantRecovery(recovery), df.ValuationDate(), credit.Options{ComputeJacobian: true})
			if err != nil {
				return err
			}

			c := surv.Curve()
			fmt.Printf("%s (%s/%s), anchored %s\n",
				c.Name(), surv.LegalEntityID(), surv.Currency(), c.Base().Format("2006-01-02"))
			fmt.Printf("%-6s %-12s %10s %10s\n", "label", "date", "hazard", "survival")
			for i, n := range c.Nodes() {
				fmt.Printf("%-6s %-12s %10.6f %10.6f\n",
					n.Label, n.Date.Format("2006-01-02"), c.Value(i), c.DiscountAt(n.Time))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "quote date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&currency, "currency", "", "discounting currency")
	cmd.Flags().StringVar(&entity, "entity", "", "reference entity identifier")
	cmd.Flags().Float64Var(&coupon, "coupon", 0, "standard running coupon, decimal")
	cmd.Flags().Float64Var(&recovery, "recovery", 0, "assumed recovery rate")
	return cmd
}
