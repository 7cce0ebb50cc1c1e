package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDiscountCmd() *cobra.Command {
	var dateStr, currency string

	cmd := &cobra.Command{
		Use:   "discount",
		Short: "Bootstrap a discount curve from deposit and swap quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dateStr == "" {
				dateStr = cfg.Date
			}
			if currency == "" {
				currency = cfg.Currency
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

			c := df.Curve()
			fmt.Printf("%s (%s), anchored %s\n", c.Name(), df.Currency(), c.Base().Format("2006-01-02"))
			fmt.Printf("%-6s %-12s %10s %10s\n", "label", "date", "zero", "df")
			for i, n := range c.Nodes() {
				fmt.Printf("%-6s %-12s %10.6f %10.6f\n",
					n.Label, n.Date.Format("2006-01-02"), c.Value(i), c.DiscountAt(n.Time))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "quote date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code")
	return cmd
}
