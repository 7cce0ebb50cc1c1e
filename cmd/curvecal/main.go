// Command curvecal bootstraps discount curves from deposit and swap
// quotes, calibrates CDS survival curves on top of them, and solves hedge
// ratios from curve sensitivities.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments/discount"
	"github.com/meenmo/curvelib/marketdata"
	"github.com/meenmo/curvelib/marketdata/store"
	"github.com/meenmo/curvelib/rates"
)

var (
	cfgFile string
	cfg     *Config
	logger  = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "curvecal",
		Short: "Discount and credit curve calibration",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./curvecal.yaml)")

	rootCmd.AddCommand(newDiscountCmd())
	rootCmd.AddCommand(newCreditCmd())
	rootCmd.AddCommand(newHedgeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() error {
	c, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// openSource returns the configured quote source: PostgreSQL when a DSN
// is set, the bundled samples otherwise.
func openSource() (marketdata.QuoteSource, func() error, error) {
	if cfg.DSN != "" {
		st, err := store.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using postgres quote store")
		return st, st.Close, nil
	}
	logger.Debug("using bundled sample quotes")
	return marketdata.DefaultSource(), func() error { return nil }, nil
}

// buildDiscount loads the snapshot for date and currency and bootstraps
// the discount curve with its calibration jacobian attached.
func buildDiscount(src marketdata.QuoteSource, date time.Time, currency string) (*curve.DiscountFactors, error) {
	conv, ok := discount.ByCurrency(currency)
	if !ok {
		return nil, fmt.Errorf("no discount conventions for currency %s", currency)
	}
	set, err := src.DiscountQuotes(date, currency)
	if err != nil {
		return nil, err
	}
	nodes, err := conv.Nodes(set)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"currency": currency,
		"date":     date.Format("2006-01-02"),
		"nodes":    len(nodes),
	}).Info("bootstrapping discount curve")
	return rates.Bootstrapper{}.Bootstrap(conv.Definition(), nodes, date, rates.Options{ComputeJacobian: true})
}
