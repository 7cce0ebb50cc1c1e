package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvelib/risk"
)

// hedgeFile describes one hedge problem: the target parameter
// sensitivities and each candidate hedge's sensitivities to the same
// curve knots.
type hedgeFile struct {
	Curve  string    `yaml:"curve"`
	Target []float64 `yaml:"target"`
	Hedges []struct {
		Name   string    `yaml:"name"`
		Values []float64 `yaml:"values"`
	} `yaml:"hedges"`
}

func newHedgeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "hedge",
		Short: "Solve hedge ratios that neutralize a sensitivity profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read hedge file: %w", err)
			}
			var in hedgeFile
			if err := yaml.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("parse hedge file: %w", err)
			}
			if len(in.Hedges) == 0 {
				return fmt.Errorf("hedge file %s lists no hedges", file)
			}

			hedges := make([][]float64, len(in.Hedges))
			for i, h := range in.Hedges {
				hedges[i] = h.Values
			}
			ratios, err := risk.HedgeRatios(in.Target, hedges)
			if err != nil {
				return err
			}

			logger.WithFields(logrus.Fields{
				"curve":  in.Curve,
				"knots":  len(in.Target),
				"hedges": len(ratios),
			}).Info("solved hedge ratios")

			for i, h := range in.Hedges {
				fmt.Printf("%-16s %14.6f\n", h.Name, ratios[i])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "hedge.yaml", "hedge problem description")
	return cmd
}
