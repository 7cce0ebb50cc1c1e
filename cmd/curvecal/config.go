package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/instruments/cds"
	"github.com/meenmo/curvelib/marketdata"
)

// Config holds the calibration defaults shared by the subcommands. Flags
// override individual fields per run.
type Config struct {
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
	Date     string `yaml:"date"`
	Currency string `yaml:"currency"`
	Credit   struct {
		Entity   string  `yaml:"entity"`
		Coupon   float64 `yaml:"coupon"`
		Recovery float64 `yaml:"recovery"`
		Handling string  `yaml:"handling"`
	} `yaml:"credit"`
}

// LoadConfig reads the YAML file at path (./curvecal.yaml when empty),
// then applies environment overrides and defaults. A missing file leaves
// the defaults in place.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = "curvecal.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("CURVECAL_DSN"); v != "" {
		cfg.DSN = v
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Date == "" {
		cfg.Date = marketdata.SampleDate.Format("2006-01-02")
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Credit.Entity == "" {
		cfg.Credit.Entity = "ACME"
	}
	if cfg.Credit.Coupon == 0 {
		cfg.Credit.Coupon = cds.Coupon100
	}
	if cfg.Credit.Recovery == 0 {
		cfg.Credit.Recovery = 0.4
	}
	if cfg.Credit.Handling == "" {
		cfg.Credit.Handling = string(credit.ArbitrageZeroHazard)
	}
	return cfg, nil
}
