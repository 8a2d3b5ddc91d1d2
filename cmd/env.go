package cmd

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/dekarpio/dekarpio/mes"
)

// envConfig lists the economic settings that can be overridden from the
// environment. Unset variables leave the spec's values in place.
type envConfig struct {
	InterestRate      float64 `env:"DEKARPIO_INTEREST_RATE" env-description:"interest rate for the annuity factor"`
	DepreciationYears float64 `env:"DEKARPIO_DEPRECIATION_YEARS" env-description:"depreciation period in years"`
	SlackPenalty      float64 `env:"DEKARPIO_SLACK_PENALTY" env-description:"cost per unit of node slack"`
	NonExisting       string  `env:"DEKARPIO_NON_EXISTING" env-description:"existence of units declared non-existing: pin or relax"`
}

// applyEnv overrides cfg with any DEKARPIO_* variables that are set.
func applyEnv(cfg *mes.SystemConfig) error {
	e := envConfig{
		InterestRate:      cfg.InterestRate,
		DepreciationYears: cfg.DepreciationYears,
		SlackPenalty:      cfg.SlackPenalty,
		NonExisting:       string(cfg.NonExisting),
	}
	if err := cleanenv.ReadEnv(&e); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}
	cfg.InterestRate = e.InterestRate
	cfg.DepreciationYears = e.DepreciationYears
	cfg.SlackPenalty = e.SlackPenalty
	cfg.NonExisting = mes.ExistencePolicy(e.NonExisting)
	return nil
}

func envHelp() string {
	desc, err := cleanenv.GetDescription(&envConfig{}, nil)
	if err != nil {
		return ""
	}
	return desc
}
