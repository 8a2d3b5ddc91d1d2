package mes

import (
	"fmt"
	"math"
)

// ExistencePolicy decides the bounds of the existence binary of a unit that is
// declared as known non-existing (exists: false).
type ExistencePolicy string

const (
	// ExistencePin fixes the existence binary to 0.
	ExistencePin ExistencePolicy = "pin"
	// ExistenceRelax leaves the existence binary free in [0, 1].
	ExistenceRelax ExistencePolicy = "relax"
)

// ValidExistencePolicies is the set of recognized non-existing policies.
var ValidExistencePolicies = map[ExistencePolicy]bool{"": true, ExistencePin: true, ExistenceRelax: true}

// DefaultSlackPenalty is the objective weight of node slack when none is configured.
const DefaultSlackPenalty = 1e7

// Scenario is a representative block of time steps (e.g. a typical day) that
// recurs Weight times per year.
type Scenario struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// Certificates holds fixed yearly amounts for tradable certificates. They enter
// the "total" objective but not the "total_real" shadow objective.
type Certificates struct {
	Revenue float64 `yaml:"revenue"` // subtracted from total
	Fee     float64 `yaml:"fee"`     // added to total
}

// SystemConfig groups the shared index sets and economic parameters.
type SystemConfig struct {
	Steps             int             `yaml:"steps"`              // time steps per scenario (cyclic)
	StepHours         float64         `yaml:"step_hours"`         // duration of one step in hours
	Scenarios         []Scenario      `yaml:"scenarios"`          // at least one
	InterestRate      float64         `yaml:"interest_rate"`      // 0 = straight-line depreciation
	DepreciationYears float64         `yaml:"depreciation_years"` // must be > 0
	SlackPenalty      float64         `yaml:"slack_penalty"`      // 0 = DefaultSlackPenalty
	NonExisting       ExistencePolicy `yaml:"non_existing"`       // "" = ExistencePin
	Certificates      Certificates    `yaml:"certificates"`
}

// DefaultSystemConfig returns a single-scenario, one-year, hourly configuration.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Steps:             24,
		StepHours:         1,
		Scenarios:         []Scenario{{Name: "typical", Weight: 365}},
		InterestRate:      0.05,
		DepreciationYears: 20,
		SlackPenalty:      DefaultSlackPenalty,
		NonExisting:       ExistencePin,
	}
}

// Validate checks index sets and economic parameter ranges.
func (c SystemConfig) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if err := finitePositive("step_hours", c.StepHours); err != nil {
		return err
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario required")
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario[%d]: name required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("scenario %q: %w", s.Name, ErrDuplicateName)
		}
		seen[s.Name] = true
		if err := finitePositive(fmt.Sprintf("scenario %q weight", s.Name), s.Weight); err != nil {
			return err
		}
	}
	if math.IsNaN(c.InterestRate) || c.InterestRate < 0 {
		return fmt.Errorf("interest_rate must be non-negative, got %f", c.InterestRate)
	}
	if err := finitePositive("depreciation_years", c.DepreciationYears); err != nil {
		return err
	}
	if c.SlackPenalty < 0 {
		return fmt.Errorf("slack_penalty must be non-negative, got %f", c.SlackPenalty)
	}
	if !ValidExistencePolicies[c.NonExisting] {
		return fmt.Errorf("unknown non_existing policy %q; valid: pin, relax", c.NonExisting)
	}
	return nil
}

func (c SystemConfig) slackPenalty() float64 {
	if c.SlackPenalty == 0 {
		return DefaultSlackPenalty
	}
	return c.SlackPenalty
}

func (c SystemConfig) nonExisting() ExistencePolicy {
	if c.NonExisting == "" {
		return ExistencePin
	}
	return c.NonExisting
}

func finitePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, v)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, v)
	}
	return nil
}

// Context is what a unit sees of the system while it is assembled: the shared
// index sets, the economic parameters and the model columns are allocated in.
type Context struct {
	cfg   SystemConfig
	model *Model
}

// NewContext returns an assembly context over a fresh model.
// SystemBuilder creates one per build; tests use it to assemble units directly.
func NewContext(cfg SystemConfig) *Context {
	return &Context{cfg: cfg, model: NewModel()}
}

func (c *Context) Config() SystemConfig { return c.cfg }
func (c *Context) Model() *Model        { return c.model }
func (c *Context) Steps() int           { return c.cfg.Steps }
func (c *Context) NumScenarios() int    { return len(c.cfg.Scenarios) }
func (c *Context) StepHours() float64   { return c.cfg.StepHours }

// Weight returns the yearly recurrence of scenario s.
func (c *Context) Weight(s int) float64 { return c.cfg.Scenarios[s].Weight }
