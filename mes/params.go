package mes

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Bounds is a (min, max) pair. In YAML it is written as a two-element list: [0, 10].
type Bounds struct {
	Min float64
	Max float64
}

// UnmarshalYAML decodes a two-element sequence.
func (b *Bounds) UnmarshalYAML(node *yaml.Node) error {
	var pair []float64
	if err := node.Decode(&pair); err != nil {
		return fmt.Errorf("bounds: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("bounds: expected [min, max], got %d values", len(pair))
	}
	b.Min, b.Max = pair[0], pair[1]
	return nil
}

// MarshalYAML encodes the pair as a flow sequence.
func (b Bounds) MarshalYAML() (any, error) {
	return []float64{b.Min, b.Max}, nil
}

// Validate checks that both ends are finite and ordered.
func (b Bounds) Validate(name string) error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
		return fmt.Errorf("%s must be finite, got [%g, %g]", name, b.Min, b.Max)
	}
	if b.Min > b.Max {
		return fmt.Errorf("%s: min %g exceeds max %g", name, b.Min, b.Max)
	}
	return nil
}

// Sizing is an area or volume requirement: PerExistence is charged once if the
// unit exists, PerCapacity per unit of the coupled capacity.
type Sizing struct {
	PerExistence float64 `yaml:"per_existence"`
	PerCapacity  float64 `yaml:"per_capacity"`
}

// Params is the common parameter subset every unit kind shares with the engine.
// Nil pointers mean "not declared"; generators read them through the accessors
// below so a missing required key fails at first use.
type Params struct {
	Cap     *Bounds  `yaml:"cap,omitempty"`      // capacity bounds
	Lim     *Bounds  `yaml:"lim,omitempty"`      // load factor limits relative to capacity
	OpexFix *float64 `yaml:"opex_fix,omitempty"` // cost per operating hour
	OpexVar *float64 `yaml:"opex_var,omitempty"` // cost per unit of throughput energy
	CostSU  *float64 `yaml:"cost_su,omitempty"`  // cost per startup
	CostSD  *float64 `yaml:"cost_sd,omitempty"`  // cost per shutdown
	InvFix  *float64 `yaml:"inv_fix,omitempty"`  // investment charged on existence
	InvVar  *float64 `yaml:"inv_var,omitempty"`  // investment per unit of capacity
	MinUp   *int     `yaml:"min_up,omitempty"`   // minimum up time in steps
	MinDown *int     `yaml:"min_down,omitempty"` // minimum down time in steps
	RampUp  *float64 `yaml:"ramp_up,omitempty"`  // fraction of capacity per hour
	RampDn  *float64 `yaml:"ramp_down,omitempty"`
	MaxSU   *float64 `yaml:"max_su,omitempty"` // load factor reachable in a startup step
	MaxSD   *float64 `yaml:"max_sd,omitempty"` // load factor left before a shutdown step
	Exists  *bool    `yaml:"exists,omitempty"` // true = already built, false = known absent
	Area    *Sizing  `yaml:"area,omitempty"`
	Volume  *Sizing  `yaml:"volume,omitempty"`
}

// Float returns the value of an optional scalar and whether it was declared.
func Float(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// FloatOr returns the declared value or def.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// IntOr returns the declared value or def.
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// positive reports whether an optional scalar is declared and strictly positive.
func positive(p *float64) bool {
	v, ok := Float(p)
	return ok && v > 0
}

// RequireBounds returns declared bounds or a ParamError naming the unit and key.
func RequireBounds(unit, key string, b *Bounds) (Bounds, error) {
	if b == nil {
		return Bounds{}, &ParamError{Unit: unit, Key: key}
	}
	return *b, nil
}

// RequireFloat returns a declared scalar or a ParamError naming the unit and key.
func RequireFloat(unit, key string, p *float64) (float64, error) {
	if p == nil {
		return 0, &ParamError{Unit: unit, Key: key}
	}
	return *p, nil
}

// LimOrDefault returns the declared load factor limits or [0, 1].
func (p Params) LimOrDefault() Bounds {
	if p.Lim == nil {
		return Bounds{Min: 0, Max: 1}
	}
	return *p.Lim
}

// Validate checks ranges of declared fields. Undeclared fields are not checked;
// generators report them when they are actually needed.
func (p Params) Validate() error {
	if p.Cap != nil {
		if err := p.Cap.Validate("cap"); err != nil {
			return err
		}
		if p.Cap.Min < 0 {
			return fmt.Errorf("cap: min must be non-negative, got %g", p.Cap.Min)
		}
	}
	if p.Lim != nil {
		if err := p.Lim.Validate("lim"); err != nil {
			return err
		}
		if p.Lim.Min < 0 {
			return fmt.Errorf("lim: min must be non-negative, got %g", p.Lim.Min)
		}
	}
	for name, v := range map[string]*float64{
		"opex_fix": p.OpexFix, "opex_var": p.OpexVar, "cost_su": p.CostSU, "cost_sd": p.CostSD,
		"inv_fix": p.InvFix, "inv_var": p.InvVar, "ramp_up": p.RampUp, "ramp_down": p.RampDn,
		"max_su": p.MaxSU, "max_sd": p.MaxSD,
	} {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return fmt.Errorf("%s must be a finite number, got %f", name, *v)
		}
		if name != "opex_var" && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}
	if p.MinUp != nil && *p.MinUp < 0 {
		return fmt.Errorf("min_up must be non-negative, got %d", *p.MinUp)
	}
	if p.MinDown != nil && *p.MinDown < 0 {
		return fmt.Errorf("min_down must be non-negative, got %d", *p.MinDown)
	}
	return nil
}
