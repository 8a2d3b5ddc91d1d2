package units

import (
	"fmt"
	"math"

	"github.com/dekarpio/dekarpio/mes"
)

// KindConverter turns an input flow (port "in") into one or more output flows.
const KindConverter = "converter"

// OutputConfig declares one converter output by two operating points: the
// output is Out.Min at input In.Min and Out.Max at input In.Max, linear in
// between. In defaults to the load factor limits times the maximum capacity.
type OutputConfig struct {
	Name string      `yaml:"name"`
	In   *mes.Bounds `yaml:"in,omitempty"`
	Out  mes.Bounds  `yaml:"out"`
}

// ConverterConfig parameterizes a boiler, heat pump, CHP or electrolyser.
// Capacity, load factor and ramp parameters refer to the input flow.
type ConverterConfig struct {
	mes.Params `yaml:",inline"`

	Outputs []OutputConfig `yaml:"outputs"`

	// Price is charged per unit of input energy (fuel).
	Price *float64 `yaml:"price,omitempty"`
}

// Validate checks the shared parameters and the output declarations.
func (c ConverterConfig) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("at least one output required")
	}
	seen := map[string]bool{"in": true}
	for i, o := range c.Outputs {
		if o.Name == "" {
			return fmt.Errorf("outputs[%d]: name required", i)
		}
		if seen[o.Name] {
			return fmt.Errorf("output %q: %w", o.Name, mes.ErrDuplicateName)
		}
		seen[o.Name] = true
		if o.In != nil {
			if err := o.In.Validate("output " + o.Name + " in"); err != nil {
				return err
			}
		}
		if err := o.Out.Validate("output " + o.Name + " out"); err != nil {
			return err
		}
	}
	return nil
}

// Converter is the definition of a conversion unit.
type Converter struct {
	named
	Config ConverterConfig
}

// NewConverter returns a converter definition.
func NewConverter(name string, cfg ConverterConfig) *Converter {
	return &Converter{named: named{name}, Config: cfg}
}

func (c *Converter) Kind() string { return KindConverter }

// Assemble provisions the input as the sized throughput and ties every output
// to it through a fitted linear dependency.
func (c *Converter) Assemble(ctx *mes.Context) (*mes.Unit, error) {
	cfg := c.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("unit %q: %w", c.name, err)
	}
	u := mes.NewUnit(c.name, KindConverter, cfg.Params, ctx)
	lim := cfg.LimOrDefault()
	u.Flags = activation(cfg.Params, lim)
	if err := mes.Provision(u, mes.ProvisionOptions{Sizeable: true}); err != nil {
		return nil, err
	}
	in := u.NewSeq("in", mes.Continuous, 0, math.Inf(1))
	u.AddPort("in", mes.SeqSeries(in))

	mes.GenerateUVW(u)
	if err := mes.GenerateCapacityLimits(u); err != nil {
		return nil, err
	}
	if err := mes.GenerateOperatingLimits(u, "in", in, lim); err != nil {
		return nil, err
	}
	if err := mes.GenerateRampLimits(u, "in", in); err != nil {
		return nil, err
	}

	for _, o := range cfg.Outputs {
		drv := mes.Bounds{Min: lim.Min * u.BigM, Max: lim.Max * u.BigM}
		if o.In != nil {
			drv = *o.In
		}
		out := u.NewSeq(o.Name, mes.Continuous, math.Inf(-1), math.Inf(1))
		u.AddPort(o.Name, mes.SeqSeries(out))
		if err := mes.GenerateLinearDependency(u, o.Name+"_conversion", mes.SeqSeries(out), mes.SeqSeries(in), o.Out, drv); err != nil {
			return nil, err
		}
	}
	if err := sizing(u, mes.NoVar); err != nil {
		return nil, err
	}

	throughputCosts(u, mes.SeqSeries(in), cfg.Price)
	if err := mes.GenerateCosts(u); err != nil {
		return nil, err
	}
	return u, nil
}
