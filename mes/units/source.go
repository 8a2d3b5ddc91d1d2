package units

import (
	"fmt"
	"math"

	"github.com/dekarpio/dekarpio/mes"
)

// KindSource supplies energy through port "q".
const KindSource = "source"

// SourceConfig parameterizes a sizeable supply such as a grid connection, a
// gas boiler fed from an unlimited fuel, or a PV field with an availability profile.
type SourceConfig struct {
	mes.Params `yaml:",inline"`

	// Price is charged per unit of supplied energy; negative values earn revenue.
	Price *float64 `yaml:"price,omitempty"`

	// Availability caps supply at availability[s][t]*capacity, values in [0, 1].
	Availability [][]float64 `yaml:"availability,omitempty"`
}

// Source is the assembled-on-demand definition of a supply unit.
type Source struct {
	named
	Config SourceConfig
}

// NewSource returns a source definition; parameters are checked at assembly.
func NewSource(name string, cfg SourceConfig) *Source {
	return &Source{named: named{name}, Config: cfg}
}

func (s *Source) Kind() string { return KindSource }

// Assemble follows the constructor order: activation, provisioning,
// constraints, costs.
func (s *Source) Assemble(ctx *mes.Context) (*mes.Unit, error) {
	cfg := s.Config
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("unit %q: %w", s.name, err)
	}
	if cfg.Availability != nil {
		if err := checkProfile(s.name, "availability", cfg.Availability, ctx, 0, 1); err != nil {
			return nil, err
		}
	}

	u := mes.NewUnit(s.name, KindSource, cfg.Params, ctx)
	u.Flags = activation(cfg.Params, cfg.LimOrDefault())
	if err := mes.Provision(u, mes.ProvisionOptions{Sizeable: true}); err != nil {
		return nil, err
	}
	q := u.NewSeq("q", mes.Continuous, 0, math.Inf(1))
	u.AddPort("q", mes.SeqSeries(q))

	mes.GenerateUVW(u)
	if err := mes.GenerateCapacityLimits(u); err != nil {
		return nil, err
	}
	if err := mes.GenerateOperatingLimits(u, "q", q, cfg.LimOrDefault()); err != nil {
		return nil, err
	}
	if err := mes.GenerateRampLimits(u, "q", q); err != nil {
		return nil, err
	}
	if cfg.Availability != nil {
		f := u.NewFamily("q_available")
		for sc := range q {
			for t := range q[sc] {
				f.Add(mes.Rel(mes.Var(q[sc][t]), mes.LE, mes.Var(u.Capacity).Scaled(cfg.Availability[sc][t])))
			}
		}
	}
	if err := sizing(u, mes.NoVar); err != nil {
		return nil, err
	}

	throughputCosts(u, mes.SeqSeries(q), cfg.Price)
	if err := mes.GenerateCosts(u); err != nil {
		return nil, err
	}
	return u, nil
}
