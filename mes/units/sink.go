package units

import (
	"fmt"
	"math"

	"github.com/dekarpio/dekarpio/mes"
)

// KindSink consumes energy through port "q".
const KindSink = "sink"

// SinkConfig parameterizes either a fixed demand profile or a free, sizeable
// sink such as a feed-in connection.
type SinkConfig struct {
	mes.Params `yaml:",inline"`

	// Demand fixes q[s][t]. When set, no variables are allocated.
	Demand [][]float64 `yaml:"demand,omitempty"`

	// Price is charged per unit of consumed energy; a negative price is a
	// revenue, e.g. a feed-in tariff.
	Price *float64 `yaml:"price,omitempty"`
}

// Sink is the definition of a demand or an export connection.
type Sink struct {
	named
	Config SinkConfig
}

// NewSink returns a sink definition.
func NewSink(name string, cfg SinkConfig) *Sink {
	return &Sink{named: named{name}, Config: cfg}
}

func (s *Sink) Kind() string { return KindSink }

// Assemble builds a constant port for a fixed demand, or a bounded flow with
// the full commitment logic otherwise.
func (s *Sink) Assemble(ctx *mes.Context) (*mes.Unit, error) {
	cfg := s.Config
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("unit %q: %w", s.name, err)
	}
	u := mes.NewUnit(s.name, KindSink, cfg.Params, ctx)

	if cfg.Demand != nil {
		if err := checkProfile(s.name, "demand", cfg.Demand, ctx, 0, math.MaxFloat64); err != nil {
			return nil, err
		}
		q := mes.ConstSeries(cfg.Demand)
		u.AddPort("q", q)
		throughputCosts(u, q, cfg.Price)
		if err := u.SetTotal(); err != nil {
			return nil, err
		}
		return u, nil
	}

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
	if err := sizing(u, mes.NoVar); err != nil {
		return nil, err
	}
	throughputCosts(u, mes.SeqSeries(q), cfg.Price)
	if err := mes.GenerateCosts(u); err != nil {
		return nil, err
	}
	return u, nil
}
