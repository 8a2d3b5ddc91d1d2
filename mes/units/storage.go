package units

import (
	"fmt"
	"math"

	"github.com/dekarpio/dekarpio/mes"
)

// KindStorage buffers energy between port "charge" and port "discharge".
const KindStorage = "storage"

// StorageConfig parameterizes a battery or thermal storage. Cap bounds the
// state-of-charge capacity; area and volume scale with it.
type StorageConfig struct {
	mes.Params `yaml:",inline"`

	EtaCharge    *float64 `yaml:"eta_charge,omitempty"`    // default 1
	EtaDischarge *float64 `yaml:"eta_discharge,omitempty"` // default 1
	Loss         float64  `yaml:"loss,omitempty"`          // self-discharge per hour

	// ChargeRate and DischargeRate bound the flows as a fraction of capacity per hour; default 1.
	ChargeRate    *float64 `yaml:"charge_rate,omitempty"`
	DischargeRate *float64 `yaml:"discharge_rate,omitempty"`

	Exclusive  bool     `yaml:"exclusive,omitempty"`   // forbid simultaneous charge and discharge
	Cyclic     *bool    `yaml:"cyclic,omitempty"`      // default true
	InitialSOC *float64 `yaml:"initial_soc,omitempty"` // fraction of capacity
}

// Spec converts the declared parameters into the balance parameters.
func (c StorageConfig) Spec() mes.StorageSpec {
	return mes.StorageSpec{
		SOCCapacity:   mes.NoVar,
		EtaCharge:     mes.FloatOr(c.EtaCharge, 1),
		EtaDischarge:  mes.FloatOr(c.EtaDischarge, 1),
		Loss:          c.Loss,
		ChargeRate:    mes.FloatOr(c.ChargeRate, 1),
		DischargeRate: mes.FloatOr(c.DischargeRate, 1),
		Exclusive:     c.Exclusive,
		Cyclic:        c.Cyclic == nil || *c.Cyclic,
		InitialSOC:    c.InitialSOC,
	}
}

// Storage is the definition of a storage unit.
type Storage struct {
	named
	Config StorageConfig
}

// NewStorage returns a storage definition.
func NewStorage(name string, cfg StorageConfig) *Storage {
	return &Storage{named: named{name}, Config: cfg}
}

func (s *Storage) Kind() string { return KindStorage }

// Assemble provisions charge and discharge flows and the state of charge.
// With on/off state the discharge flow carries the operating limits.
func (s *Storage) Assemble(ctx *mes.Context) (*mes.Unit, error) {
	cfg := s.Config
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("unit %q: %w", s.name, err)
	}
	u := mes.NewUnit(s.name, KindStorage, cfg.Params, ctx)
	u.Flags = activation(cfg.Params, cfg.LimOrDefault())
	if err := mes.Provision(u, mes.ProvisionOptions{Sizeable: true}); err != nil {
		return nil, err
	}
	charge := u.NewSeq("charge", mes.Continuous, 0, math.Inf(1))
	discharge := u.NewSeq("discharge", mes.Continuous, 0, math.Inf(1))
	u.AddPort("charge", mes.SeqSeries(charge))
	u.AddPort("discharge", mes.SeqSeries(discharge))

	mes.GenerateUVW(u)
	if err := mes.GenerateCapacityLimits(u); err != nil {
		return nil, err
	}
	spec := cfg.Spec()
	spec.Charge, spec.Discharge = charge, discharge
	soc, err := mes.GenerateStorageBalance(u, spec)
	if err != nil {
		return nil, err
	}
	u.AddPort("soc", socPort(soc))
	if u.Flags.U {
		if err := mes.GenerateOperatingLimits(u, "discharge", discharge, cfg.LimOrDefault()); err != nil {
			return nil, err
		}
	}
	if err := mes.GenerateRampLimits(u, "discharge", discharge); err != nil {
		return nil, err
	}
	if err := sizing(u, mes.NoVar); err != nil {
		return nil, err
	}

	throughputCosts(u, mes.SeqSeries(discharge), nil)
	if err := mes.GenerateCosts(u); err != nil {
		return nil, err
	}
	return u, nil
}

// socPort exposes the state at the start of every step, dropping the end-of-horizon point.
func socPort(soc mes.Seq) mes.Series {
	trimmed := make(mes.Seq, len(soc))
	for s, row := range soc {
		trimmed[s] = row[:len(row)-1]
	}
	return mes.SeqSeries(trimmed)
}
