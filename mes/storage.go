package mes

import (
	"fmt"
	"math"
)

// StorageSpec parameterizes a state-of-charge balance.
type StorageSpec struct {
	Charge    Seq // c, energy flow into the storage per hour
	Discharge Seq // d, energy flow out of the storage per hour

	// SOCCapacity bounds the state of charge; NoVar selects u.Capacity.
	SOCCapacity VarID

	EtaCharge    float64 // in (0, 1]
	EtaDischarge float64 // in (0, 1]
	Loss         float64 // self-discharge fraction per hour

	// ChargeRate and DischargeRate bound c and d as a fraction of SOC capacity.
	ChargeRate    float64
	DischargeRate float64

	// Exclusive forbids charging and discharging in the same step through a
	// mode binary x: c <= rc*M*x, d <= rd*M*(1-x).
	Exclusive bool

	// Cyclic closes each scenario: soc[T] = soc[0].
	Cyclic bool

	// InitialSOC, when set, fixes soc[0] to this fraction of SOC capacity.
	InitialSOC *float64
}

func (s StorageSpec) validate(stepHours float64) error {
	if s.EtaCharge <= 0 || s.EtaCharge > 1 {
		return fmt.Errorf("charge efficiency must be in (0, 1], got %g", s.EtaCharge)
	}
	if s.EtaDischarge <= 0 || s.EtaDischarge > 1 {
		return fmt.Errorf("discharge efficiency must be in (0, 1], got %g", s.EtaDischarge)
	}
	if s.Loss < 0 || math.IsNaN(s.Loss) {
		return fmt.Errorf("self-discharge loss must be non-negative, got %g", s.Loss)
	}
	if stepHours*s.Loss > 1 {
		return fmt.Errorf("self-discharge loss %g per hour exceeds the whole state over a %g h step", s.Loss, stepHours)
	}
	if s.InitialSOC != nil && (*s.InitialSOC < 0 || *s.InitialSOC > 1) {
		return fmt.Errorf("initial state of charge must be in [0, 1], got %g", *s.InitialSOC)
	}
	return nil
}

// GenerateStorageBalance allocates the state of charge over the extended index
// (steps+1 points per scenario) and enforces
//
//	soc[t+1] - (1 - dt*loss)*soc[t] = (etaC*c[t] - d[t]/etaD)*dt
//
// together with soc <= capacity and the charge/discharge rate limits.
func GenerateStorageBalance(u *Unit, spec StorageSpec) (Seq, error) {
	dt := u.Context().StepHours()
	if err := spec.validate(dt); err != nil {
		return nil, fmt.Errorf("unit %q: %w", u.Name, err)
	}
	capID := spec.SOCCapacity
	if !capID.Valid() {
		capID = u.Capacity
	}
	if !capID.Valid() {
		return nil, &ParamError{Unit: u.Name, Key: "cap"}
	}
	keep := 1 - dt*spec.Loss
	size := Var(capID)
	m := u.BigM

	soc := u.NewExtendedSeq("soc", Continuous, 0, math.Inf(1))
	var mode Seq
	if spec.Exclusive {
		mode = u.NewSeq("x", Binary, 0, 1)
	}

	balance := u.NewFamily("soc_balance")
	socMax := u.NewFamily("soc_max")
	chMax := u.NewFamily("charge_max")
	disMax := u.NewFamily("discharge_max")
	var chMode, disMode *Family
	if spec.Exclusive {
		chMode = u.NewFamily("charge_mode")
		disMode = u.NewFamily("discharge_mode")
	}

	for s := 0; s < u.NumScenarios(); s++ {
		for t := 0; t < u.Steps(); t++ {
			c, d := Var(spec.Charge[s][t]), Var(spec.Discharge[s][t])
			lhs := Var(soc[s][t+1]).Minus(Var(soc[s][t]).Scaled(keep))
			rhs := c.Scaled(spec.EtaCharge * dt).Minus(d.Scaled(dt / spec.EtaDischarge))
			balance.Add(Rel(lhs, EQ, rhs))

			chMax.Add(Rel(c, LE, size.Scaled(spec.ChargeRate)))
			disMax.Add(Rel(d, LE, size.Scaled(spec.DischargeRate)))
			if spec.Exclusive {
				x := Var(mode[s][t])
				chMode.Add(Rel(c, LE, x.Scaled(spec.ChargeRate*m)))
				disMode.Add(Rel(d, LE, Constant(spec.DischargeRate*m).Minus(x.Scaled(spec.DischargeRate*m))))
			}
		}
		for t := 0; t <= u.Steps(); t++ {
			socMax.Add(Rel(Var(soc[s][t]), LE, size))
		}
		if spec.Cyclic {
			u.NewFamily("soc_cyclic").Add(Rel(Var(soc[s][u.Steps()]), EQ, Var(soc[s][0])))
		}
		if spec.InitialSOC != nil {
			u.NewFamily("soc_initial").Add(Rel(Var(soc[s][0]), EQ, size.Scaled(*spec.InitialSOC)))
		}
	}
	return soc, nil
}
