package mes

import (
	"math"

	"github.com/sirupsen/logrus"
)

// GenerateCapacityLimits bounds the capacity scalar by the declared cap bounds:
//
//	min*i <= cap <= max*i    when I is active (capacity collapses to 0 without existence)
//	min   <= cap <= max      otherwise
func GenerateCapacityLimits(u *Unit) error {
	b, err := RequireBounds(u.Name, "cap", u.Params.Cap)
	if err != nil {
		return err
	}
	if !u.Capacity.Valid() {
		return &ParamError{Unit: u.Name, Key: "cap"}
	}
	size := Var(u.Capacity)
	lo, hi := u.NewFamily("cap_min"), u.NewFamily("cap_max")
	if u.Flags.I {
		lo.Add(Rel(size, GE, Var(u.I).Scaled(b.Min)))
		hi.Add(Rel(size, LE, Var(u.I).Scaled(b.Max)))
		return nil
	}
	lo.Add(Rel(size, GE, Constant(b.Min)))
	hi.Add(Rel(size, LE, Constant(b.Max)))
	return nil
}

// GenerateOperatingLimits bounds a throughput sequence q by load factor limits
// relative to capacity. The family set follows the active flags (prefix is
// prepended to each family name):
//
//	neither:  q >= 0; q <= cap
//	U only:   q >= lo*cap - (1-u)*lo*M; q >= 0; q <= cap; q <= u*hi*M
//	U and VW: the four above plus
//	          q[t] <= su*cap + (hi-su)*M*(1-v[t])
//	          q[t] <= sd*cap + (hi-sd)*M*(1-w[t+1])
//
// M is the unit's BigM; su/sd are the declared max_su/max_sd load factors
// (defaulting to hi, which makes the transition rows inert).
func GenerateOperatingLimits(u *Unit, prefix string, q Seq, lim Bounds) error {
	if !u.Capacity.Valid() {
		return &ParamError{Unit: u.Name, Key: "cap"}
	}
	m := u.BigM
	size := Var(u.Capacity)

	nonneg := u.NewFamily(prefix + "_nonneg")
	maxCap := u.NewFamily(prefix + "_max_cap")
	var minOn, maxOn, maxSU, maxSD *Family
	if u.Flags.U {
		minOn = u.NewFamily(prefix + "_min")
		maxOn = u.NewFamily(prefix + "_max_on")
	}
	var su, sd float64
	if u.Flags.U && u.Flags.VW {
		maxSU = u.NewFamily(prefix + "_max_su")
		maxSD = u.NewFamily(prefix + "_max_sd")
		su = FloatOr(u.Params.MaxSU, lim.Max)
		sd = FloatOr(u.Params.MaxSD, lim.Max)
	}

	for s := 0; s < u.NumScenarios(); s++ {
		for t := 0; t < u.Steps(); t++ {
			x := Var(q.At(s, t))
			nonneg.Add(Rel(x, GE, Constant(0)))
			maxCap.Add(Rel(x, LE, size))
			if !u.Flags.U {
				continue
			}
			on := Var(u.U.At(s, t))
			// lo*cap - lo*M + lo*M*u
			floor := size.Scaled(lim.Min).Plus(Constant(-lim.Min * m)).Plus(on.Scaled(lim.Min * m))
			minOn.Add(Rel(x, GE, floor))
			maxOn.Add(Rel(x, LE, on.Scaled(lim.Max*m)))
			if !u.Flags.VW {
				continue
			}
			maxSU.Add(Rel(x, LE, transitionCeiling(size, su, lim.Max, m, u.V.At(s, t))))
			maxSD.Add(Rel(x, LE, transitionCeiling(size, sd, lim.Max, m, u.W.At(s, t+1))))
		}
	}
	logrus.Debugf("unit %q: operating limits %q (%s)", u.Name, prefix, u.Flags)
	return nil
}

// transitionCeiling returns level*cap + (hi-level)*M*(1-event).
func transitionCeiling(size Expr, level, hi, m float64, event VarID) Expr {
	k := math.Max(0, hi-level) * m
	return size.Scaled(level).Plus(Constant(k)).Plus(Var(event).Scaled(-k))
}

// GenerateRampLimits bounds the change of q between consecutive cyclic steps:
//
//	q[t+1] - q[t] <= ramp_up*dt*cap   (+ su*M*v[t+1] when VW is active)
//	q[t] - q[t+1] <= ramp_down*dt*cap (+ sd*M*w[t+1] when VW is active)
//
// With VW active the steady-state companions cap ramping at ramp*dt*cap whenever
// the unit is on at both ends of the step:
//
//	q[t+1] - q[t] <= ramp_up*dt*cap   + M*(1-u[t])
//	q[t] - q[t+1] <= ramp_down*dt*cap + M*(1-u[t+1])
//
// The startup allowance sits on v[t+1], the startup the rise leads into. On
// v[t] it would never apply, since v[t] = 1 forces u[t] = 1 and the steady row.
//
// Only the directions with a declared ramp rate are generated.
func GenerateRampLimits(u *Unit, prefix string, q Seq) error {
	ru, hasUp := Float(u.Params.RampUp)
	rd, hasDown := Float(u.Params.RampDn)
	if !hasUp && !hasDown {
		return nil
	}
	if !u.Capacity.Valid() {
		return &ParamError{Unit: u.Name, Key: "cap"}
	}
	m := u.BigM
	dt := u.Context().StepHours()
	size := Var(u.Capacity)
	lim := u.Params.LimOrDefault()
	transitions := u.Flags.U && u.Flags.VW
	su := FloatOr(u.Params.MaxSU, lim.Max)
	sd := FloatOr(u.Params.MaxSD, lim.Max)

	var up, upSteady, down, downSteady *Family
	if hasUp {
		up = u.NewFamily(prefix + "_ramp_up")
		if transitions {
			upSteady = u.NewFamily(prefix + "_ramp_up_steady")
		}
	}
	if hasDown {
		down = u.NewFamily(prefix + "_ramp_down")
		if transitions {
			downSteady = u.NewFamily(prefix + "_ramp_down_steady")
		}
	}

	for s := 0; s < u.NumScenarios(); s++ {
		for t := 0; t < u.Steps(); t++ {
			rise := Var(q.At(s, t+1)).Minus(Var(q.At(s, t)))
			if hasUp {
				limit := size.Scaled(ru * dt)
				if transitions {
					upSteady.Add(Rel(rise, LE, limit.Plus(Constant(m)).Plus(Var(u.U.At(s, t)).Scaled(-m))))
					limit = limit.Plus(Var(u.V.At(s, t+1)).Scaled(su * m))
				}
				up.Add(Rel(rise, LE, limit))
			}
			if hasDown {
				fall := rise.Scaled(-1)
				limit := size.Scaled(rd * dt)
				if transitions {
					downSteady.Add(Rel(fall, LE, limit.Plus(Constant(m)).Plus(Var(u.U.At(s, t+1)).Scaled(-m))))
					limit = limit.Plus(Var(u.W.At(s, t+1)).Scaled(sd * m))
				}
				down.Add(Rel(fall, LE, limit))
			}
		}
	}
	return nil
}
