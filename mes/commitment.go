package mes

import "github.com/sirupsen/logrus"

// GenerateUVW links on/off state to transitions for every scenario and cyclic step:
//
//	u[t+1] - u[t] = v[t+1] - w[t+1]
//
// It is a no-op unless both U and VW are active, and it always brings the
// minimum up/down time families along.
func GenerateUVW(u *Unit) {
	if !u.Flags.U || !u.Flags.VW {
		return
	}
	f := u.NewFamily("uvw")
	for s := 0; s < u.NumScenarios(); s++ {
		for t := 0; t < u.Steps(); t++ {
			lhs := Var(u.U.At(s, t+1)).Minus(Var(u.U.At(s, t)))
			rhs := Var(u.V.At(s, t+1)).Minus(Var(u.W.At(s, t+1)))
			f.Add(Rel(lhs, EQ, rhs))
		}
	}
	logrus.Debugf("unit %q: %d uvw rows", u.Name, f.Len())
	GenerateMinUpDown(u)
}

// GenerateMinUpDown forbids leaving a state too early. For every scenario and step t
// the startups in the cyclic window of min_up steps ending at t cannot exceed u[t],
// and the shutdowns in the window of min_down steps cannot exceed 1-u[t].
// Undeclared windows default to one step.
func GenerateMinUpDown(u *Unit) {
	if !u.Flags.U || !u.Flags.VW {
		return
	}
	up := window(u, "min_up", IntOr(u.Params.MinUp, 1))
	down := window(u, "min_down", IntOr(u.Params.MinDown, 1))

	fu := u.NewFamily("min_up")
	fd := u.NewFamily("min_down")
	for s := 0; s < u.NumScenarios(); s++ {
		for t := 0; t < u.Steps(); t++ {
			var starts, stops Expr
			for k := 0; k < up; k++ {
				starts.AddTerm(u.V.At(s, t-k), 1)
			}
			for k := 0; k < down; k++ {
				stops.AddTerm(u.W.At(s, t-k), 1)
			}
			fu.Add(Rel(starts, LE, Var(u.U.At(s, t))))
			fd.Add(Rel(stops, LE, Constant(1).Minus(Var(u.U.At(s, t)))))
		}
	}
}

// window clamps a declared window length to [1, horizon].
func window(u *Unit, name string, n int) int {
	if n < 1 {
		return 1
	}
	if n > u.Steps() {
		logrus.Warnf("unit %q: %s of %d steps exceeds horizon of %d; clamped", u.Name, name, n, u.Steps())
		return u.Steps()
	}
	return n
}
