package mes

import (
	"math"

	"github.com/sirupsen/logrus"
)

// AnnuityFactor converts a one-time investment into an equal yearly payment
// over n years at interest rate r. Without interest it is straight-line 1/n.
func AnnuityFactor(r, n float64) float64 {
	if r > 0 {
		q := math.Pow(1+r, n)
		return q * r / (q - 1)
	}
	return 1 / n
}

// GenerateInvestmentCost registers the "invest" term:
//
//	(inv_var*cap + inv_fix*i) * annuity    when I is active
//	inv_var*cap * annuity                  otherwise
//
// The term is zero for known-existing units.
func GenerateInvestmentCost(u *Unit) (*Objective, error) {
	if u.KnownExisting() {
		return u.AddObjective("invest", Expr{}), nil
	}
	cfg := u.Context().Config()
	af := AnnuityFactor(cfg.InterestRate, cfg.DepreciationYears)

	var e Expr
	if invVar, ok := Float(u.Params.InvVar); ok && invVar != 0 {
		if !u.Capacity.Valid() {
			return nil, &ParamError{Unit: u.Name, Key: "cap"}
		}
		e.AddTerm(u.Capacity, invVar)
	}
	if u.Flags.I {
		e.AddTerm(u.I, FloatOr(u.Params.InvFix, 0))
	}
	return u.AddObjective("invest", e.Scaled(af)), nil
}

// GenerateFixedOpex registers "opex_fix": opex_fix per operating hour, summed
// over steps and weighted by each scenario's yearly recurrence. No term is
// generated without on/off state.
func GenerateFixedOpex(u *Unit) *Objective {
	c, ok := Float(u.Params.OpexFix)
	if !ok || !u.Flags.U {
		return nil
	}
	return u.AddObjective("opex_fix", annualSum(u, u.U, u.Context().StepHours()).Scaled(c))
}

// GenerateStartupCost registers "startup" and "shutdown": the declared cost per
// transition, summed over steps and weighted by scenario recurrence.
func GenerateStartupCost(u *Unit) (startup, shutdown *Objective) {
	if !u.Flags.VW {
		return nil, nil
	}
	if c, ok := Float(u.Params.CostSU); ok {
		startup = u.AddObjective("startup", annualSum(u, u.V, 1).Scaled(c))
	}
	if c, ok := Float(u.Params.CostSD); ok {
		shutdown = u.AddObjective("shutdown", annualSum(u, u.W, 1).Scaled(c))
	}
	return startup, shutdown
}

// GenerateVariableCost registers a term price * energy for a throughput
// series, energy being the flow times step duration weighted by recurrence.
// A negative price is a revenue.
func GenerateVariableCost(u *Unit, name string, q Series, price float64) *Objective {
	var e Expr
	dt := u.Context().StepHours()
	for s := 0; s < u.NumScenarios(); s++ {
		w := u.Context().Weight(s) * dt * price
		for t := 0; t < u.Steps(); t++ {
			x := q[s][t].Scaled(w)
			e.Terms = append(e.Terms, x.Terms...)
			e.Const += x.Const
		}
	}
	return u.AddObjective(name, e)
}

// annualSum returns sum_s weight_s * sum_t k*x[s][t].
func annualSum(u *Unit, x Seq, k float64) Expr {
	var e Expr
	for s := 0; s < u.NumScenarios(); s++ {
		w := u.Context().Weight(s) * k
		for t := 0; t < u.Steps(); t++ {
			e.AddTerm(x[s][t], w)
		}
	}
	return e
}

// GenerateCosts runs every generic objective generator in order and sets the
// unit total to their sum. Kinds with extra terms register them first.
func GenerateCosts(u *Unit) error {
	if _, err := GenerateInvestmentCost(u); err != nil {
		return err
	}
	GenerateFixedOpex(u)
	GenerateStartupCost(u)
	if err := u.SetTotal(); err != nil {
		return err
	}
	logrus.Debugf("unit %q: %d cost terms", u.Name, len(u.Objectives())-1)
	return nil
}
