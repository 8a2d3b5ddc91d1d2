package mes

import "fmt"

// Activation holds the commitment flags a unit needs:
// U on/off state, VW startup/shutdown transitions, I existence/investment.
type Activation struct {
	U  bool
	VW bool
	I  bool
}

// InferActivation reads the declared parameters and decides which generic
// decisions the unit needs. Rules are checked independently and OR-combined:
//
//	opex_fix > 0              => U
//	cost_su or cost_sd > 0    => U, VW
//	min_up or min_down > 1    => U, VW
//	inv_fix > 0               => I
//	exists declared and true  => I
func InferActivation(p Params) Activation {
	var a Activation
	if positive(p.OpexFix) {
		a.U = true
	}
	if positive(p.CostSU) || positive(p.CostSD) {
		a.U, a.VW = true, true
	}
	if IntOr(p.MinUp, 0) > 1 || IntOr(p.MinDown, 0) > 1 {
		a.U, a.VW = true, true
	}
	if positive(p.InvFix) {
		a.I = true
	}
	if p.Exists != nil && *p.Exists {
		a.I = true
	}
	return a
}

// Or combines two flag sets. Concrete kinds use it to add flags derived from
// their own parameters before variables are provisioned.
func (a Activation) Or(o Activation) Activation {
	return Activation{U: a.U || o.U, VW: a.VW || o.VW, I: a.I || o.I}
}

// Validate rejects startup/shutdown tracking without on/off state.
func (a Activation) Validate() error {
	if a.VW && !a.U {
		return ErrInconsistentActivation
	}
	return nil
}

func (a Activation) String() string {
	return fmt.Sprintf("u=%t vw=%t i=%t", a.U, a.VW, a.I)
}
