package units

import (
	"fmt"
	"math"

	"github.com/dekarpio/dekarpio/mes"
)

// named carries the component name shared by every definition.
type named struct{ name string }

func (n named) Name() string { return n.name }

// activation adds the flags a kind's own bounds imply to the declared ones:
// a positive minimum load needs on/off state, a positive minimum capacity
// needs the existence choice.
func activation(p mes.Params, lim mes.Bounds) mes.Activation {
	own := mes.Activation{U: lim.Min > 0, I: p.Cap != nil && p.Cap.Min > 0}
	return mes.InferActivation(p).Or(own)
}

// checkProfile verifies a [scenario][step] table matches the system index sets
// and holds only finite values within [lo, hi].
func checkProfile(unit, key string, prof [][]float64, ctx *mes.Context, lo, hi float64) error {
	if len(prof) != ctx.NumScenarios() {
		return fmt.Errorf("unit %q %s: %d scenario rows, system has %d", unit, key, len(prof), ctx.NumScenarios())
	}
	for s, row := range prof {
		if len(row) != ctx.Steps() {
			return fmt.Errorf("unit %q %s: scenario %d has %d steps, system has %d", unit, key, s, len(row), ctx.Steps())
		}
		for t, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < lo || v > hi {
				return fmt.Errorf("unit %q %s[%d][%d] = %g outside [%g, %g]", unit, key, s, t, v, lo, hi)
			}
		}
	}
	return nil
}

// throughputCosts registers the opex_var and price terms over q when declared.
func throughputCosts(u *mes.Unit, q mes.Series, price *float64) {
	if c, ok := mes.Float(u.Params.OpexVar); ok {
		mes.GenerateVariableCost(u, "opex_var", q, c)
	}
	if c, ok := mes.Float(price); ok {
		mes.GenerateVariableCost(u, "energy", q, c)
	}
}

// sizing enforces declared area and volume requirements against capLike.
func sizing(u *mes.Unit, capLike mes.VarID) error {
	if err := mes.GenerateSizing(u, mes.SizeArea, capLike); err != nil {
		return err
	}
	return mes.GenerateSizing(u, mes.SizeVolume, capLike)
}
