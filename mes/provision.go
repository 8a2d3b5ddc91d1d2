package mes

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ProvisionOptions describes what a concrete kind needs beyond the commitment flags.
type ProvisionOptions struct {
	// Sizeable allocates the capacity scalar; it requires declared cap bounds.
	Sizeable bool
}

// Provision allocates the decision variables implied by u.Flags:
//   - U: binary on/off sequence
//   - VW: startup and shutdown sequences, continuous in [0, 1]
//   - I: existence scalar, pinned to 1 for known-existing units, bounded by the
//     system's non-existing policy for known-absent ones, free binary otherwise
//
// Sizeable units also get a capacity scalar, plus area/volume scalars when declared.
// The unit's big-M is fixed here from the declared maximum capacity.
func Provision(u *Unit, opts ProvisionOptions) error {
	if err := u.Flags.Validate(); err != nil {
		return fmt.Errorf("unit %q: %w", u.Name, err)
	}
	if u.Params.Cap != nil {
		u.BigM = u.Params.Cap.Max
	}

	if u.Flags.U {
		u.U = u.NewSeq("u", Binary, 0, 1)
	}
	if u.Flags.VW {
		u.V = u.NewSeq("v", Continuous, 0, 1)
		u.W = u.NewSeq("w", Continuous, 0, 1)
	}
	if u.Flags.I {
		lo, hi := existenceBounds(u)
		u.I = u.NewScalar("i", Binary, lo, hi)
	}

	if opts.Sizeable {
		if _, err := RequireBounds(u.Name, "cap", u.Params.Cap); err != nil {
			return err
		}
		u.Capacity = u.NewScalar("cap", Continuous, 0, math.Inf(1))
		if u.Params.Area != nil {
			u.Area = u.NewScalar("area", Continuous, 0, math.Inf(1))
		}
		if u.Params.Volume != nil {
			u.Volume = u.NewScalar("volume", Continuous, 0, math.Inf(1))
		}
	}
	logrus.Debugf("unit %q provisioned (%s, bigM=%g)", u.Name, u.Flags, u.BigM)
	return nil
}

func existenceBounds(u *Unit) (float64, float64) {
	if u.Params.Exists == nil {
		return 0, 1
	}
	if *u.Params.Exists {
		return 1, 1
	}
	if u.ctx.cfg.nonExisting() == ExistenceRelax {
		logrus.Warnf("unit %q declared non-existing; existence relaxed to [0, 1]", u.Name)
		return 0, 1
	}
	return 0, 0
}

// KnownExisting reports whether the unit is declared as an already-built asset.
func (u *Unit) KnownExisting() bool {
	return u.Params.Exists != nil && *u.Params.Exists
}
