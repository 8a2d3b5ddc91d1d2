package mes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FitLine returns the least-squares slope and intercept of the line through the
// bound pairs (driver.Min, dependent.Min) and (driver.Max, dependent.Max).
func FitLine(dependent, driver Bounds) (slope, intercept float64, err error) {
	if driver.Min == driver.Max {
		return 0, 0, fmt.Errorf("driver bounds [%g, %g]: %w", driver.Min, driver.Max, ErrDegenerateFit)
	}
	xs := []float64{driver.Min, driver.Max}
	ys := []float64{dependent.Min, dependent.Max}
	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	return slope, intercept, nil
}

// GenerateLinearDependency ties a dependent throughput to a driver throughput
// through a fixed efficiency line fitted to their bound pairs:
//
//	dependent[t] = slope*driver[t] + intercept*u[t]
//
// The intercept term is dropped when U is inactive.
func GenerateLinearDependency(u *Unit, name string, dependent, driver Series, depBounds, drvBounds Bounds) error {
	slope, intercept, err := FitLine(depBounds, drvBounds)
	if err != nil {
		return fmt.Errorf("unit %q dependency %q: %w", u.Name, name, err)
	}
	f := u.NewFamily(name)
	for s := 0; s < u.NumScenarios(); s++ {
		for t := 0; t < u.Steps(); t++ {
			rhs := driver[s][t].Scaled(slope)
			if u.Flags.U {
				rhs = rhs.Plus(Var(u.U.At(s, t)).Scaled(intercept))
			}
			f.Add(Rel(dependent[s][t], EQ, rhs))
		}
	}
	return nil
}

// SizingKind selects which declared sizing requirement a family enforces.
type SizingKind string

const (
	SizeArea   SizingKind = "area"
	SizeVolume SizingKind = "volume"
)

// GenerateSizing enforces area = i*a0 + capLike*a1 (or the volume equivalent).
// capLike defaults to the capacity scalar when NoVar is passed; storages couple
// it to their state-of-charge capacity instead. Without I the existence share is
// a constant a0.
func GenerateSizing(u *Unit, kind SizingKind, capLike VarID) error {
	var req *Sizing
	var target VarID
	switch kind {
	case SizeArea:
		req, target = u.Params.Area, u.Area
	case SizeVolume:
		req, target = u.Params.Volume, u.Volume
	default:
		return fmt.Errorf("unit %q: unknown sizing kind %q", u.Name, kind)
	}
	if req == nil {
		return nil
	}
	if !target.Valid() {
		// Non-sizeable kinds still get the scalar on demand.
		target = u.NewScalar(string(kind), Continuous, 0, math.Inf(1))
		if kind == SizeArea {
			u.Area = target
		} else {
			u.Volume = target
		}
	}
	if !capLike.Valid() {
		capLike = u.Capacity
	}
	if !capLike.Valid() {
		return &ParamError{Unit: u.Name, Key: "cap"}
	}
	rhs := Var(capLike).Scaled(req.PerCapacity)
	if u.Flags.I {
		rhs = rhs.Plus(Var(u.I).Scaled(req.PerExistence))
	} else {
		rhs = rhs.Plus(Constant(req.PerExistence))
	}
	u.NewFamily(string(kind)).Add(Rel(Var(target), EQ, rhs))
	return nil
}
