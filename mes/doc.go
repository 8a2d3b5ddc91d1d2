// Package mes assembles mixed-integer linear programs for the design and
// operation of multi-energy systems.
//
// # Reading Guide
//
// Start with these files to understand assembly:
//   - expr.go, model.go: variable handles, linear expressions, constraint families and the in-memory model
//   - unit.go: the Unit a component assembles into, and the UnitDef contract
//   - system.go: SystemBuilder, which assembles every unit then every node into one model
//
// # Unit constructor contract
//
// A concrete kind implements UnitDef. Its Assemble method runs, in order:
//  1. InferActivation on the declared Params, OR-ed with any kind-specific flags
//  2. Provision, which allocates on/off (u), startup/shutdown (v, w), existence (i)
//     and capacity variables and fixes the unit's big-M
//  3. the constraint generators it needs (GenerateUVW, GenerateCapacityLimits,
//     GenerateOperatingLimits, GenerateRampLimits, GenerateLinearDependency,
//     GenerateSizing, GenerateStorageBalance)
//  4. the objective generators (GenerateCosts, GenerateVariableCost)
//  5. Unit.SetTotal
//
// Time indices are cyclic: step T wraps to step 0 within each scenario.
// Scenario weights are yearly recurrences, so every cost term is annual.
//
// Concrete kinds live in mes/units and register themselves with
// RegisterUnitKind from init(). Solving is delegated to a Solver registered
// with RegisterSolver; this package never solves.
package mes
