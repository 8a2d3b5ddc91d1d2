package mes

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SolutionStatus is the terminal state reported by a solver backend.
type SolutionStatus string

const (
	StatusOptimal    SolutionStatus = "optimal"
	StatusFeasible   SolutionStatus = "feasible" // stopped on gap or time limit with an incumbent
	StatusInfeasible SolutionStatus = "infeasible"
	StatusUnbounded  SolutionStatus = "unbounded"
)

// HasValues reports whether the status comes with a primal assignment.
func (s SolutionStatus) HasValues() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Solution is what a backend returns: one value per model column.
type Solution struct {
	Status    SolutionStatus
	Objective float64
	Values    []float64
}

// Solver is an external MILP backend. Implementations translate the matrix form
// into their own API; options arrive already renamed by BackendOptions.
type Solver interface {
	Solve(ctx context.Context, mf *MatrixForm, options map[string]any) (*Solution, error)
}

var (
	solverMu sync.RWMutex
	solvers  = map[string]Solver{}
)

// RegisterSolver makes a backend available under name, replacing any previous one.
func RegisterSolver(name string, s Solver) {
	solverMu.Lock()
	defer solverMu.Unlock()
	solvers[name] = s
}

// Solvers returns the registered backend names, sorted.
func Solvers() []string {
	solverMu.RLock()
	defer solverMu.RUnlock()
	return sortedKeys(solvers)
}

func lookupSolver(name string) (Solver, error) {
	solverMu.RLock()
	defer solverMu.RUnlock()
	s, ok := solvers[name]
	if !ok {
		return nil, fmt.Errorf("solver %q: %w; registered: %v", name, ErrUnknownSolver, sortedKeys(solvers))
	}
	return s, nil
}

// SolveOptions are the backend-neutral solve settings. Zero values leave the
// backend default in place.
type SolveOptions struct {
	Solver    string
	Objective string // objective for this solve; "" uses the active one
	Threads   int
	MIPGap    float64 // relative gap
	TimeLimit time.Duration
	Tolerance float64 // feasibility tolerance for checking the returned values
}

// backendOptionNames maps threads, gap and time limit onto each backend's own keys.
var backendOptionNames = map[string][3]string{
	"highs":  {"threads", "mip_rel_gap", "time_limit"},
	"cbc":    {"threads", "ratioGap", "sec"},
	"glpk":   {"", "mipgap", "tmlim"},
	"gurobi": {"Threads", "MIPGap", "TimeLimit"},
	"cplex":  {"threads", "mipgap", "timelimit"},
}

// BackendOptions renames the set options for the given backend. Backends
// without a name table receive the highs keys. A thread count for a backend
// that has no threads option is dropped with a warning.
func BackendOptions(backend string, o SolveOptions) map[string]any {
	names, ok := backendOptionNames[backend]
	if !ok {
		names = backendOptionNames["highs"]
	}
	out := make(map[string]any, 3)
	if o.Threads > 0 {
		if names[0] == "" {
			logrus.Warnf("solver %q has no threads option; ignoring threads=%d", backend, o.Threads)
		} else {
			out[names[0]] = o.Threads
		}
	}
	if o.MIPGap > 0 {
		out[names[1]] = o.MIPGap
	}
	if o.TimeLimit > 0 {
		secs := o.TimeLimit.Seconds()
		if backend == "glpk" {
			// glpk takes milliseconds
			out[names[2]] = int(o.TimeLimit.Milliseconds())
		} else {
			out[names[2]] = secs
		}
	}
	return out
}

// SolveModel hands the system's model to a registered backend and wraps the
// returned assignment. opts.Objective picks the objective for this solve only;
// the model's active flags are unchanged. Returned values are checked against
// every bound and row; violations are logged, not fatal, since backends apply
// their own tolerances.
func SolveModel(ctx context.Context, sys *System, opts SolveOptions) (*Results, error) {
	solver, err := lookupSolver(opts.Solver)
	if err != nil {
		return nil, err
	}
	m := sys.Model()
	obj, err := m.objectiveFor(opts.Objective)
	if err != nil {
		return nil, err
	}
	mf, err := m.MatrixFormFor(obj.Name)
	if err != nil {
		return nil, err
	}
	logrus.Infof("solving model %s with %s: %d columns, %d rows, objective %q",
		m.ID, opts.Solver, len(mf.ColCosts), len(mf.RowLower), mf.Objective)

	start := time.Now()
	sol, err := solver.Solve(ctx, mf, BackendOptions(opts.Solver, opts))
	if err != nil {
		return nil, fmt.Errorf("solver %q: %w", opts.Solver, err)
	}
	logrus.Infof("solver %q finished in %v: %s", opts.Solver, time.Since(start), sol.Status)
	if !sol.Status.HasValues() {
		return nil, fmt.Errorf("solver %q: no solution (%s)", opts.Solver, sol.Status)
	}
	if len(sol.Values) != m.NumVars() {
		return nil, fmt.Errorf("solver %q returned %d values for %d columns", opts.Solver, len(sol.Values), m.NumVars())
	}

	tol := opts.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}
	for _, v := range m.Violations(sol.Values, tol) {
		logrus.Warnf("solution violates %s", v)
	}
	res := NewResults(sys, sol.Values)
	if got := obj.Expr.Eval(sol.Values); math.Abs(got-sol.Objective) > tol*math.Max(1, math.Abs(got)) {
		logrus.Warnf("solver objective %g differs from evaluated %q = %g", sol.Objective, obj.Name, got)
	}
	return res, nil
}
