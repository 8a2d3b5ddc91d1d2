package mes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Results reads a solved assignment back through the system's handles.
type Results struct {
	sys    *System
	values []float64
}

// NewResults wraps a full assignment indexed by VarID.
func NewResults(sys *System, values []float64) *Results {
	return &Results{sys: sys, values: values}
}

// Values returns the raw assignment.
func (r *Results) Values() []float64 { return r.values }

// Value returns the value of one column.
func (r *Results) Value(id VarID) float64 { return r.values[id] }

// SeqValues returns the values of a variable sequence, indexed [scenario][step].
func (r *Results) SeqValues(s Seq) [][]float64 {
	out := make([][]float64, len(s))
	for sc, row := range s {
		out[sc] = make([]float64, len(row))
		for t, id := range row {
			out[sc][t] = r.values[id]
		}
	}
	return out
}

// SeriesValues evaluates a port series.
func (r *Results) SeriesValues(s Series) [][]float64 {
	out := make([][]float64, len(s))
	for sc, row := range s {
		out[sc] = make([]float64, len(row))
		for t, e := range row {
			out[sc][t] = e.Eval(r.values)
		}
	}
	return out
}

// ObjectiveValue evaluates any registered objective, active or not.
func (r *Results) ObjectiveValue(name string) (float64, error) {
	o, ok := r.sys.Model().Objective(name)
	if !ok {
		return 0, fmt.Errorf("objective %q: %w", name, ErrUnknownObjective)
	}
	return o.Expr.Eval(r.values), nil
}

// AnnualEnergy returns sum_s weight_s * sum_t x[s][t] * dt for a port series.
func (r *Results) AnnualEnergy(s Series) float64 {
	cfg := r.sys.Config()
	weights := make([]float64, len(cfg.Scenarios))
	sums := make([]float64, len(cfg.Scenarios))
	for sc, row := range r.SeriesValues(s) {
		weights[sc] = cfg.Scenarios[sc].Weight
		sums[sc] = floats.Sum(row)
	}
	return floats.Dot(weights, sums) * cfg.StepHours
}

// SlackUse is one nonzero node slack in a solution.
type SlackUse struct {
	Node     string
	Side     string // "lhs" or "rhs"
	Scenario int
	Step     int
	Value    float64
}

func (s SlackUse) String() string {
	return fmt.Sprintf("node %q %s slack %g at scenario %d step %d", s.Node, s.Side, s.Value, s.Scenario, s.Step)
}

// NonzeroSlacks lists every node slack above tol. Any entry means the topology
// could not be balanced and the cost includes slack penalties.
func (r *Results) NonzeroSlacks(tol float64) []SlackUse {
	var out []SlackUse
	for _, n := range r.sys.Nodes() {
		for _, side := range []string{"lhs", "rhs"} {
			seq, ok := n.Seq("slack_" + side)
			if !ok {
				continue
			}
			for sc, row := range r.SeqValues(seq) {
				for t, v := range row {
					if math.Abs(v) > tol {
						out = append(out, SlackUse{Node: n.Name, Side: side, Scenario: sc, Step: t, Value: v})
					}
				}
			}
		}
	}
	return out
}

// UnitReport is the solved state of one component.
type UnitReport struct {
	Kind       string                 `json:"kind" yaml:"kind"`
	Scalars    map[string]float64     `json:"scalars,omitempty" yaml:"scalars,omitempty"`
	Sequences  map[string][][]float64 `json:"sequences,omitempty" yaml:"sequences,omitempty"`
	Ports      map[string][][]float64 `json:"ports,omitempty" yaml:"ports,omitempty"`
	Energy     map[string]float64     `json:"energy,omitempty" yaml:"energy,omitempty"` // annual energy per port
	Objectives map[string]float64     `json:"objectives,omitempty" yaml:"objectives,omitempty"`
}

// Report is the nested per-component record of a solution.
type Report struct {
	ModelID    string                `json:"model_id" yaml:"model_id"`
	Objectives map[string]float64    `json:"objectives" yaml:"objectives"`
	Units      map[string]UnitReport `json:"units" yaml:"units"`
	Nodes      map[string]UnitReport `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Slacks     []SlackUse            `json:"slacks,omitempty" yaml:"slacks,omitempty"`
}

// Report collects every component's variables, ports and cost terms.
func (r *Results) Report() Report {
	rep := Report{
		ModelID:    r.sys.Model().ID.String(),
		Objectives: map[string]float64{},
		Units:      make(map[string]UnitReport),
		Nodes:      make(map[string]UnitReport),
		Slacks:     r.NonzeroSlacks(1e-6),
	}
	for _, name := range []string{TotalObjective, TotalRealObjective} {
		if v, err := r.ObjectiveValue(name); err == nil {
			rep.Objectives[name] = v
		}
	}
	for _, u := range r.sys.Units() {
		rep.Units[u.Name] = r.unitReport(u)
	}
	for _, n := range r.sys.Nodes() {
		rep.Nodes[n.Name] = r.unitReport(n)
	}
	return rep
}

func (r *Results) unitReport(u *Unit) UnitReport {
	ur := UnitReport{
		Kind:       u.Kind,
		Scalars:    make(map[string]float64),
		Sequences:  make(map[string][][]float64),
		Ports:      make(map[string][][]float64),
		Energy:     make(map[string]float64),
		Objectives: make(map[string]float64),
	}
	for _, name := range u.ScalarNames() {
		id, _ := u.Scalar(name)
		ur.Scalars[name] = r.Value(id)
	}
	for _, name := range u.SeqNames() {
		s, _ := u.Seq(name)
		ur.Sequences[name] = r.SeqValues(s)
	}
	for _, name := range u.PortNames() {
		p, _ := u.Port(name)
		ur.Ports[name] = r.SeriesValues(p)
		ur.Energy[name] = r.AnnualEnergy(p)
	}
	prefix := len(u.Name) + 1
	for _, o := range u.Objectives() {
		ur.Objectives[o.Name[prefix:]] = o.Expr.Eval(r.values)
	}
	return ur
}
