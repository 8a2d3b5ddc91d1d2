package mes

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// VarType is the domain of a decision variable.
type VarType int

const (
	Continuous VarType = iota
	Binary
	Integer
)

func (t VarType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return "continuous"
	}
}

// Variable is one column of the model.
type Variable struct {
	Name  string
	Type  VarType
	Lower float64
	Upper float64
}

// Sense is the relational operator of a constraint or node balance.
type Sense string

const (
	EQ Sense = "=="
	LE Sense = "<="
	GE Sense = ">="
	LT Sense = "<"
	GT Sense = ">"
)

// ValidSenses is the set of recognized relational operators.
var ValidSenses = map[Sense]bool{EQ: true, LE: true, GE: true, LT: true, GT: true}

// Closed maps strict operators onto their non-strict counterpart.
// MILP solvers only handle closed feasible sets.
func (s Sense) Closed() Sense {
	switch s {
	case LT:
		return LE
	case GT:
		return GE
	default:
		return s
	}
}

// Constraint reads Expr (Sense) 0.
type Constraint struct {
	Expr  Expr
	Sense Sense
}

// Rel builds the constraint lhs (sense) rhs by moving rhs to the left.
func Rel(lhs Expr, sense Sense, rhs Expr) Constraint {
	return Constraint{Expr: lhs.Minus(rhs).Simplify(), Sense: sense.Closed()}
}

// Satisfied reports whether the constraint holds within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	v := c.Expr.Eval(values)
	switch c.Sense.Closed() {
	case LE:
		return v <= tol
	case GE:
		return v >= -tol
	default:
		return math.Abs(v) <= tol
	}
}

// Family is a named, indexed group of constraints produced by one generator.
type Family struct {
	Name string
	Rows []Constraint
}

// Len returns the number of rows in the family.
func (f *Family) Len() int { return len(f.Rows) }

// Add appends a row.
func (f *Family) Add(c Constraint) { f.Rows = append(f.Rows, c) }

// Objective is a named cost expression. Only active objectives are handed to a solver;
// inactive ones stay available for reporting.
type Objective struct {
	Name   string
	Expr   Expr
	Active bool
}

// Model is the assembled in-memory mixed-integer linear program (minimization).
type Model struct {
	ID uuid.UUID

	vars       []Variable
	families   []*Family
	familyIdx  map[string]int
	objectives []*Objective
	objIdx     map[string]int
}

// NewModel returns an empty model stamped with a fresh identifier.
func NewModel() *Model {
	return &Model{
		ID:        uuid.New(),
		familyIdx: make(map[string]int),
		objIdx:    make(map[string]int),
	}
}

// AddVar allocates a column and returns its handle.
func (m *Model) AddVar(name string, typ VarType, lower, upper float64) VarID {
	if typ == Binary {
		lower = math.Max(lower, 0)
		upper = math.Min(upper, 1)
	}
	m.vars = append(m.vars, Variable{Name: name, Type: typ, Lower: lower, Upper: upper})
	return VarID(len(m.vars) - 1)
}

// AddSeq allocates a [scenario][step] family of variables named name[s,t].
func (m *Model) AddSeq(name string, scenarios, steps int, typ VarType, lower, upper float64) Seq {
	seq := make(Seq, scenarios)
	for s := range seq {
		seq[s] = make([]VarID, steps)
		for t := range seq[s] {
			seq[s][t] = m.AddVar(fmt.Sprintf("%s[%d,%d]", name, s, t), typ, lower, upper)
		}
	}
	return seq
}

// Var returns the column description for a handle.
func (m *Model) Var(id VarID) Variable { return m.vars[id] }

// Fix pins a variable to a value by collapsing its bounds.
func (m *Model) Fix(id VarID, value float64) {
	m.vars[id].Lower = value
	m.vars[id].Upper = value
}

// SetBounds replaces the bounds of a variable.
func (m *Model) SetBounds(id VarID, lower, upper float64) {
	m.vars[id].Lower = lower
	m.vars[id].Upper = upper
}

// NumVars returns the number of columns.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of rows across all families.
func (m *Model) NumConstraints() int {
	n := 0
	for _, f := range m.families {
		n += f.Len()
	}
	return n
}

// NumObjectives returns the number of registered objectives, active or not.
func (m *Model) NumObjectives() int { return len(m.objectives) }

// addFamily merges a family under its (already qualified) name.
func (m *Model) addFamily(f *Family) error {
	if _, ok := m.familyIdx[f.Name]; ok {
		return fmt.Errorf("constraint family %q: %w", f.Name, ErrDuplicateName)
	}
	m.familyIdx[f.Name] = len(m.families)
	m.families = append(m.families, f)
	return nil
}

// Family returns the merged family with the given qualified name.
func (m *Model) Family(name string) (*Family, bool) {
	i, ok := m.familyIdx[name]
	if !ok {
		return nil, false
	}
	return m.families[i], true
}

// Families returns merged families in merge order.
func (m *Model) Families() []*Family { return m.families }

// addObjective registers an objective under its qualified name.
func (m *Model) addObjective(o *Objective) error {
	if _, ok := m.objIdx[o.Name]; ok {
		return fmt.Errorf("objective %q: %w", o.Name, ErrDuplicateName)
	}
	m.objIdx[o.Name] = len(m.objectives)
	m.objectives = append(m.objectives, o)
	return nil
}

// Objective returns the objective with the given qualified name.
func (m *Model) Objective(name string) (*Objective, bool) {
	i, ok := m.objIdx[name]
	if !ok {
		return nil, false
	}
	return m.objectives[i], true
}

// Objectives returns all objectives in registration order.
func (m *Model) Objectives() []*Objective { return m.objectives }

// SetActive activates or deactivates a single objective.
func (m *Model) SetActive(name string, active bool) error {
	o, ok := m.Objective(name)
	if !ok {
		return fmt.Errorf("objective %q: %w", name, ErrUnknownObjective)
	}
	o.Active = active
	return nil
}

// Select makes name the only active objective. It changes the model in place;
// a System's model is left alone by SolveModel, which uses MatrixFormFor.
func (m *Model) Select(name string) error {
	if _, ok := m.Objective(name); !ok {
		return fmt.Errorf("objective %q: %w", name, ErrUnknownObjective)
	}
	for _, o := range m.objectives {
		o.Active = o.Name == name
	}
	return nil
}

// objectiveFor returns the named objective, or the active one for an empty name.
func (m *Model) objectiveFor(name string) (*Objective, error) {
	if name == "" {
		return m.ActiveObjective()
	}
	o, ok := m.Objective(name)
	if !ok {
		return nil, fmt.Errorf("objective %q: %w", name, ErrUnknownObjective)
	}
	return o, nil
}

// ActiveObjective returns the single active objective.
func (m *Model) ActiveObjective() (*Objective, error) {
	var active *Objective
	for _, o := range m.objectives {
		if !o.Active {
			continue
		}
		if active != nil {
			return nil, fmt.Errorf("objectives %q and %q are both active", active.Name, o.Name)
		}
		active = o
	}
	if active == nil {
		return nil, fmt.Errorf("no active objective")
	}
	return active, nil
}

// Violation describes one bound, integrality or row that an assignment breaks.
type Violation struct {
	Kind   string // "bound", "integrality" or "row"
	Name   string // variable name or family name
	Row    int
	Amount float64
}

func (v Violation) String() string {
	if v.Kind == "row" {
		return fmt.Sprintf("%s[%d] violated by %g", v.Name, v.Row, v.Amount)
	}
	return fmt.Sprintf("%s %s violated by %g", v.Kind, v.Name, v.Amount)
}

// Violations checks an assignment against every bound, integrality requirement and row.
// values must be indexed by VarID and cover every column.
func (m *Model) Violations(values []float64, tol float64) []Violation {
	var out []Violation
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol {
			out = append(out, Violation{Kind: "bound", Name: v.Name, Amount: v.Lower - x})
		} else if x > v.Upper+tol {
			out = append(out, Violation{Kind: "bound", Name: v.Name, Amount: x - v.Upper})
		}
		if v.Type != Continuous {
			if d := math.Abs(x - math.Round(x)); d > tol {
				out = append(out, Violation{Kind: "integrality", Name: v.Name, Amount: d})
			}
		}
	}
	for _, f := range m.families {
		for r, c := range f.Rows {
			if c.Satisfied(values, tol) {
				continue
			}
			out = append(out, Violation{Kind: "row", Name: f.Name, Row: r, Amount: math.Abs(c.Expr.Eval(values))})
		}
	}
	return out
}

// Nonzero is a single entry of the constraint matrix.
type Nonzero struct {
	Row int
	Col int
	Val float64
}

// MatrixForm is the column/row view of the model handed to external solvers:
//
//	Minimize:    ColCosts · x + Offset
//	Subject to:  RowLower ≤ A·x ≤ RowUpper
//	And:         ColLower ≤ x ≤ ColUpper
type MatrixForm struct {
	Objective   string
	Offset      float64
	ColCosts    []float64
	ColLower    []float64
	ColUpper    []float64
	Integrality []VarType
	RowLower    []float64
	RowUpper    []float64
	RowNames    []string
	ConstMatrix []Nonzero
}

// MatrixForm converts the model using the single active objective.
func (m *Model) MatrixForm() (*MatrixForm, error) {
	return m.MatrixFormFor("")
}

// MatrixFormFor converts the model using the named objective, or the active
// one when name is empty. Activation flags are not touched.
func (m *Model) MatrixFormFor(name string) (*MatrixForm, error) {
	obj, err := m.objectiveFor(name)
	if err != nil {
		return nil, fmt.Errorf("matrix form: %w", err)
	}
	n := len(m.vars)
	mf := &MatrixForm{
		Objective:   obj.Name,
		ColCosts:    make([]float64, n),
		ColLower:    make([]float64, n),
		ColUpper:    make([]float64, n),
		Integrality: make([]VarType, n),
	}
	for i, v := range m.vars {
		mf.ColLower[i] = v.Lower
		mf.ColUpper[i] = v.Upper
		mf.Integrality[i] = v.Type
	}
	o := obj.Expr.Simplify()
	mf.Offset = o.Const
	for _, t := range o.Terms {
		mf.ColCosts[t.Var] = t.Coeff
	}

	row := 0
	for _, f := range m.families {
		for r, c := range f.Rows {
			e := c.Expr.Simplify()
			lo, hi := math.Inf(-1), math.Inf(1)
			switch c.Sense.Closed() {
			case LE:
				hi = -e.Const
			case GE:
				lo = -e.Const
			default:
				lo, hi = -e.Const, -e.Const
			}
			mf.RowLower = append(mf.RowLower, lo)
			mf.RowUpper = append(mf.RowUpper, hi)
			mf.RowNames = append(mf.RowNames, fmt.Sprintf("%s[%d]", f.Name, r))
			for _, t := range e.Terms {
				mf.ConstMatrix = append(mf.ConstMatrix, Nonzero{Row: row, Col: int(t.Var), Val: t.Coeff})
			}
			row++
		}
	}
	return mf, nil
}

// Stats summarizes model size for logging and the CLI.
type Stats struct {
	ID          string         `json:"id"`
	Variables   map[string]int `json:"variables"`
	Constraints int            `json:"constraints"`
	Families    map[string]int `json:"families"`
	Objectives  []string       `json:"objectives"`
	Active      string         `json:"active_objective"`
}

// Stats computes the model size summary.
func (m *Model) Stats() Stats {
	st := Stats{
		ID:          m.ID.String(),
		Variables:   make(map[string]int),
		Constraints: m.NumConstraints(),
		Families:    make(map[string]int, len(m.families)),
	}
	for _, v := range m.vars {
		st.Variables[v.Type.String()]++
	}
	for _, f := range m.families {
		st.Families[f.Name] = f.Len()
	}
	for _, o := range m.objectives {
		st.Objectives = append(st.Objectives, o.Name)
		if o.Active {
			st.Active = o.Name
		}
	}
	sort.Strings(st.Objectives)
	return st
}
