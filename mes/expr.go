package mes

import (
	"fmt"
	"sort"
	"strings"
)

// VarID is the column handle returned by Model.AddVar. Handles are threaded
// explicitly between components instead of being looked up by name.
type VarID int

// NoVar marks a variable that was not provisioned for a unit.
const NoVar VarID = -1

// Valid reports whether the handle refers to an allocated variable.
func (v VarID) Valid() bool { return v >= 0 }

// Seq is a time-indexed family of variables, indexed [scenario][step].
type Seq [][]VarID

// Active reports whether the sequence was allocated.
func (s Seq) Active() bool { return len(s) > 0 }

// At returns the variable at scenario s and cyclic step t.
func (s Seq) At(sc, t int) VarID {
	row := s[sc]
	return row[wrap(t, len(row))]
}

// Term is one coefficient-variable product of a linear expression.
type Term struct {
	Var   VarID
	Coeff float64
}

// Expr is a linear expression sum(Coeff*Var) + Const.
type Expr struct {
	Terms []Term
	Const float64
}

// Var returns the expression 1*v.
func Var(v VarID) Expr {
	return Expr{Terms: []Term{{Var: v, Coeff: 1}}}
}

// Constant returns an expression without variables.
func Constant(c float64) Expr {
	return Expr{Const: c}
}

// AddTerm appends coeff*v in place and returns the receiver for chaining.
func (e *Expr) AddTerm(v VarID, coeff float64) *Expr {
	if coeff != 0 {
		e.Terms = append(e.Terms, Term{Var: v, Coeff: coeff})
	}
	return e
}

// Plus returns e + o. Neither operand is modified.
func (e Expr) Plus(o Expr) Expr {
	out := Expr{Terms: make([]Term, 0, len(e.Terms)+len(o.Terms)), Const: e.Const + o.Const}
	out.Terms = append(out.Terms, e.Terms...)
	out.Terms = append(out.Terms, o.Terms...)
	return out
}

// Minus returns e - o.
func (e Expr) Minus(o Expr) Expr {
	return e.Plus(o.Scaled(-1))
}

// Scaled returns k*e.
func (e Expr) Scaled(k float64) Expr {
	out := Expr{Terms: make([]Term, 0, len(e.Terms)), Const: k * e.Const}
	for _, t := range e.Terms {
		if k*t.Coeff != 0 {
			out.Terms = append(out.Terms, Term{Var: t.Var, Coeff: k * t.Coeff})
		}
	}
	return out
}

// Simplify merges duplicate variables and drops zero coefficients.
// Terms are returned sorted by variable handle.
func (e Expr) Simplify() Expr {
	if len(e.Terms) == 0 {
		return Expr{Const: e.Const}
	}
	acc := make(map[VarID]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[t.Var] += t.Coeff
	}
	out := Expr{Terms: make([]Term, 0, len(acc)), Const: e.Const}
	for v, c := range acc {
		if c != 0 {
			out.Terms = append(out.Terms, Term{Var: v, Coeff: c})
		}
	}
	sort.Slice(out.Terms, func(i, j int) bool { return out.Terms[i].Var < out.Terms[j].Var })
	return out
}

// Eval evaluates the expression against a full assignment indexed by VarID.
func (e Expr) Eval(values []float64) float64 {
	v := e.Const
	for _, t := range e.Terms {
		v += t.Coeff * values[t.Var]
	}
	return v
}

// IsConstant reports whether the expression has no variable terms.
func (e Expr) IsConstant() bool {
	return len(e.Simplify().Terms) == 0
}

func (e Expr) String() string {
	var b strings.Builder
	for i, t := range e.Simplify().Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g*x%d", t.Coeff, t.Var)
	}
	if e.Const != 0 || b.Len() == 0 {
		if b.Len() > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g", e.Const)
	}
	return b.String()
}

// Sum adds expressions together.
func Sum(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		out.Terms = append(out.Terms, e.Terms...)
		out.Const += e.Const
	}
	return out
}

// Series is a scenario/step indexed family of expressions; it is what a port exposes.
type Series [][]Expr

// SeqSeries lifts a variable sequence into a port series.
func SeqSeries(s Seq) Series {
	out := make(Series, len(s))
	for sc, row := range s {
		out[sc] = make([]Expr, len(row))
		for t, v := range row {
			out[sc][t] = Var(v)
		}
	}
	return out
}

// ConstSeries builds a port series from fixed values indexed [scenario][step].
func ConstSeries(values [][]float64) Series {
	out := make(Series, len(values))
	for sc, row := range values {
		out[sc] = make([]Expr, len(row))
		for t, v := range row {
			out[sc][t] = Constant(v)
		}
	}
	return out
}

// wrap maps t onto [0, n) cyclically: step n wraps to 0 and step -1 to n-1.
func wrap(t, n int) int {
	t %= n
	if t < 0 {
		t += n
	}
	return t
}
