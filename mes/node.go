package mes

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// PortRef is one signed term of a node balance: Coeff times port Port of unit Unit.
type PortRef struct {
	Unit  string  `yaml:"unit"`
	Port  string  `yaml:"port"`
	Coeff float64 `yaml:"coeff"`
}

// NodeDef is a balance point between named unit ports:
//
//	sum(lhs) + slack_lhs  (sense)  sum(rhs) + slack_rhs
//
// for every scenario and step. Both slacks are nonnegative and carry a large
// penalty in the node's total; a nonzero slack at the optimum means the
// topology cannot be balanced.
type NodeDef struct {
	Name  string    `yaml:"name"`
	Lhs   []PortRef `yaml:"lhs"`
	Rhs   []PortRef `yaml:"rhs"`
	Sense Sense     `yaml:"sense"`
}

// Validate checks the node's shape; unit and port names are resolved at build time.
func (n NodeDef) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("node name required")
	}
	if !ValidSenses[n.Sense] {
		return fmt.Errorf("node %q: unknown sense %q; valid: ==, <=, >=, <, >", n.Name, n.Sense)
	}
	if len(n.Lhs)+len(n.Rhs) == 0 {
		return fmt.Errorf("node %q: at least one port reference required", n.Name)
	}
	for _, r := range append(append([]PortRef{}, n.Lhs...), n.Rhs...) {
		if r.Unit == "" || r.Port == "" {
			return fmt.Errorf("node %q: port reference needs unit and port, got %+v", n.Name, r)
		}
		if math.IsNaN(r.Coeff) || math.IsInf(r.Coeff, 0) {
			return fmt.Errorf("node %q: coefficient of %s.%s must be finite", n.Name, r.Unit, r.Port)
		}
	}
	return nil
}

// assembleNode builds the node's slacks, balance family and penalty terms.
// units must already hold every assembled unit.
func assembleNode(ctx *Context, n NodeDef, units map[string]*Unit) (*Unit, error) {
	lhs, err := resolveSide(n, n.Lhs, units)
	if err != nil {
		return nil, err
	}
	rhs, err := resolveSide(n, n.Rhs, units)
	if err != nil {
		return nil, err
	}

	node := NewUnit(n.Name, "node", Params{}, ctx)
	slackL := node.NewSeq("slack_lhs", Continuous, 0, math.Inf(1))
	slackR := node.NewSeq("slack_rhs", Continuous, 0, math.Inf(1))
	node.AddPort("slack_lhs", SeqSeries(slackL))
	node.AddPort("slack_rhs", SeqSeries(slackR))

	balance := node.NewFamily("balance")
	for s := 0; s < ctx.NumScenarios(); s++ {
		for t := 0; t < ctx.Steps(); t++ {
			left := sideAt(lhs, s, t)
			left.AddTerm(slackL[s][t], 1)
			right := sideAt(rhs, s, t)
			right.AddTerm(slackR[s][t], 1)
			balance.Add(Rel(left, n.Sense, right))
		}
	}

	GenerateSlackPenalty(node, slackL, slackR)
	if err := node.SetTotal("slack"); err != nil {
		return nil, err
	}
	logrus.Debugf("node %q: %d balance rows over %d+%d refs", n.Name, balance.Len(), len(n.Lhs), len(n.Rhs))
	return node, nil
}

// GenerateSlackPenalty registers the "slack" term: a fixed penalty per unit of
// slack on either side, in every scenario and step.
func GenerateSlackPenalty(node *Unit, slacks ...Seq) *Objective {
	penalty := node.Context().Config().slackPenalty()
	var e Expr
	for _, sl := range slacks {
		for _, row := range sl {
			for _, v := range row {
				e.AddTerm(v, penalty)
			}
		}
	}
	return node.AddObjective("slack", e)
}

type resolvedRef struct {
	series Series
	coeff  float64
}

func resolveSide(n NodeDef, refs []PortRef, units map[string]*Unit) ([]resolvedRef, error) {
	out := make([]resolvedRef, 0, len(refs))
	for _, r := range refs {
		u, ok := units[r.Unit]
		if !ok {
			return nil, fmt.Errorf("node %q references unit %q: %w", n.Name, r.Unit, ErrUnknownUnit)
		}
		s, err := u.Port(r.Port)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		out = append(out, resolvedRef{series: s, coeff: r.Coeff})
	}
	return out, nil
}

func sideAt(refs []resolvedRef, s, t int) Expr {
	var e Expr
	for _, r := range refs {
		x := r.series[s][t].Scaled(r.coeff)
		e.Terms = append(e.Terms, x.Terms...)
		e.Const += x.Const
	}
	return e
}
