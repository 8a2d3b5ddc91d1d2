package mes

import (
	"fmt"
	"sort"
)

// UnitDef is a registered component definition. Assemble is only called by
// SystemBuilder.BuildModel, after every definition is known, and must follow the
// constructor order: InferActivation, Provision, constraint generators,
// objective generators, SetTotal.
type UnitDef interface {
	Name() string
	Kind() string
	Assemble(ctx *Context) (*Unit, error)
}

// Unit is a named bundle of parameters, variables, ports, constraint families
// and cost terms. It owns its variables and families exclusively.
type Unit struct {
	Name   string
	Kind   string
	Params Params
	Flags  Activation

	U, V, W  Seq   // on/off, startup, shutdown; nil when inactive
	I        VarID // existence/investment; NoVar when inactive
	Capacity VarID
	Area     VarID
	Volume   VarID

	// BigM is the unit's maximum declared capacity. Every big-M coefficient of
	// the unit's families is derived from it.
	BigM float64

	ctx        *Context
	scalars    map[string]VarID
	seqs       map[string]Seq
	ports      map[string]Series
	families   []*Family
	familyIdx  map[string]int
	objectives []*Objective
	objIdx     map[string]int
	total      *Objective
}

// NewUnit returns an empty unit bound to the assembly context.
func NewUnit(name, kind string, p Params, ctx *Context) *Unit {
	return &Unit{
		Name:      name,
		Kind:      kind,
		Params:    p,
		I:         NoVar,
		Capacity:  NoVar,
		Area:      NoVar,
		Volume:    NoVar,
		ctx:       ctx,
		scalars:   make(map[string]VarID),
		seqs:      make(map[string]Seq),
		ports:     make(map[string]Series),
		familyIdx: make(map[string]int),
		objIdx:    make(map[string]int),
	}
}

// Context returns the assembly context the unit was created in.
func (u *Unit) Context() *Context { return u.ctx }

func (u *Unit) qualified(local string) string { return u.Name + "." + local }

// NewScalar allocates a named scalar variable owned by the unit.
func (u *Unit) NewScalar(local string, typ VarType, lower, upper float64) VarID {
	id := u.ctx.model.AddVar(u.qualified(local), typ, lower, upper)
	u.scalars[local] = id
	return id
}

// NewSeq allocates a named [scenario][step] variable family owned by the unit.
func (u *Unit) NewSeq(local string, typ VarType, lower, upper float64) Seq {
	return u.newSeq(local, u.ctx.Steps(), typ, lower, upper)
}

// NewExtendedSeq allocates a sequence with one extra point per scenario that
// holds the end-of-horizon state (used by storages).
func (u *Unit) NewExtendedSeq(local string, typ VarType, lower, upper float64) Seq {
	return u.newSeq(local, u.ctx.Steps()+1, typ, lower, upper)
}

func (u *Unit) newSeq(local string, steps int, typ VarType, lower, upper float64) Seq {
	s := u.ctx.model.AddSeq(u.qualified(local), u.ctx.NumScenarios(), steps, typ, lower, upper)
	u.seqs[local] = s
	return s
}

// Scalar returns a named scalar variable.
func (u *Unit) Scalar(local string) (VarID, bool) {
	id, ok := u.scalars[local]
	return id, ok
}

// Seq returns a named sequence variable.
func (u *Unit) Seq(local string) (Seq, bool) {
	s, ok := u.seqs[local]
	return s, ok
}

// ScalarNames returns the local names of scalar variables, sorted.
func (u *Unit) ScalarNames() []string { return sortedKeys(u.scalars) }

// SeqNames returns the local names of sequence variables, sorted.
func (u *Unit) SeqNames() []string { return sortedKeys(u.seqs) }

// AddPort exposes a series under a name other components can reference.
func (u *Unit) AddPort(name string, s Series) {
	u.ports[name] = s
}

// Port returns the series exposed under name.
func (u *Unit) Port(name string) (Series, error) {
	s, ok := u.ports[name]
	if !ok {
		return nil, fmt.Errorf("unit %q port %q: %w", u.Name, name, ErrUnknownPort)
	}
	return s, nil
}

// PortNames returns the exposed port names, sorted.
func (u *Unit) PortNames() []string { return sortedKeys(u.ports) }

// NewFamily creates (or returns) the family with the given local name.
func (u *Unit) NewFamily(local string) *Family {
	if i, ok := u.familyIdx[local]; ok {
		return u.families[i]
	}
	f := &Family{Name: u.qualified(local)}
	u.familyIdx[local] = len(u.families)
	u.families = append(u.families, f)
	return f
}

// Family returns a family by local name.
func (u *Unit) Family(local string) (*Family, bool) {
	i, ok := u.familyIdx[local]
	if !ok {
		return nil, false
	}
	return u.families[i], true
}

// Families returns the unit's families in generation order.
func (u *Unit) Families() []*Family { return u.families }

// AddObjective registers an inactive cost term under a local name.
func (u *Unit) AddObjective(local string, e Expr) *Objective {
	o := &Objective{Name: u.qualified(local), Expr: e.Simplify()}
	if i, ok := u.objIdx[local]; ok {
		u.objectives[i] = o
		return o
	}
	u.objIdx[local] = len(u.objectives)
	u.objectives = append(u.objectives, o)
	return o
}

// Objective returns a cost term by local name.
func (u *Unit) Objective(local string) (*Objective, bool) {
	i, ok := u.objIdx[local]
	if !ok {
		return nil, false
	}
	return u.objectives[i], true
}

// Objectives returns the unit's cost terms in generation order, total included.
func (u *Unit) Objectives() []*Objective { return u.objectives }

// SetTotal registers the unit's "total" objective as the sum of the named cost
// terms, or of every term generated so far when none are named.
func (u *Unit) SetTotal(terms ...string) error {
	if len(terms) == 0 {
		for _, o := range u.objectives {
			if o.Name != u.qualified("total") {
				terms = append(terms, o.Name[len(u.Name)+1:])
			}
		}
	}
	var total Expr
	for _, t := range terms {
		o, ok := u.Objective(t)
		if !ok {
			return fmt.Errorf("unit %q total: term %q: %w", u.Name, t, ErrUnknownObjective)
		}
		total = total.Plus(o.Expr)
	}
	u.total = u.AddObjective("total", total)
	return nil
}

// Total returns the unit's aggregate cost term, or an empty expression when
// SetTotal was never called.
func (u *Unit) Total() Expr {
	if u.total == nil {
		return Expr{}
	}
	return u.total.Expr
}

// Steps returns the horizon length.
func (u *Unit) Steps() int { return u.ctx.Steps() }

// NumScenarios returns the number of scenarios.
func (u *Unit) NumScenarios() int { return u.ctx.NumScenarios() }

// merge copies the unit's families and objectives into the model.
func (u *Unit) merge(m *Model) error {
	for _, f := range u.families {
		if err := m.addFamily(f); err != nil {
			return err
		}
	}
	for _, o := range u.objectives {
		if err := m.addObjective(o); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
