package mes

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Names of the system-level objectives.
const (
	TotalObjective     = "total"
	TotalRealObjective = "total_real"
)

// SystemBuilder collects unit and node definitions and assembles them into a
// single model. Definitions are only assembled inside BuildModel, so a node may
// be added before the units it references.
type SystemBuilder struct {
	cfg   SystemConfig
	units []UnitDef
	nodes []NodeDef
	names map[string]bool

	built *System
}

// NewSystemBuilder returns an empty builder over the given configuration.
// The configuration is validated by BuildModel.
func NewSystemBuilder(cfg SystemConfig) *SystemBuilder {
	return &SystemBuilder{cfg: cfg, names: make(map[string]bool)}
}

// AddUnit registers a unit definition. Names are shared between units and nodes.
func (b *SystemBuilder) AddUnit(def UnitDef) error {
	if err := b.reserve(def.Name()); err != nil {
		return err
	}
	b.units = append(b.units, def)
	return nil
}

// AddNode registers a node definition.
func (b *SystemBuilder) AddNode(def NodeDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := b.reserve(def.Name); err != nil {
		return err
	}
	b.nodes = append(b.nodes, def)
	return nil
}

func (b *SystemBuilder) reserve(name string) error {
	if b.built != nil {
		return fmt.Errorf("adding %q: %w", name, ErrSealed)
	}
	if name == "" {
		return fmt.Errorf("component name required")
	}
	if b.names[name] {
		return fmt.Errorf("component %q: %w", name, ErrDuplicateName)
	}
	b.names[name] = true
	return nil
}

// BuildModel assembles every registered unit in registration order, then every
// node, and adds the system objectives. The first successful call seals the
// builder; later calls return the same System without touching the model.
func (b *SystemBuilder) BuildModel() (*System, error) {
	if b.built != nil {
		return b.built, nil
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("system config: %w", err)
	}
	ctx := NewContext(b.cfg)
	sys := &System{
		cfg:    b.cfg,
		model:  ctx.Model(),
		units:  make(map[string]*Unit, len(b.units)),
		nodes:  make(map[string]*Unit, len(b.nodes)),
		unitNs: make([]string, 0, len(b.units)),
		nodeNs: make([]string, 0, len(b.nodes)),
	}

	for _, def := range b.units {
		u, err := def.Assemble(ctx)
		if err != nil {
			return nil, fmt.Errorf("assembling %s %q: %w", def.Kind(), def.Name(), err)
		}
		if err := u.merge(sys.model); err != nil {
			return nil, err
		}
		sys.units[u.Name] = u
		sys.unitNs = append(sys.unitNs, u.Name)
	}
	for _, def := range b.nodes {
		n, err := assembleNode(ctx, def, sys.units)
		if err != nil {
			return nil, err
		}
		if err := n.merge(sys.model); err != nil {
			return nil, err
		}
		sys.nodes[n.Name] = n
		sys.nodeNs = append(sys.nodeNs, n.Name)
	}

	if err := sys.addTotals(); err != nil {
		return nil, err
	}
	b.built = sys
	logrus.Infof("model %s built: %d units, %d nodes, %d variables, %d constraints, %d objectives",
		sys.model.ID, len(sys.units), len(sys.nodes), sys.model.NumVars(), sys.model.NumConstraints(), sys.model.NumObjectives())
	return sys, nil
}

// System is an assembled model with its components. It is read-only after
// build: SolveModel and MatrixFormFor choose an objective per call instead of
// changing which one is active.
type System struct {
	cfg    SystemConfig
	model  *Model
	units  map[string]*Unit
	nodes  map[string]*Unit
	unitNs []string
	nodeNs []string
}

// addTotals registers "total" (active, certificate-adjusted) and "total_real"
// (inactive, component costs only).
func (s *System) addTotals() error {
	var costs Expr
	for _, name := range s.unitNs {
		costs = Sum(costs, s.units[name].Total())
	}
	for _, name := range s.nodeNs {
		costs = Sum(costs, s.nodes[name].Total())
	}
	costs = costs.Simplify()
	cert := s.cfg.Certificates
	total := costs.Plus(Constant(cert.Fee - cert.Revenue))

	if err := s.model.addObjective(&Objective{Name: TotalObjective, Expr: total, Active: true}); err != nil {
		return err
	}
	return s.model.addObjective(&Objective{Name: TotalRealObjective, Expr: costs})
}

func (s *System) Model() *Model        { return s.model }
func (s *System) Config() SystemConfig { return s.cfg }

// Unit returns an assembled unit by name.
func (s *System) Unit(name string) (*Unit, error) {
	u, ok := s.units[name]
	if !ok {
		return nil, fmt.Errorf("unit %q: %w", name, ErrUnknownUnit)
	}
	return u, nil
}

// Node returns an assembled node by name.
func (s *System) Node(name string) (*Unit, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", name, ErrUnknownUnit)
	}
	return n, nil
}

// Units returns assembled units in registration order.
func (s *System) Units() []*Unit {
	out := make([]*Unit, len(s.unitNs))
	for i, name := range s.unitNs {
		out[i] = s.units[name]
	}
	return out
}

// Nodes returns assembled nodes in registration order.
func (s *System) Nodes() []*Unit {
	out := make([]*Unit, len(s.nodeNs))
	for i, name := range s.nodeNs {
		out[i] = s.nodes[name]
	}
	return out
}
