package mes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// UnitFactory builds a unit definition from its name and raw YAML parameters.
// Factories decode parameters with DecodeParams so unknown keys are rejected.
type UnitFactory func(name string, params *yaml.Node) (UnitDef, error)

var unitKinds = map[string]UnitFactory{}

// RegisterUnitKind makes a unit kind available to system specs. It is called
// from init() of the package implementing the kind and panics on duplicates.
func RegisterUnitKind(kind string, f UnitFactory) {
	if kind == "" || f == nil {
		panic("mes: RegisterUnitKind needs a kind name and a factory")
	}
	if _, dup := unitKinds[kind]; dup {
		panic(fmt.Sprintf("mes: unit kind %q registered twice", kind))
	}
	unitKinds[kind] = f
}

// UnitKinds returns the registered kind names, sorted.
func UnitKinds() []string { return sortedKeys(unitKinds) }

// NewUnitDef builds a definition through the factory registered for kind.
func NewUnitDef(kind, name string, params *yaml.Node) (UnitDef, error) {
	f, ok := unitKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unit %q kind %q: %w; registered: %v", name, kind, ErrUnknownKind, UnitKinds())
	}
	return f(name, params)
}

// DecodeParams strictly decodes a params mapping into out. A nil or empty node
// leaves out untouched.
func DecodeParams(node *yaml.Node, out any) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("re-encoding params: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// UnitSpec declares one unit in a system spec.
type UnitSpec struct {
	Name   string    `yaml:"name"`
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params"`
}

// SystemSpec is the YAML form of a complete system: shared configuration,
// units and the nodes wiring their ports.
//
//	system:
//	  steps: 24
//	  scenarios: [{name: winter, weight: 90}, {name: summer, weight: 275}]
//	units:
//	  - name: boiler
//	    kind: converter
//	    params: {cap: [0, 5], ...}
//	nodes:
//	  - name: heat
//	    sense: "=="
//	    lhs: [{unit: boiler, port: heat, coeff: 1}]
//	    rhs: [{unit: district, port: q, coeff: 1}]
type SystemSpec struct {
	System SystemConfig `yaml:"system"`
	Units  []UnitSpec   `yaml:"units"`
	Nodes  []NodeDef    `yaml:"nodes"`
}

// LoadSystemSpec reads and strictly parses a system spec file. Config fields
// absent from the file keep their DefaultSystemConfig values.
func LoadSystemSpec(path string) (*SystemSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading system spec: %w", err)
	}
	spec, err := ParseSystemSpec(data)
	if err != nil {
		return nil, fmt.Errorf("parsing system spec %s: %w", path, err)
	}
	return spec, nil
}

// ParseSystemSpec strictly parses a system spec from YAML bytes.
func ParseSystemSpec(data []byte) (*SystemSpec, error) {
	spec := SystemSpec{System: DefaultSystemConfig()}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty system spec")
		}
		return nil, err
	}
	return &spec, nil
}

// Validate checks the configuration, component names, kinds and node shapes.
// Parameters are validated by each kind's factory; port references are
// resolved by BuildModel.
func (s *SystemSpec) Validate() error {
	if err := s.System.Validate(); err != nil {
		return fmt.Errorf("system: %w", err)
	}
	if len(s.Units) == 0 {
		return fmt.Errorf("at least one unit required")
	}
	seen := make(map[string]bool, len(s.Units)+len(s.Nodes))
	for i, u := range s.Units {
		if u.Name == "" {
			return fmt.Errorf("units[%d]: name required", i)
		}
		if seen[u.Name] {
			return fmt.Errorf("unit %q: %w", u.Name, ErrDuplicateName)
		}
		seen[u.Name] = true
		if _, ok := unitKinds[u.Kind]; !ok {
			return fmt.Errorf("unit %q kind %q: %w; registered: %v", u.Name, u.Kind, ErrUnknownKind, UnitKinds())
		}
	}
	for _, n := range s.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if seen[n.Name] {
			return fmt.Errorf("node %q: %w", n.Name, ErrDuplicateName)
		}
		seen[n.Name] = true
	}
	return nil
}

// Builder validates the spec, builds every unit definition through its kind
// factory and returns a builder ready for BuildModel.
func (s *SystemSpec) Builder() (*SystemBuilder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	b := NewSystemBuilder(s.System)
	for i := range s.Units {
		u := &s.Units[i]
		def, err := NewUnitDef(u.Kind, u.Name, &u.Params)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", u.Name, err)
		}
		if err := b.AddUnit(def); err != nil {
			return nil, err
		}
	}
	for _, n := range s.Nodes {
		if err := b.AddNode(n); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// KindCounts returns how many units of each kind the spec declares.
func (s *SystemSpec) KindCounts() map[string]int {
	out := make(map[string]int)
	for _, u := range s.Units {
		out[u.Kind]++
	}
	return out
}
