package mes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fixtureSpec = `
system:
  steps: 3
  scenarios: [{name: day, weight: 365}]
  certificates: {revenue: 10}
units:
  - name: A
    kind: fixture
    params:
      cap: [0, 10]
      lim: [0.2, 1]
      opex_fix: 1
  - name: B
    kind: fixture
nodes:
  - name: bus
    sense: "<="
    lhs: [{unit: A, port: q, coeff: 1}]
    rhs: [{unit: B, port: q, coeff: 2}]
`

func TestParseSystemSpec_KeepsDefaultsForAbsentFields(t *testing.T) {
	spec, err := ParseSystemSpec([]byte(fixtureSpec))
	require.NoError(t, err)

	def := DefaultSystemConfig()
	assert.Equal(t, 3, spec.System.Steps)
	assert.Equal(t, def.StepHours, spec.System.StepHours)
	assert.Equal(t, def.DepreciationYears, spec.System.DepreciationYears)
	assert.Equal(t, 10.0, spec.System.Certificates.Revenue)
	require.Len(t, spec.Units, 2)
	assert.Equal(t, "fixture", spec.Units[0].Kind)
	assert.Equal(t, LE, spec.Nodes[0].Sense)
	assert.Equal(t, 2.0, spec.Nodes[0].Rhs[0].Coeff)
	assert.Equal(t, map[string]int{"fixture": 2}, spec.KindCounts())
}

func TestParseSystemSpec_RejectsUnknownFields(t *testing.T) {
	_, err := ParseSystemSpec([]byte("system:\n  stpes: 3\nunits: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stpes")

	_, err = ParseSystemSpec(nil)
	assert.Error(t, err)
}

func TestSystemSpec_Builder_AssemblesRegisteredKinds(t *testing.T) {
	// GIVEN a spec using the fixture kind
	spec, err := ParseSystemSpec([]byte(fixtureSpec))
	require.NoError(t, err)

	// WHEN built
	b, err := spec.Builder()
	require.NoError(t, err)
	sys, err := b.BuildModel()
	require.NoError(t, err)

	// THEN params reached the unit and the node uses the declared sense
	a, err := sys.Unit("A")
	require.NoError(t, err)
	assert.Equal(t, Bounds{0.2, 1}, *a.Params.Lim)
	assert.True(t, a.Flags.U)
	_, ok := sys.Model().Family("A.q_min")
	assert.True(t, ok)
	bal, ok := sys.Model().Family("bus.balance")
	require.True(t, ok)
	assert.Equal(t, LE, bal.Rows[0].Sense)
}

func TestSystemSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown kind", "units: [{name: A, kind: turbine}]", ErrUnknownKind},
		{"duplicate unit", "units: [{name: A, kind: fixture}, {name: A, kind: fixture}]", ErrDuplicateName},
		{"node shares unit name", "units: [{name: A, kind: fixture}]\nnodes: [{name: A, sense: '==', lhs: [{unit: A, port: q, coeff: 1}]}]", ErrDuplicateName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := ParseSystemSpec([]byte(tc.yaml))
			require.NoError(t, err)
			assert.ErrorIs(t, spec.Validate(), tc.want)
		})
	}

	empty, err := ParseSystemSpec([]byte("units: []"))
	require.NoError(t, err)
	assert.Error(t, empty.Validate(), "at least one unit")
}

func TestDecodeParams_Strict(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("cap: [0, 5]\ncapacity: 3\n"), &node))

	var p Params
	err := DecodeParams(node.Content[0], &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")

	require.NoError(t, DecodeParams(nil, &p))
	require.NoError(t, DecodeParams(&yaml.Node{}, &p))
}

func TestBounds_YAML(t *testing.T) {
	var b Bounds
	require.NoError(t, yaml.Unmarshal([]byte("[1.5, 3]"), &b))
	assert.Equal(t, Bounds{1.5, 3}, b)
	assert.Error(t, yaml.Unmarshal([]byte("[1, 2, 3]"), &b))

	out, err := yaml.Marshal(Bounds{0, 4})
	require.NoError(t, err)
	assert.Equal(t, "- 0\n- 4\n", string(out))
}

func TestLoadSystemSpec_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureSpec), 0o644))

	spec, err := LoadSystemSpec(path)
	require.NoError(t, err)
	assert.NoError(t, spec.Validate())

	_, err = LoadSystemSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegisterUnitKind_PanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterUnitKind("fixture", func(string, *yaml.Node) (UnitDef, error) { return nil, nil })
	})
	assert.Contains(t, UnitKinds(), "fixture")
}
