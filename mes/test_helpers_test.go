package mes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func ptr[T any](v T) *T { return &v }

// testConfig returns a single-scenario hourly config over the given horizon.
func testConfig(steps int) SystemConfig {
	cfg := DefaultSystemConfig()
	cfg.Steps = steps
	return cfg
}

// provisioned returns a unit with inferred flags and allocated variables.
func provisioned(t *testing.T, cfg SystemConfig, p Params, sizeable bool) *Unit {
	t.Helper()
	u := NewUnit("unit", "fixture", p, NewContext(cfg))
	u.Flags = InferActivation(p)
	require.NoError(t, Provision(u, ProvisionOptions{Sizeable: sizeable}))
	return u
}

// zeros returns an all-zero assignment covering every column allocated so far.
func zeros(u *Unit) []float64 {
	return make([]float64, u.Context().Model().NumVars())
}

// violatedFamilies returns the local names of the unit's families with at least
// one violated row.
func violatedFamilies(u *Unit, values []float64) []string {
	var out []string
	for _, f := range u.Families() {
		for _, r := range f.Rows {
			if !r.Satisfied(values, 1e-9) {
				out = append(out, f.Name[len(u.Name)+1:])
				break
			}
		}
	}
	return out
}

func setSeq(values []float64, s Seq, sc int, xs ...float64) {
	for t, x := range xs {
		values[s[sc][t]] = x
	}
}

// fixture is a minimal sizeable kind with one throughput port "q".
type fixture struct {
	name string
	p    Params
}

func (f *fixture) Name() string { return f.name }
func (f *fixture) Kind() string { return "fixture" }

func (f *fixture) Assemble(ctx *Context) (*Unit, error) {
	u := NewUnit(f.name, f.Kind(), f.p, ctx)
	u.Flags = InferActivation(f.p)
	if err := Provision(u, ProvisionOptions{Sizeable: f.p.Cap != nil}); err != nil {
		return nil, err
	}
	q := u.NewSeq("q", Continuous, 0, math.Inf(1))
	u.AddPort("q", SeqSeries(q))
	GenerateUVW(u)
	if f.p.Cap != nil {
		if err := GenerateCapacityLimits(u); err != nil {
			return nil, err
		}
		if err := GenerateOperatingLimits(u, "q", q, f.p.LimOrDefault()); err != nil {
			return nil, err
		}
		if err := GenerateRampLimits(u, "q", q); err != nil {
			return nil, err
		}
	}
	if err := GenerateCosts(u); err != nil {
		return nil, err
	}
	return u, nil
}

func init() {
	RegisterUnitKind("fixture", func(name string, params *yaml.Node) (UnitDef, error) {
		var p Params
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return &fixture{name: name, p: p}, nil
	})
}
