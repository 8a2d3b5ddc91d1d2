package mes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvision_AllocatesByFlags(t *testing.T) {
	// GIVEN a unit with startup costs and investment over 2 scenarios x 3 steps
	cfg := testConfig(3)
	cfg.Scenarios = []Scenario{{Name: "a", Weight: 100}, {Name: "b", Weight: 265}}
	p := Params{Cap: &Bounds{0, 10}, CostSU: ptr(5.0), InvFix: ptr(1.0)}

	// WHEN provisioned as sizeable
	u := provisioned(t, cfg, p, true)

	// THEN u is binary, v/w are continuous in [0, 1], and i and cap are scalars
	m := u.Context().Model()
	require.Len(t, u.U, 2)
	require.Len(t, u.U[0], 3)
	assert.Equal(t, Binary, m.Var(u.U[1][2]).Type)
	assert.Equal(t, Continuous, m.Var(u.V[0][0]).Type)
	assert.Equal(t, 1.0, m.Var(u.W[0][0]).Upper)
	assert.True(t, u.I.Valid())
	assert.True(t, u.Capacity.Valid())
	assert.False(t, u.Area.Valid())
	assert.Equal(t, 10.0, u.BigM)
	assert.Equal(t, 3*6+2, m.NumVars())
}

func TestProvision_NoFlags_NoCommitmentVariables(t *testing.T) {
	u := provisioned(t, testConfig(4), Params{Cap: &Bounds{0, 1}}, true)
	assert.False(t, u.U.Active())
	assert.False(t, u.V.Active())
	assert.False(t, u.I.Valid())
	assert.Equal(t, 1, u.Context().Model().NumVars())
}

func TestProvision_ExistenceBounds(t *testing.T) {
	tests := []struct {
		name   string
		exists *bool
		policy ExistencePolicy
		lo, hi float64
	}{
		{"undeclared is free", nil, "", 0, 1},
		{"known existing is pinned to 1", ptr(true), "", 1, 1},
		{"known absent is pinned to 0 by default", ptr(false), "", 0, 0},
		{"known absent with pin policy", ptr(false), ExistencePin, 0, 0},
		{"known absent with relax policy", ptr(false), ExistenceRelax, 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(2)
			cfg.NonExisting = tc.policy
			// inv_fix forces I so absent units still get the scalar
			u := provisioned(t, cfg, Params{InvFix: ptr(1.0), Exists: tc.exists}, false)
			v := u.Context().Model().Var(u.I)
			assert.Equal(t, tc.lo, v.Lower)
			assert.Equal(t, tc.hi, v.Upper)
		})
	}
}

func TestProvision_SizeableWithoutCap_ReturnsParamError(t *testing.T) {
	u := NewUnit("boiler", "fixture", Params{}, NewContext(testConfig(2)))
	err := Provision(u, ProvisionOptions{Sizeable: true})

	var pe *ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boiler", pe.Unit)
	assert.Equal(t, "cap", pe.Key)
	assert.ErrorIs(t, err, ErrMissingParam)
}

func TestProvision_InconsistentFlags_Rejected(t *testing.T) {
	u := NewUnit("x", "fixture", Params{}, NewContext(testConfig(2)))
	u.Flags = Activation{VW: true}
	assert.ErrorIs(t, Provision(u, ProvisionOptions{}), ErrInconsistentActivation)
}

func TestProvision_AreaAndVolumeScalars(t *testing.T) {
	p := Params{Cap: &Bounds{0, 5}, Area: &Sizing{1, 2}, Volume: &Sizing{0, 3}}
	u := provisioned(t, testConfig(1), p, true)
	assert.True(t, u.Area.Valid())
	assert.True(t, u.Volume.Valid())
	id, ok := u.Scalar("area")
	assert.True(t, ok)
	assert.Equal(t, u.Area, id)
}
