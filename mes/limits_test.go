package mes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCapacityLimits_WithExistence(t *testing.T) {
	// GIVEN cap bounds [2, 10] and an investment binary
	u := provisioned(t, testConfig(1), Params{Cap: &Bounds{2, 10}, InvFix: ptr(50.0)}, true)
	require.NoError(t, GenerateCapacityLimits(u))

	tests := []struct {
		name    string
		i, size float64
		broken  []string
	}{
		{"absent with zero capacity", 0, 0, nil},
		{"absent with capacity", 0, 3, []string{"cap_max"}},
		{"built within bounds", 1, 6, nil},
		{"built below minimum", 1, 1, []string{"cap_min"}},
		{"built above maximum", 1, 11, []string{"cap_max"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vals := zeros(u)
			vals[u.I] = tc.i
			vals[u.Capacity] = tc.size
			assert.Equal(t, tc.broken, violatedFamilies(u, vals))
		})
	}
}

func TestGenerateCapacityLimits_WithoutExistence(t *testing.T) {
	u := provisioned(t, testConfig(1), Params{Cap: &Bounds{2, 10}}, true)
	require.NoError(t, GenerateCapacityLimits(u))

	vals := zeros(u)
	assert.Equal(t, []string{"cap_min"}, violatedFamilies(u, vals), "minimum applies unconditionally")
	vals[u.Capacity] = 4
	assert.Empty(t, violatedFamilies(u, vals))
}

func TestGenerateCapacityLimits_MissingCap(t *testing.T) {
	u := provisioned(t, testConfig(1), Params{}, false)
	assert.ErrorIs(t, GenerateCapacityLimits(u), ErrMissingParam)
}

func TestGenerateOperatingLimits_FamilyCountFollowsFlags(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want []string
	}{
		{"no commitment", Params{}, []string{"q_nonneg", "q_max_cap"}},
		{"on/off only", Params{OpexFix: ptr(1.0)}, []string{"q_nonneg", "q_max_cap", "q_min", "q_max_on"}},
		{"with transitions", Params{CostSU: ptr(1.0)}, []string{"q_nonneg", "q_max_cap", "q_min", "q_max_on", "q_max_su", "q_max_sd"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.p.Cap = &Bounds{0, 10}
			u := provisioned(t, testConfig(3), tc.p, true)
			q := u.NewSeq("q", Continuous, 0, 100)
			require.NoError(t, GenerateOperatingLimits(u, "q", q, Bounds{0.2, 1}))

			var got []string
			for _, f := range u.Families() {
				got = append(got, f.Name[len("unit."):])
				assert.Equal(t, 3, f.Len(), f.Name)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateOperatingLimits_OnOffScenario(t *testing.T) {
	// GIVEN cap (0, 10), lim (0.2, 1.0), on/off state only, 3 steps, u = [1, 1, 0]
	u := provisioned(t, testConfig(3), Params{Cap: &Bounds{0, 10}, Lim: &Bounds{0.2, 1}, OpexFix: ptr(1.0)}, true)
	q := u.NewSeq("q", Continuous, 0, 100)
	require.NoError(t, GenerateOperatingLimits(u, "q", q, *u.Params.Lim))

	feasible := func(q0, q1, q2 float64) bool {
		vals := zeros(u)
		vals[u.Capacity] = 10
		setSeq(vals, u.U, 0, 1, 1, 0)
		setSeq(vals, q, 0, q0, q1, q2)
		return len(violatedFamilies(u, vals)) == 0
	}

	// THEN running steps admit [2, 10] and the off step forces 0
	assert.True(t, feasible(2, 10, 0))
	assert.True(t, feasible(5, 7.5, 0))
	assert.False(t, feasible(1.9, 5, 0), "below minimum load while on")
	assert.False(t, feasible(5, 10.1, 0), "above capacity")
	assert.False(t, feasible(5, 5, 0.1), "flow while off")
}

func TestGenerateOperatingLimits_CeilingIsCapacity(t *testing.T) {
	tests := []struct {
		name   string
		p      Params
		hi     float64
		q      float64
		broken []string
	}{
		{"load factor above one stays within capacity", Params{}, 1.2, 12, []string{"q_max_cap"}},
		{"load factor above one at capacity", Params{}, 1.2, 10, nil},
		{"load factor below one without on/off state", Params{}, 0.8, 10, nil},
		{"load factor below one with on/off state", Params{OpexFix: ptr(1.0)}, 0.8, 10, []string{"q_max_on"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN capacity 10 and the load factor ceiling hi
			tc.p.Cap = &Bounds{0, 10}
			u := provisioned(t, testConfig(1), tc.p, true)
			q := u.NewSeq("q", Continuous, 0, 100)
			require.NoError(t, GenerateOperatingLimits(u, "q", q, Bounds{0, tc.hi}))

			// WHEN the unit runs at q
			vals := zeros(u)
			vals[u.Capacity] = 10
			if u.Flags.U {
				setSeq(vals, u.U, 0, 1)
			}
			setSeq(vals, q, 0, tc.q)

			// THEN throughput is capped by capacity and hi only gates the on/off row
			assert.Equal(t, tc.broken, violatedFamilies(u, vals))
		})
	}
}

func TestGenerateOperatingLimits_StartupCeiling(t *testing.T) {
	// GIVEN a unit that can only reach 50% load in a startup step
	p := Params{Cap: &Bounds{0, 10}, CostSU: ptr(1.0), MaxSU: ptr(0.5)}
	u := provisioned(t, testConfig(3), p, true)
	q := u.NewSeq("q", Continuous, 0, 100)
	require.NoError(t, GenerateOperatingLimits(u, "q", q, Bounds{0, 1}))

	run := func(q1 float64) []string {
		vals := zeros(u)
		vals[u.Capacity] = 10
		setSeq(vals, u.U, 0, 0, 1, 1)
		setSeq(vals, u.V, 0, 0, 1, 0)
		setSeq(vals, u.W, 0, 1, 0, 0)
		setSeq(vals, q, 0, 0, q1, 8)
		return violatedFamilies(u, vals)
	}

	assert.Empty(t, run(5))
	assert.Equal(t, []string{"q_max_su"}, run(6))
}

func TestGenerateRampLimits_RampScenario(t *testing.T) {
	// GIVEN capacity 10, ramp_up 0.5 per hour, 1 hour steps, q[0] = 0
	u := provisioned(t, testConfig(3), Params{Cap: &Bounds{0, 10}, RampUp: ptr(0.5)}, true)
	q := u.NewSeq("q", Continuous, 0, 100)
	require.NoError(t, GenerateRampLimits(u, "q", q))
	_, hasDown := u.Family("q_ramp_down")
	assert.False(t, hasDown, "no ramp_down declared")

	check := func(q1 float64) []string {
		vals := zeros(u)
		vals[u.Capacity] = 10
		setSeq(vals, q, 0, 0, q1, 0)
		return violatedFamilies(u, vals)
	}

	// THEN q[1] <= 5
	assert.Empty(t, check(5))
	assert.Equal(t, []string{"q_ramp_up"}, check(5.5))
}

func TestGenerateRampLimits_StartupAllowance(t *testing.T) {
	// GIVEN ramping limited to 20% per step but startups allowed up to max_su
	p := Params{Cap: &Bounds{0, 10}, CostSU: ptr(1.0), RampUp: ptr(0.2), RampDn: ptr(0.2), MaxSU: ptr(0.6), MaxSD: ptr(0.6)}
	u := provisioned(t, testConfig(4), p, true)
	q := u.NewSeq("q", Continuous, 0, 100)
	require.NoError(t, GenerateRampLimits(u, "q", q))

	check := func(qs ...float64) []string {
		vals := zeros(u)
		vals[u.Capacity] = 10
		setSeq(vals, u.U, 0, 0, 1, 1, 1)
		setSeq(vals, u.V, 0, 0, 1, 0, 0)
		setSeq(vals, u.W, 0, 1, 0, 0, 0)
		setSeq(vals, q, 0, qs...)
		return violatedFamilies(u, vals)
	}

	// THEN a startup step may rise by ramp + max_su*M = 2 + 6, steady steps
	// move at most 2, and the shutdown at step 0 may drop from 6 to 0
	assert.Empty(t, check(0, 6, 8, 6))
	assert.Equal(t, []string{"q_ramp_up", "q_ramp_up_steady"}, check(0, 6, 9, 7))
	assert.Equal(t, []string{"q_ramp_up"}, check(0, 9, 8, 6))

	// AND the allowance belongs to the startup step only: the rise out of it is steady
	assert.Equal(t, []string{"q_ramp_up", "q_ramp_up_steady"}, check(0, 2, 8, 6))
}
