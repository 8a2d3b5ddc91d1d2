package mes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarpio/dekarpio/mes/internal/testutil"
)

func TestAnnuityFactor(t *testing.T) {
	tests := []struct {
		name string
		r, n float64
		want float64
	}{
		{"straight line without interest", 0, 20, 0.05},
		{"5% over 20 years", 0.05, 20, 0.05 * math.Pow(1.05, 20) / (math.Pow(1.05, 20) - 1)},
		{"one year repays principal plus interest", 0.1, 1, 1.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertFloat64Equal(t, "annuity", tc.want, AnnuityFactor(tc.r, tc.n), 1e-12)
		})
	}
}

func TestGenerateInvestmentCost(t *testing.T) {
	// GIVEN inv_var 100 per capacity and inv_fix 1000 at zero interest over 10 years
	cfg := testConfig(1)
	cfg.InterestRate = 0
	cfg.DepreciationYears = 10
	u := provisioned(t, cfg, Params{Cap: &Bounds{0, 5}, InvVar: ptr(100.0), InvFix: ptr(1000.0)}, true)

	o, err := GenerateInvestmentCost(u)
	require.NoError(t, err)

	// THEN the yearly cost is (100*cap + 1000*i) / 10
	vals := zeros(u)
	vals[u.Capacity] = 4
	vals[u.I] = 1
	testutil.AssertFloat64Equal(t, "invest", 140, o.Expr.Eval(vals), 1e-12)
	assert.False(t, o.Active, "unit terms are inactive")
	assert.Equal(t, "unit.invest", o.Name)
}

func TestGenerateInvestmentCost_KnownExistingIsFree(t *testing.T) {
	u := provisioned(t, testConfig(1), Params{Cap: &Bounds{0, 5}, InvVar: ptr(100.0), Exists: ptr(true)}, true)
	o, err := GenerateInvestmentCost(u)
	require.NoError(t, err)
	assert.Empty(t, o.Expr.Terms)
	assert.Zero(t, o.Expr.Const)
}

func TestGenerateFixedOpexAndStartup_WeightedByScenario(t *testing.T) {
	// GIVEN two scenarios recurring 100 and 265 times a year, 2-hour steps
	cfg := testConfig(2)
	cfg.StepHours = 2
	cfg.Scenarios = []Scenario{{Name: "a", Weight: 100}, {Name: "b", Weight: 265}}
	u := provisioned(t, cfg, Params{OpexFix: ptr(3.0), CostSU: ptr(50.0)}, false)

	opex := GenerateFixedOpex(u)
	startup, shutdown := GenerateStartupCost(u)
	require.NotNil(t, opex)
	require.NotNil(t, startup)
	assert.Nil(t, shutdown, "no shutdown cost declared")

	// WHEN on for one step in scenario a and both steps in scenario b, starting once in a
	vals := zeros(u)
	setSeq(vals, u.U, 0, 1, 0)
	setSeq(vals, u.U, 1, 1, 1)
	setSeq(vals, u.V, 0, 1, 0)

	// THEN opex = 3 * 2h * (100*1 + 265*2) and startup = 50 * 100
	testutil.AssertFloat64Equal(t, "opex", 3*2*(100+265*2), opex.Expr.Eval(vals), 1e-12)
	testutil.AssertFloat64Equal(t, "startup", 50*100, startup.Expr.Eval(vals), 1e-12)
}

func TestGenerateCosts_TotalSumsTerms(t *testing.T) {
	cfg := testConfig(1)
	cfg.InterestRate = 0
	cfg.DepreciationYears = 1
	u := provisioned(t, cfg, Params{Cap: &Bounds{0, 5}, InvVar: ptr(2.0), OpexFix: ptr(1.0)}, true)
	require.NoError(t, GenerateCosts(u))

	vals := zeros(u)
	vals[u.Capacity] = 3
	vals[u.U[0][0]] = 1
	// invest 2*3 + opex 1*1h*365
	testutil.AssertFloat64Equal(t, "total", 6+365, u.Total().Eval(vals), 1e-12)
	_, ok := u.Objective("total")
	assert.True(t, ok)
}

func TestGenerateVariableCost_NegativePriceIsRevenue(t *testing.T) {
	u := provisioned(t, testConfig(2), Params{}, false)
	q := u.NewSeq("q", Continuous, 0, 10)
	o := GenerateVariableCost(u, "energy", SeqSeries(q), -0.1)

	vals := zeros(u)
	setSeq(vals, q, 0, 4, 6)
	testutil.AssertFloat64Equal(t, "revenue", -0.1*365*10, o.Expr.Eval(vals), 1e-12)
}

func TestUnit_SetTotal_UnknownTerm(t *testing.T) {
	u := provisioned(t, testConfig(1), Params{}, false)
	assert.ErrorIs(t, u.SetTotal("missing"), ErrUnknownObjective)
}
