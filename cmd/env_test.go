package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarpio/dekarpio/mes"
)

func TestApplyEnv_UnsetVariablesKeepSpecValues(t *testing.T) {
	cfg := mes.DefaultSystemConfig()
	cfg.InterestRate = 0.07
	want := cfg

	require.NoError(t, applyEnv(&cfg))
	assert.Equal(t, want, cfg)
}

func TestApplyEnv_Overrides(t *testing.T) {
	// GIVEN overrides for every economic setting
	t.Setenv("DEKARPIO_INTEREST_RATE", "0.03")
	t.Setenv("DEKARPIO_DEPRECIATION_YEARS", "15")
	t.Setenv("DEKARPIO_SLACK_PENALTY", "1e5")
	t.Setenv("DEKARPIO_NON_EXISTING", "relax")
	cfg := mes.DefaultSystemConfig()

	// WHEN applied
	require.NoError(t, applyEnv(&cfg))

	// THEN they replace the spec's values and the rest stays untouched
	assert.Equal(t, 0.03, cfg.InterestRate)
	assert.Equal(t, 15.0, cfg.DepreciationYears)
	assert.Equal(t, 1e5, cfg.SlackPenalty)
	assert.Equal(t, mes.ExistenceRelax, cfg.NonExisting)
	assert.Equal(t, mes.DefaultSystemConfig().Steps, cfg.Steps)
}

func TestApplyEnv_MalformedValue(t *testing.T) {
	t.Setenv("DEKARPIO_INTEREST_RATE", "five percent")
	cfg := mes.DefaultSystemConfig()
	assert.Error(t, applyEnv(&cfg))
}

func TestEnvHelp_ListsVariables(t *testing.T) {
	help := envHelp()
	for _, name := range []string{"DEKARPIO_INTEREST_RATE", "DEKARPIO_DEPRECIATION_YEARS", "DEKARPIO_SLACK_PENALTY", "DEKARPIO_NON_EXISTING"} {
		assert.Contains(t, help, name)
	}
}

func TestLoadSpec_AppliesEnvironment(t *testing.T) {
	setFlags(t, districtHeating, false, "", "")
	t.Setenv("DEKARPIO_DEPRECIATION_YEARS", "30")

	spec, err := loadSpec()
	require.NoError(t, err)
	assert.Equal(t, 30.0, spec.System.DepreciationYears)
	assert.Equal(t, 0.05, spec.System.InterestRate, "spec value kept")
}
