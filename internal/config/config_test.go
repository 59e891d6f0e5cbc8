package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/bignum"
)

func TestDefaultCatalog(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Len(t, cfg.Resources, 2)
	assert.Len(t, cfg.Generators, 5)
	assert.Equal(t, []string{"stardust", "aether"}, cfg.Currencies())

	miner := cfg.Generators[0]
	assert.Equal(t, "miner", miner.ID)
	assert.Equal(t, bignum.FromInt(10), miner.BaseCost)
	assert.InDelta(t, 1.15, miner.CostMultiplier, 1e-12)
	assert.True(t, miner.Unlock.Default)

	coins := cfg.Resources[0]
	require.Len(t, coins.SoftCaps, 2)
	assert.Equal(t, 15, coins.SoftCaps[0].Amount.Exponent())

	assert.False(t, cfg.Upgrades[1].Capped())
	assert.True(t, cfg.Upgrades[0].Capped())
}

func TestParse_BalanceDefaultsSurvive(t *testing.T) {
	cfg, err := Parse([]byte(`
resources:
  - id: coins
balance:
  max_offline_hours: 4
`))
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Balance.MaxOfflineHours)
	assert.Equal(t, 0.5, cfg.Balance.OfflineEfficiency)
	assert.Equal(t, 100, cfg.Balance.TickIntervalMS)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`
resources:
  - id: coins
  - id: coins
generators:
  - id: g1
    produces: nothing
    cost_resource: coins
    cost_multiplier: 0
upgrades:
  - id: u1
    cost_resource: coins
    cost_multiplier: 2
    effect: sideways
prestige:
  - id: p1
    metric: coins
    reward_currency: coins
map_nodes:
  - id: n1
    requires: [ghost]
balance:
  offline_efficiency: 1.5
`))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`duplicate resource "coins"`,
		`produces unknown resource "nothing"`,
		`cost_multiplier must be positive`,
		`unknown effect "sideways"`,
		`no target tags`,
		`max_level must be -1 (unbounded) or positive`,
		`reward currency "coins" is also a base resource`,
		`requires unknown node "ghost"`,
		`offline_efficiency must be in (0, 1]`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resources:\n  - id: ore\n    starting_amount: \"2e500\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Resources[0].StartingAmount.Exponent())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("IDLE_OFFLINE_EFFICIENCY", "0.9")
	t.Setenv("IDLE_MAX_OFFLINE_HOURS", "24")
	t.Setenv("IDLE_AUTOSAVE_SECONDS", "not-a-number")

	b := DefaultBalance()
	ApplyEnv(&b)
	assert.Equal(t, 0.9, b.OfflineEfficiency)
	assert.Equal(t, 24.0, b.MaxOfflineHours)
	assert.Equal(t, 60, b.AutosaveSeconds)

	t.Setenv("IDLE_OFFLINE_EFFICIENCY", "3")
	ApplyEnv(&b)
	assert.Equal(t, 0.9, b.OfflineEfficiency)
}
