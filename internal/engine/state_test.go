package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/economy"
	"github.com/talgya/idle-economy/internal/snapshot"
)

func TestCaptureRestore_RoundTrip(t *testing.T) {
	sim, clock := newTestSim(t)
	sim.Ledger.Credit("coins", num(5e6))
	_, err := sim.BuyGenerator("miner", economy.BuyTen)
	require.NoError(t, err)
	_, err = sim.BuyUpgrade("picks", economy.BuyOne)
	require.NoError(t, err)
	_, err = sim.UnlockMapNode("harbor")
	require.NoError(t, err)
	sim.Tick(1)
	_, err = sim.Prestige("ascend")
	require.NoError(t, err)
	sim.Ledger.Credit("coins", bignum.New(3, 450))
	_, err = sim.BuyGenerator("drill", economy.BuyOne)
	require.ErrorIs(t, err, ErrLocked)
	sim.Tick(2)
	_, err = sim.StartEvent("rush")
	require.NoError(t, err)

	data, err := snapshot.Encode(sim.CaptureState())
	require.NoError(t, err)
	rec, err := snapshot.Decode(data)
	require.NoError(t, err)

	restored := NewSimulation(testConfig())
	restored.Clock = clock
	restored.RestoreState(rec)

	assert.Equal(t, sim.Balance("coins"), restored.Balance("coins"))
	assert.Equal(t, sim.Lifetime("coins"), restored.Lifetime("coins"))
	assert.Equal(t, sim.Balance("stardust"), restored.Balance("stardust"))
	assert.True(t, restored.GeneratorUnlocked("drill"))
	assert.Equal(t, sim.GeneratorLevel("miner"), restored.GeneratorLevel("miner"))
	assert.Equal(t, sim.UpgradeLevel("picks"), restored.UpgradeLevel("picks"))
	assert.Equal(t, 1, restored.PrestigeCount("ascend"))
	assert.Equal(t, sim.LastTick, restored.LastTick)
	assert.True(t, sim.LastTickAt.Equal(restored.LastTickAt))
	assert.False(t, restored.NodeUnlocked("harbor"))

	ev, ok := restored.ActiveEvent()
	require.True(t, ok)
	assert.Equal(t, "rush", ev.ID)
	assert.InDelta(t, 10, ev.Remaining, 1e-9)
}

func TestRestore_MissingFieldsUseDefaults(t *testing.T) {
	sim, _ := newTestSim(t)
	sim.Ledger.Set("coins", num(999))
	sim.Generators[0].Level = 4

	sim.RestoreState(snapshot.Record{})

	assert.True(t, sim.Balance("coins").IsZero())
	assert.Equal(t, 0, sim.GeneratorLevel("miner"))
	assert.True(t, sim.GeneratorUnlocked("miner"), "default unlock flag")
	assert.False(t, sim.GeneratorUnlocked("drill"))
	assert.True(t, sim.NodeUnlocked("camp"))
	_, ok := sim.ActiveEvent()
	assert.False(t, ok)
}

func TestRestore_NormalizesAndDropsUnknown(t *testing.T) {
	sim, _ := newTestSim(t)
	rec := snapshot.Record{
		Ledger: snapshot.LedgerRecord{Balances: map[string]snapshot.Pair{"coins": {M: 2500, E: 0}}},
		Generators: snapshot.LevelsRecord{Entries: map[string]snapshot.LevelEntry{
			"drill":   {Level: 2},
			"retired": {Level: 9},
			"miner":   {Level: -3},
		}},
		Upgrades: snapshot.LevelsRecord{Entries: map[string]snapshot.LevelEntry{"picks": {Level: 50}}},
		Event:    snapshot.EventRecord{ActiveID: "retired_event", Remaining: 5},
		MapNodes: snapshot.MapRecord{Unlocked: []string{"harbor", "atlantis"}},
	}
	sim.RestoreState(rec)

	assert.Equal(t, bignum.New(2.5, 3), sim.Balance("coins"))
	assert.Equal(t, 2, sim.GeneratorLevel("drill"))
	assert.True(t, sim.GeneratorUnlocked("drill"), "owned levels imply unlocked")
	assert.Equal(t, 0, sim.GeneratorLevel("miner"))
	assert.Equal(t, 2, sim.UpgradeLevel("picks"), "clamped to max level")
	assert.True(t, sim.NodeUnlocked("harbor"))
	assert.False(t, sim.NodeUnlocked("atlantis"))
	_, ok := sim.ActiveEvent()
	assert.False(t, ok)
	assert.InDelta(t, 32, sim.GeneratorRate("drill").Float(), 1e-9, "8/s × 2 levels × harbor")
}

func TestShutdown_CapturesLastTickTime(t *testing.T) {
	sim, clock := newTestSim(t)
	sim.Tick(1)
	clock.Advance(5 * time.Minute)

	rec := sim.Shutdown()
	assert.Equal(t, epoch, rec.SavedAt)
	assert.Equal(t, snapshot.Version, rec.Version)
	assert.Equal(t, uint64(1), rec.Tick)
}

func TestRestore_MalformedFieldsKeepTheRest(t *testing.T) {
	sim, _ := newTestSim(t)
	data := `{
		"version": 2,
		"tick": 7,
		"ledger": {"balances": {"coins": {"m": "oops", "e": 3}}, "lifetime": {"coins": {"m": 4, "e": 2}}},
		"meta": {"balances": {"stardust": {"m": 3, "e": 0}}},
		"generators": {"entries": {"miner": {"level": 4}, "drill": {"level": "x"}}},
		"upgrades": {"entries": {"picks": {"level": [1]}}},
		"map_nodes": {"unlocked": ["harbor"]},
		"prestige": {"tiers": {"ascend": {"count": "twice"}}}
	}`
	rec, err := snapshot.Decode([]byte(data))
	require.NoError(t, err)
	sim.RestoreState(rec)

	assert.True(t, sim.Balance("coins").IsZero())
	assert.InDelta(t, 400, sim.Lifetime("coins").Float(), 1e-9)
	assert.InDelta(t, 3, sim.Balance("stardust").Float(), 1e-12)
	assert.Equal(t, 4, sim.GeneratorLevel("miner"))
	assert.Equal(t, 0, sim.GeneratorLevel("drill"))
	assert.Equal(t, 0, sim.UpgradeLevel("picks"))
	assert.True(t, sim.NodeUnlocked("harbor"))
	assert.Equal(t, 0, sim.PrestigeCount("ascend"))
	assert.Equal(t, uint64(7), sim.LastTick)
}
