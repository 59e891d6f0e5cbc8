package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/economy"
)

func TestUnlockMapNode(t *testing.T) {
	sim, _ := newTestSim(t)
	assert.True(t, sim.NodeUnlocked("camp"))
	assert.Equal(t, 1.0, sim.MapMultiplier().Float())

	_, err := sim.UnlockMapNode("harbor")
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	assert.False(t, sim.NodeUnlocked("harbor"))
	assert.Equal(t, num(10), sim.Balance("coins"))

	sim.Ledger.Set("coins", num(500))
	events, err := sim.UnlockMapNode("harbor")
	require.NoError(t, err)
	assert.Equal(t, []string{KindMapNodeUnlocked}, kinds(events))
	assert.InDelta(t, 400, sim.Balance("coins").Float(), 1e-9)
	assert.InDelta(t, 2, sim.MapMultiplier().Float(), 1e-12)

	_, err = sim.UnlockMapNode("harbor")
	assert.ErrorIs(t, err, ErrAlreadyUnlocked)

	_, err = sim.UnlockMapNode("nope")
	assert.ErrorIs(t, err, ErrUnknownMapNode)
}

func TestUnlockMapNode_Prerequisites(t *testing.T) {
	sim, _ := newTestSim(t)

	_, err := sim.UnlockMapNode("peak")
	assert.ErrorIs(t, err, ErrLocked)

	sim.Ledger.Set("coins", num(100))
	_, err = sim.UnlockMapNode("harbor")
	require.NoError(t, err)
	_, err = sim.UnlockMapNode("peak")
	require.NoError(t, err)
	assert.InDelta(t, 2, sim.MapMultiplier().Float(), 1e-12, "zero multiplier is neutral")
}

func TestUnlockMapNode_Gate(t *testing.T) {
	sim, _ := newTestSim(t)

	_, err := sim.UnlockMapNode("capital")
	assert.ErrorIs(t, err, ErrLocked)

	sim.Ledger.Set("coins", num(2e9))
	_, err = sim.UnlockMapNode("capital")
	require.NoError(t, err)
	assert.InDelta(t, 5, sim.MapMultiplier().Float(), 1e-12)
}

func TestMapNode_GatesGenerators(t *testing.T) {
	sim, _ := newTestSim(t)
	sim.Ledger.Set("coins", num(40))
	sim.Tick(0)
	assert.False(t, sim.GeneratorUnlocked("refinery"))

	sim.Ledger.Set("coins", num(100))
	_, err := sim.UnlockMapNode("harbor")
	require.NoError(t, err)

	events := sim.Tick(0)
	require.Len(t, events, 1)
	assert.Equal(t, "refinery", events[0].Subject)

	views := sim.MapNodeViews()
	require.Len(t, views, 4)
	assert.True(t, views[1].Unlocked)
	assert.True(t, views[2].Available)
	assert.False(t, views[3].Available)
}

func TestMapMultiplier_ScalesProduction(t *testing.T) {
	sim, _ := newTestSim(t)
	sim.Ledger.Set("coins", num(110))
	_, err := sim.BuyGenerator("miner", economy.BuyOne)
	require.NoError(t, err)
	_, err = sim.UnlockMapNode("harbor")
	require.NoError(t, err)

	sim.Ledger.Set("coins", num(0))
	sim.Tick(10)
	assert.InDelta(t, 20, sim.Balance("coins").Float(), 1e-9)
}
