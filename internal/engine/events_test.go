package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/economy"
	"github.com/talgya/idle-economy/internal/entropy"
)

func TestWorldEvent_RollStartsAndExpires(t *testing.T) {
	sim, _ := newTestSim(t)
	_, err := sim.BuyGenerator("miner", economy.BuyOne)
	require.NoError(t, err)

	sim.Entropy = entropy.Fixed(0)
	events := sim.Tick(1)
	require.Equal(t, []string{KindEventStarted}, kinds(events))
	assert.Equal(t, "rush", events[0].Subject)
	assert.InDelta(t, 1, sim.Balance("coins").Float(), 1e-9, "event starts after this tick's production")

	sim.Entropy = entropy.Fixed(0.999999)
	sim.Tick(4)
	assert.InDelta(t, 13, sim.Balance("coins").Float(), 1e-9)
	ev, ok := sim.ActiveEvent()
	require.True(t, ok)
	assert.InDelta(t, 6, ev.Remaining, 1e-9)
	assert.InDelta(t, 3, ev.Multiplier, 1e-12)

	events = sim.Tick(6)
	assert.Equal(t, []string{KindEventEnded}, kinds(events))
	_, ok = sim.ActiveEvent()
	assert.False(t, ok)
	assert.Equal(t, 1.0, sim.EventMultiplier().Float())
}

func TestWorldEvent_ZeroRateNeverRolls(t *testing.T) {
	sim, _ := newTestSim(t)
	sim.Config.Balance.EventRatePerHour = 0
	sim.Entropy = entropy.Fixed(0)

	for i := 0; i < 10; i++ {
		assert.Empty(t, sim.Tick(60))
	}
}

func TestWorldEvent_ChanceScalesWithDelta(t *testing.T) {
	sim, _ := newTestSim(t)
	sim.Config.Balance.EventRatePerHour = 3600 // one per second on average

	// p(dt=0.01) ≈ 0.00995, so a draw of 0.02 misses.
	sim.Entropy = entropy.Fixed(0.02)
	assert.Empty(t, sim.Tick(0.01))

	// p(dt=1) ≈ 0.632, so the same draw hits.
	assert.Equal(t, []string{KindEventStarted}, kinds(sim.Tick(1)))
}

func TestStartEvent(t *testing.T) {
	sim, _ := newTestSim(t)

	_, err := sim.StartEvent("nope")
	assert.ErrorIs(t, err, ErrUnknownEvent)

	events, err := sim.StartEvent("rush")
	require.NoError(t, err)
	assert.Equal(t, []string{KindEventStarted}, kinds(events))

	_, err = sim.StartEvent("rush")
	assert.ErrorIs(t, err, ErrEventActive)
}
