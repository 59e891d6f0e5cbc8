package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/economy"
	"github.com/talgya/idle-economy/internal/snapshot"
)

func TestEngine_AdvanceScalesBySpeed(t *testing.T) {
	sim, clock := newTestSim(t)
	e := NewEngine(sim)
	e.Do(func(sim *Simulation) {
		_, err := sim.BuyGenerator("miner", economy.BuyOne)
		require.NoError(t, err)
	})

	e.Advance() // first step has no prior time
	assert.True(t, sim.Balance("coins").IsZero())

	clock.Advance(2 * time.Second)
	e.Advance()
	assert.InDelta(t, 2, sim.Balance("coins").Float(), 1e-9)

	e.SetSpeed(3)
	clock.Advance(time.Second)
	e.Advance()
	assert.InDelta(t, 5, sim.Balance("coins").Float(), 1e-9)

	e.SetSpeed(0)
	clock.Advance(time.Minute)
	assert.Nil(t, e.Advance())
	assert.InDelta(t, 5, sim.Balance("coins").Float(), 1e-9)

	e.SetSpeed(1)
	clock.Advance(time.Second)
	e.Advance()
	assert.InDelta(t, 6, sim.Balance("coins").Float(), 1e-9, "paused time is not banked")

	e.SetSpeed(-4)
	assert.Equal(t, 1.0, e.Speed())
}

func TestEngine_PauseIsNotOfflineTime(t *testing.T) {
	sim, clock := newTestSim(t)
	e := NewEngine(sim)
	e.Do(func(sim *Simulation) {
		_, err := sim.BuyGenerator("miner", economy.BuyOne)
		require.NoError(t, err)
	})
	e.Advance()
	clock.Advance(time.Second)
	e.Advance()

	e.SetSpeed(0)
	clock.Advance(time.Hour)
	e.Advance()
	rec := sim.Shutdown()
	assert.Equal(t, clock.Now(), rec.SavedAt)

	restored := NewSimulation(testConfig())
	restored.Clock = clock
	restored.RestoreState(rec)
	report := restored.Resume(clock.Now())
	assert.Zero(t, report.Elapsed)
	assert.InDelta(t, 1, restored.Balance("coins").Float(), 1e-9)
}

func TestEngine_CallbacksAndAutosave(t *testing.T) {
	sim, clock := newTestSim(t)
	sim.Ledger.Set("coins", num(60))

	e := NewEngine(sim)
	e.AutosaveEvery = time.Minute
	var saves []snapshot.Record
	e.OnAutosave = func(rec snapshot.Record) { saves = append(saves, rec) }
	var seen []Event
	e.OnEvents = func(events []Event) { seen = append(seen, events...) }

	e.lastSave = clock.Now()
	e.Advance()
	require.Len(t, seen, 1)
	assert.Equal(t, "drill", seen[0].Subject)
	assert.Empty(t, saves)

	clock.Advance(30 * time.Second)
	e.Advance()
	assert.Empty(t, saves)

	clock.Advance(31 * time.Second)
	e.Advance()
	require.Len(t, saves, 1)
	assert.Equal(t, uint64(3), saves[0].Tick)
}

func TestEngine_RunStops(t *testing.T) {
	sim, _ := newTestSim(t)
	e := NewEngine(sim)
	e.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()
	require.Eventually(t, e.Running, time.Second, time.Millisecond)

	e.Stop()
	e.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.False(t, e.Running())
}

func TestEngine_RunHonoursContext(t *testing.T) {
	sim, _ := newTestSim(t)
	e := NewEngine(sim)
	e.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	require.Eventually(t, e.Running, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
