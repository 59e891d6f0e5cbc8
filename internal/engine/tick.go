// Package engine provides the economy simulation and the host loop that
// drives it in real time.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/idle-economy/internal/snapshot"
)

// Engine drives a Simulation forward with real elapsed time and serialises
// every other access to it.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // wall time between ticks
	Clock    Clock

	// Autosave is called with a fresh snapshot every AutosaveEvery.
	AutosaveEvery time.Duration
	OnAutosave    func(rec snapshot.Record)

	// OnEvents receives the events of every tick that produced any.
	OnEvents func(events []Event)

	mu       sync.Mutex
	speed    float64 // 1.0 = real time, 0 = paused
	running  bool
	stop     chan struct{}
	lastStep time.Time
	lastSave time.Time
}

// NewEngine creates a host loop for sim using the simulation's clock.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:      sim,
		Interval: 100 * time.Millisecond,
		Clock:    sim.Clock,
		speed:    1.0,
		stop:     make(chan struct{}),
	}
}

// Run ticks the simulation until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	e.lastStep = e.Clock.Now()
	e.lastSave = e.lastStep
	e.mu.Unlock()

	slog.Info("simulation engine started", "tick", e.Sim.LastTick, "speed", e.Speed(), "interval", e.Interval)

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.halt()
			return
		case <-e.stop:
			e.halt()
			return
		case <-ticker.C:
			e.Advance()
		}
	}
}

func (e *Engine) halt() {
	e.mu.Lock()
	e.running = false
	tick := e.Sim.LastTick
	e.mu.Unlock()
	slog.Info("simulation engine stopped", "tick", tick)
}

// Stop halts Run. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the time multiplier; 0 pauses. Negative values are ignored.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		return
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("simulation speed changed", "speed", speed)
}

// Advance runs one tick covering the wall time since the previous one,
// scaled by speed. Paused time is dropped, not banked.
func (e *Engine) Advance() []Event {
	now := e.Clock.Now()

	e.mu.Lock()
	dt := 0.0
	if !e.lastStep.IsZero() {
		dt = now.Sub(e.lastStep).Seconds() * e.speed
	}
	e.lastStep = now
	if e.speed <= 0 {
		// Keep the save's resume point current so a restart does not
		// credit the pause as offline time.
		e.Sim.LastTickAt = now
		e.mu.Unlock()
		return nil
	}
	events := e.Sim.Tick(dt)

	var rec *snapshot.Record
	if e.OnAutosave != nil && e.AutosaveEvery > 0 && now.Sub(e.lastSave) >= e.AutosaveEvery {
		r := e.Sim.CaptureState()
		rec = &r
		e.lastSave = now
	}
	e.mu.Unlock()

	if len(events) > 0 && e.OnEvents != nil {
		e.OnEvents(events)
	}
	if rec != nil {
		e.OnAutosave(*rec)
	}
	return events
}

// Do runs fn with exclusive access to the simulation, between ticks.
func (e *Engine) Do(fn func(sim *Simulation)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.Sim)
}
