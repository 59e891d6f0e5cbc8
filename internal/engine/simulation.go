// Simulation ties together the ledger, generators, upgrades, prestige tiers,
// map nodes and world events, and advances them each tick.
package engine

import (
	"errors"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
	"github.com/talgya/idle-economy/internal/economy"
	"github.com/talgya/idle-economy/internal/entropy"
	"github.com/talgya/idle-economy/internal/snapshot"
)

var (
	ErrUnknownGenerator = errors.New("unknown generator")
	ErrUnknownUpgrade   = errors.New("unknown upgrade")
	ErrUnknownMapNode   = errors.New("unknown map node")
	ErrUnknownPrestige  = errors.New("unknown prestige tier")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrLocked           = errors.New("locked")
	ErrNotEligible      = errors.New("prestige not eligible")
	ErrNoReward         = errors.New("prestige reward is zero")
	ErrEventActive      = errors.New("an event is already active")
	ErrAlreadyUnlocked  = errors.New("already unlocked")
)

// maxRecentEvents bounds the Events history kept for queries.
const maxRecentEvents = 1000

// Simulation holds the complete economy state. It is not safe for concurrent
// use; the host Engine serialises access.
type Simulation struct {
	Config     *config.Config
	Ledger     *economy.Ledger // base economy, reset by prestige
	Meta       *economy.Ledger // prestige currencies, never reset
	Generators []*economy.Generator
	Upgrades   []*economy.Upgrade

	Clock   Clock
	Entropy entropy.Source

	// Preserve decides which upgrades survive a prestige reset.
	Preserve PreservePolicy

	Events     []Event   // recent events, oldest first
	LastTick   uint64    // most recent tick processed
	LastTickAt time.Time // wall time of the most recent tick

	genIndex   map[string]*economy.Generator
	upgIndex   map[string]*economy.Upgrade
	tiers      []*prestigeTier
	tierIndex  map[string]*prestigeTier
	currencies map[string]bool
	nodes      *mapState
	eventDefs  map[string]*config.Event
	active     *activeEvent
}

// NewSimulation builds fresh runtime state from cfg. Clock, Entropy and
// Preserve may be replaced before the first tick.
func NewSimulation(cfg *config.Config) *Simulation {
	s := &Simulation{
		Config:     cfg,
		Ledger:     economy.NewLedger(cfg.Resources),
		Meta:       economy.NewLedger(nil),
		Clock:      RealClock{},
		Entropy:    entropy.Crypto{},
		Preserve:   PreserveRewardCurrency,
		genIndex:   make(map[string]*economy.Generator, len(cfg.Generators)),
		upgIndex:   make(map[string]*economy.Upgrade, len(cfg.Upgrades)),
		tierIndex:  make(map[string]*prestigeTier, len(cfg.Prestige)),
		currencies: make(map[string]bool),
		nodes:      newMapState(cfg.MapNodes),
		eventDefs:  make(map[string]*config.Event, len(cfg.Events)),
	}
	for _, def := range cfg.Generators {
		g := economy.NewGenerator(def)
		s.Generators = append(s.Generators, g)
		s.genIndex[def.ID] = g
	}
	for _, def := range cfg.Upgrades {
		u := economy.NewUpgrade(def)
		s.Upgrades = append(s.Upgrades, u)
		s.upgIndex[def.ID] = u
	}
	for _, def := range cfg.Prestige {
		t := &prestigeTier{def: def}
		s.tiers = append(s.tiers, t)
		s.tierIndex[def.ID] = t
	}
	slices.SortStableFunc(s.tiers, func(a, b *prestigeTier) int { return a.def.Tier - b.def.Tier })
	for _, id := range cfg.Currencies() {
		s.currencies[id] = true
	}
	for i := range cfg.Events {
		s.eventDefs[cfg.Events[i].ID] = &cfg.Events[i]
	}
	s.refreshRates()
	return s
}

// Tick advances the simulation by dt seconds: unlock evaluation, then
// production, then world-event timers, then prestige eligibility.
// Negative or non-finite dt is treated as zero.
func (s *Simulation) Tick(dt float64) []Event {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		dt = 0
	}
	s.LastTick++
	s.LastTickAt = s.Clock.Now()

	var events []Event
	events = append(events, s.evaluateUnlocks()...)
	s.produce(dt)
	events = append(events, s.advanceEvent(dt, true)...)
	events = append(events, s.evaluatePrestige(false)...)

	s.record(events)
	return events
}

// Shutdown captures the final state for the host to persist.
func (s *Simulation) Shutdown() snapshot.Record {
	rec := s.CaptureState()
	slog.Info("simulation shutdown", "tick", s.LastTick, "saved_at", rec.SavedAt.Format(time.RFC3339))
	return rec
}

// wallet returns the ledger holding id: the meta ledger for prestige
// currencies, the base ledger otherwise.
func (s *Simulation) wallet(id string) *economy.Ledger {
	if s.currencies[id] {
		return s.Meta
	}
	return s.Ledger
}

// Balance returns the current amount of a resource or prestige currency.
func (s *Simulation) Balance(id string) bignum.Number {
	return s.wallet(id).Get(id)
}

// Get lets the simulation act as the balance source for unlock conditions.
func (s *Simulation) Get(id string) bignum.Number {
	return s.Balance(id)
}

func (s *Simulation) evaluateUnlocks() []Event {
	var events []Event
	for _, g := range s.Generators {
		if g.Evaluate(s, s) {
			events = append(events, s.newEvent(KindUnlocked, g.Def.ID, g.Def.Name+" is now available", map[string]any{"type": "generator"}))
		}
	}
	for _, u := range s.Upgrades {
		if u.Evaluate(s, s) {
			events = append(events, s.newEvent(KindUnlocked, u.Def.ID, u.Def.Name+" is now available", map[string]any{"type": "upgrade"}))
		}
	}
	return events
}

func (s *Simulation) newEvent(kind, subject, desc string, meta map[string]any) Event {
	return Event{
		Tick:        s.LastTick,
		Kind:        kind,
		Subject:     subject,
		Description: desc,
		Meta:        meta,
	}
}

// record appends to the recent-event history, keeping the last 1000.
func (s *Simulation) record(events []Event) {
	if len(events) == 0 {
		return
	}
	s.Events = append(s.Events, events...)
	if len(s.Events) > maxRecentEvents {
		s.Events = slices.Clone(s.Events[len(s.Events)-maxRecentEvents:])
	}
}
