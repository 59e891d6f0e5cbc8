package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
	"github.com/talgya/idle-economy/internal/entropy"
)

// Event kinds.
const (
	KindUnlocked            = "unlocked"
	KindPurchase            = "purchase"
	KindPrestigeEligibility = "prestige_eligibility"
	KindPrestige            = "prestige"
	KindEventStarted        = "event_started"
	KindEventEnded          = "event_ended"
	KindMapNodeUnlocked     = "map_node_unlocked"
	KindOfflineProgress     = "offline_progress"
)

// Event is a state change returned to the host for dispatch.
type Event struct {
	Tick        uint64         `json:"tick"`
	Kind        string         `json:"kind"`
	Subject     string         `json:"subject,omitempty"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}

type activeEvent struct {
	def       *config.Event
	remaining float64 // seconds
}

// ActiveEventView describes the running world event.
type ActiveEventView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Remaining  float64 `json:"remaining_seconds"`
}

// ActiveEvent returns the running world event, if any.
func (s *Simulation) ActiveEvent() (ActiveEventView, bool) {
	if s.active == nil {
		return ActiveEventView{}, false
	}
	return ActiveEventView{
		ID:         s.active.def.ID,
		Name:       s.active.def.Name,
		Multiplier: s.EventMultiplier().Float(),
		Remaining:  s.active.remaining,
	}, true
}

// EventMultiplier is the active event's production factor, or 1.
// Non-positive multipliers are neutral.
func (s *Simulation) EventMultiplier() bignum.Number {
	if s.active == nil || s.active.def.Multiplier <= 0 {
		return bignum.One
	}
	return bignum.FromFloat(s.active.def.Multiplier)
}

// StartEvent activates a world event immediately.
func (s *Simulation) StartEvent(id string) ([]Event, error) {
	def, ok := s.eventDefs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	if s.active != nil {
		return nil, fmt.Errorf("%w: %s", ErrEventActive, s.active.def.ID)
	}
	events := []Event{s.beginEvent(def)}
	s.record(events)
	return events, nil
}

func (s *Simulation) beginEvent(def *config.Event) Event {
	s.active = &activeEvent{def: def, remaining: def.DurationSeconds}
	slog.Info("world event started", "event", def.ID, "duration", def.DurationSeconds, "multiplier", def.Multiplier)
	return s.newEvent(KindEventStarted, def.ID, def.Name+" has begun", map[string]any{
		"multiplier": def.Multiplier,
		"duration":   def.DurationSeconds,
	})
}

// advanceEvent counts down the active event by dt seconds and, when roll is
// set and nothing is active, rolls for a new one. The chance over dt is
// 1 − exp(−rate·dt), so frequency does not depend on tick size.
func (s *Simulation) advanceEvent(dt float64, roll bool) []Event {
	var events []Event
	if s.active != nil {
		s.active.remaining -= dt
		if s.active.remaining <= 0 {
			def := s.active.def
			s.active = nil
			slog.Info("world event ended", "event", def.ID)
			events = append(events, s.newEvent(KindEventEnded, def.ID, def.Name+" has ended", nil))
		}
	}
	if !roll || s.active != nil || dt <= 0 || len(s.Config.Events) == 0 {
		return events
	}

	rate := s.Config.Balance.EventRatePerHour / 3600
	if rate <= 0 {
		return events
	}
	p := 1 - math.Exp(-rate*dt)
	if s.Entropy.Float() >= p {
		return events
	}

	weights := make([]float64, len(s.Config.Events))
	for i, e := range s.Config.Events {
		weights[i] = e.Weight
	}
	if i := entropy.Pick(s.Entropy, weights); i >= 0 {
		events = append(events, s.beginEvent(&s.Config.Events[i]))
	}
	return events
}
