package engine

import (
	"log/slog"

	"github.com/talgya/idle-economy/internal/economy"
	"github.com/talgya/idle-economy/internal/snapshot"
)

// CaptureState returns everything needed to resume. SavedAt is the time of
// the last tick, or now if the simulation has never ticked.
func (s *Simulation) CaptureState() snapshot.Record {
	saved := s.LastTickAt
	if saved.IsZero() {
		saved = s.Clock.Now()
	}
	rec := snapshot.Record{
		Version:    snapshot.Version,
		SavedAt:    saved,
		Tick:       s.LastTick,
		Ledger:     s.Ledger.CaptureState(),
		Meta:       s.Meta.CaptureState(),
		Generators: snapshot.LevelsRecord{Version: snapshot.LevelsVersion, Entries: map[string]snapshot.LevelEntry{}},
		Upgrades:   snapshot.LevelsRecord{Version: snapshot.LevelsVersion, Entries: map[string]snapshot.LevelEntry{}},
		Event:      snapshot.EventRecord{Version: snapshot.EventVersion},
		MapNodes:   snapshot.MapRecord{Version: snapshot.MapVersion, Unlocked: s.nodes.ids()},
		Prestige:   snapshot.PrestigeRecord{Version: snapshot.PrestigeVersion, Tiers: map[string]snapshot.TierEntry{}},
	}
	for _, g := range s.Generators {
		unlocked := g.Unlocked
		rec.Generators.Entries[g.Def.ID] = snapshot.LevelEntry{Level: g.Level, Unlocked: &unlocked}
	}
	for _, u := range s.Upgrades {
		unlocked := u.Unlocked
		rec.Upgrades.Entries[u.Def.ID] = snapshot.LevelEntry{Level: u.Level, Unlocked: &unlocked}
	}
	if s.active != nil {
		rec.Event.ActiveID = s.active.def.ID
		rec.Event.Remaining = s.active.remaining
	}
	for _, t := range s.tiers {
		rec.Prestige.Tiers[t.def.ID] = snapshot.TierEntry{Eligible: t.eligible, Count: t.count}
	}
	return rec
}

// RestoreState replaces all runtime state with rec. Missing entries fall
// back to defaults: zero balances, level 0, the definition's default unlock
// flag and the starting map nodes. Ids the catalog no longer defines are
// dropped.
func (s *Simulation) RestoreState(rec snapshot.Record) {
	s.Ledger.RestoreState(rec.Ledger)
	s.Meta.RestoreState(rec.Meta)

	for _, g := range s.Generators {
		g.Reset()
		g.Level, g.Unlocked = restoreLevel(rec.Generators.Entries[g.Def.ID], g.Unlocked)
	}
	for _, u := range s.Upgrades {
		u.Reset()
		u.Level, u.Unlocked = restoreLevel(rec.Upgrades.Entries[u.Def.ID], u.Unlocked)
		if u.Def.Capped() {
			u.Level = min(u.Level, u.Def.MaxLevel)
		}
	}
	logUnknown("generator", rec.Generators.Entries, s.genIndex)
	logUnknown("upgrade", rec.Upgrades.Entries, s.upgIndex)

	s.active = nil
	if def, ok := s.eventDefs[rec.Event.ActiveID]; ok && rec.Event.Remaining > 0 {
		s.active = &activeEvent{def: def, remaining: rec.Event.Remaining}
	} else if rec.Event.ActiveID != "" {
		slog.Debug("snapshot event dropped", "event", rec.Event.ActiveID)
	}

	s.nodes.reset()
	for _, id := range rec.MapNodes.Unlocked {
		if _, ok := s.nodes.index[id]; ok {
			s.nodes.unlocked[id] = true
		} else {
			slog.Debug("snapshot map node dropped", "node", id)
		}
	}

	for _, t := range s.tiers {
		entry := rec.Prestige.Tiers[t.def.ID]
		t.eligible = entry.Eligible
		t.count = max(entry.Count, 0)
	}

	s.LastTick = rec.Tick
	s.LastTickAt = rec.SavedAt
	s.refreshRates()
}

// restoreLevel applies a saved entry over a freshly reset entity. Owning a
// level implies having been unlocked.
func restoreLevel(e snapshot.LevelEntry, def bool) (int, bool) {
	level := max(e.Level, 0)
	unlocked := def || level > 0
	if e.Unlocked != nil && *e.Unlocked {
		unlocked = true
	}
	return level, unlocked
}

func logUnknown[T any](kind string, entries map[string]snapshot.LevelEntry, known map[string]T) {
	for id := range entries {
		if _, ok := known[id]; !ok {
			slog.Debug("snapshot entry dropped", "kind", kind, "id", id)
		}
	}
}

var _ economy.NodeReader = (*Simulation)(nil)
var _ economy.BalanceReader = (*Simulation)(nil)
