package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/idle-economy/internal/bignum"
)

// ErrUnsupportedVersion is returned for records newer than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Encode stamps the current versions and serializes rec.
func Encode(rec Record) ([]byte, error) {
	rec.Version = Version
	rec.Ledger.Version = LedgerVersion
	rec.Meta.Version = LedgerVersion
	rec.Generators.Version = LevelsVersion
	rec.Upgrades.Version = LevelsVersion
	rec.Event.Version = EventVersion
	rec.MapNodes.Version = MapVersion
	rec.Prestige.Version = PrestigeVersion
	return json.Marshal(rec)
}

// Decode parses any known layout and migrates it to the current Record.
// A missing envelope version is read as version 1. A field that cannot be
// read keeps its default and the rest of the record is still returned; only
// input that is not a JSON object, or whose version is unreadable or too
// new, is an error.
func Decode(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("decode snapshot header: %w", err)
	}
	var version int
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return Record{}, fmt.Errorf("decode snapshot version: %w", err)
		}
	}

	switch {
	case version <= 1:
		var old recordV1
		decodeFields(raw, []field{
			{"saved_at", &old.SavedAt},
			{"balances", &old.Balances},
			{"lifetime", &old.Lifetime},
			{"meta", &old.Meta},
			{"generators", &old.Generators},
			{"upgrades", &old.Upgrades},
			{"active_event", &old.ActiveEvent},
			{"event_remaining", &old.EventRemaining},
			{"map_nodes", &old.MapNodes},
		})
		return migrateV1(old), nil
	case version == Version:
		rec := Record{Version: Version}
		decodeFields(raw, []field{
			{"saved_at", &rec.SavedAt},
			{"tick", &rec.Tick},
			{"ledger", &rec.Ledger},
			{"meta", &rec.Meta},
			{"generators", &rec.Generators},
			{"upgrades", &rec.Upgrades},
			{"event", &rec.Event},
			{"map_nodes", &rec.MapNodes},
			{"prestige", &rec.Prestige},
		})
		if err := checkModuleVersions(rec); err != nil {
			return Record{}, err
		}
		return rec, nil
	}
	return Record{}, fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, version, Version)
}

type field struct {
	name string
	dst  any
}

func decodeFields(raw map[string]json.RawMessage, fields []field) {
	for _, f := range fields {
		lenient(raw[f.name], f.dst, f.name)
	}
}

// lenient decodes raw into dst and reports whether it could. Absent input
// counts as success. On a type mismatch dst keeps whatever was readable.
func lenient(raw json.RawMessage, dst any, name string) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Debug("snapshot field unreadable, using default", "field", name, "error", err)
		return false
	}
	return true
}

func checkModuleVersions(rec Record) error {
	modules := []struct {
		name      string
		got, want int
	}{
		{"ledger", rec.Ledger.Version, LedgerVersion},
		{"meta", rec.Meta.Version, LedgerVersion},
		{"generators", rec.Generators.Version, LevelsVersion},
		{"upgrades", rec.Upgrades.Version, LevelsVersion},
		{"event", rec.Event.Version, EventVersion},
		{"map_nodes", rec.MapNodes.Version, MapVersion},
		{"prestige", rec.Prestige.Version, PrestigeVersion},
	}
	for _, m := range modules {
		if m.got > m.want {
			return fmt.Errorf("%w: %s record version %d (max %d)", ErrUnsupportedVersion, m.name, m.got, m.want)
		}
	}
	return nil
}

// recordV1 is the first save layout: float balances and bare levels.
type recordV1 struct {
	Version        int                `json:"version"`
	SavedAt        time.Time          `json:"saved_at"`
	Balances       map[string]float64 `json:"balances"`
	Lifetime       map[string]float64 `json:"lifetime"`
	Meta           map[string]float64 `json:"meta"`
	Generators     map[string]int     `json:"generators"`
	Upgrades       map[string]int     `json:"upgrades"`
	ActiveEvent    string             `json:"active_event"`
	EventRemaining float64            `json:"event_remaining"`
	MapNodes       []string           `json:"map_nodes"`
}

func migrateV1(old recordV1) Record {
	pairs := func(in map[string]float64) map[string]Pair {
		out := make(map[string]Pair, len(in))
		for id, v := range in {
			out[id] = PairOf(bignum.FromFloat(v))
		}
		return out
	}
	levels := func(in map[string]int) LevelsRecord {
		rec := LevelsRecord{Version: LevelsVersion, Entries: make(map[string]LevelEntry, len(in))}
		for id, lvl := range in {
			rec.Entries[id] = LevelEntry{Level: lvl}
		}
		return rec
	}

	return Record{
		Version:    Version,
		SavedAt:    old.SavedAt,
		Ledger:     LedgerRecord{Version: LedgerVersion, Balances: pairs(old.Balances), Lifetime: pairs(old.Lifetime)},
		Meta:       LedgerRecord{Version: LedgerVersion, Balances: pairs(old.Meta), Lifetime: map[string]Pair{}},
		Generators: levels(old.Generators),
		Upgrades:   levels(old.Upgrades),
		Event:      EventRecord{Version: EventVersion, ActiveID: old.ActiveEvent, Remaining: old.EventRemaining},
		MapNodes:   MapRecord{Version: MapVersion, Unlocked: old.MapNodes},
		Prestige:   PrestigeRecord{Version: PrestigeVersion, Tiers: map[string]TierEntry{}},
	}
}
