// Package snapshot defines the versioned save/restore records exchanged
// between the engine modules and a host persistence layer.
//
// Records are plain data: every module captures into its own sub-record and
// restores from it. Nothing here resolves types at load time; older layouts
// go through an explicit migration in Decode.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/talgya/idle-economy/internal/bignum"
)

// Version is the envelope layout written by Encode.
const Version = 2

// Per-module record layouts.
const (
	LedgerVersion   = 1
	LevelsVersion   = 1
	EventVersion    = 1
	MapVersion      = 1
	PrestigeVersion = 1
)

// Pair is a raw mantissa/exponent pair. It may be unnormalized on disk.
type Pair struct {
	M float64 `json:"m"`
	E int     `json:"e"`
}

// PairOf captures n.
func PairOf(n bignum.Number) Pair {
	return Pair{M: n.Mantissa(), E: n.Exponent()}
}

// UnmarshalJSON reads an unreadable mantissa or exponent as a zero pair.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw struct {
		M json.RawMessage `json:"m"`
		E json.RawMessage `json:"e"`
	}
	*p = Pair{}
	if !lenient(data, &raw, "pair") {
		return nil
	}
	var m float64
	var e int
	if !lenient(raw.M, &m, "m") || !lenient(raw.E, &e, "e") {
		return nil
	}
	*p = Pair{M: m, E: e}
	return nil
}

// Number re-normalizes the pair.
func (p Pair) Number() bignum.Number {
	return bignum.New(p.M, p.E)
}

// Record is the complete resumable state.
type Record struct {
	Version    int            `json:"version"`
	SavedAt    time.Time      `json:"saved_at"` // last tick, basis for the offline gap
	Tick       uint64         `json:"tick"`
	Ledger     LedgerRecord   `json:"ledger"`
	Meta       LedgerRecord   `json:"meta"`
	Generators LevelsRecord   `json:"generators"`
	Upgrades   LevelsRecord   `json:"upgrades"`
	Event      EventRecord    `json:"event"`
	MapNodes   MapRecord      `json:"map_nodes"`
	Prestige   PrestigeRecord `json:"prestige"`
}

type LedgerRecord struct {
	Version  int             `json:"version"`
	Balances map[string]Pair `json:"balances"`
	Lifetime map[string]Pair `json:"lifetime"`
}

type LevelsRecord struct {
	Version int                   `json:"version"`
	Entries map[string]LevelEntry `json:"entries"`
}

// LevelEntry is one generator or upgrade. A nil Unlocked means "use the
// definition's default".
type LevelEntry struct {
	Level    int   `json:"level"`
	Unlocked *bool `json:"unlocked,omitempty"`
}

func (l *LevelEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Level    json.RawMessage `json:"level"`
		Unlocked json.RawMessage `json:"unlocked"`
	}
	*l = LevelEntry{}
	if !lenient(data, &raw, "level entry") {
		return nil
	}
	lenient(raw.Level, &l.Level, "level")
	var unlocked *bool
	if lenient(raw.Unlocked, &unlocked, "unlocked") {
		l.Unlocked = unlocked
	}
	return nil
}

type EventRecord struct {
	Version   int     `json:"version"`
	ActiveID  string  `json:"active_id,omitempty"`
	Remaining float64 `json:"remaining_seconds,omitempty"`
}

type MapRecord struct {
	Version  int      `json:"version"`
	Unlocked []string `json:"unlocked"`
}

type PrestigeRecord struct {
	Version int                  `json:"version"`
	Tiers   map[string]TierEntry `json:"tiers"`
}

type TierEntry struct {
	Eligible bool `json:"eligible"`
	Count    int  `json:"count"`
}

func (t *TierEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Eligible json.RawMessage `json:"eligible"`
		Count    json.RawMessage `json:"count"`
	}
	*t = TierEntry{}
	if !lenient(data, &raw, "prestige tier") {
		return nil
	}
	lenient(raw.Eligible, &t.Eligible, "eligible")
	lenient(raw.Count, &t.Count, "count")
	return nil
}
