package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/bignum"
)

func TestEncodeDecode(t *testing.T) {
	unlocked := true
	rec := Record{
		SavedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Tick:    99,
		Ledger: LedgerRecord{
			Balances: map[string]Pair{"coins": PairOf(bignum.New(1.5, 400))},
			Lifetime: map[string]Pair{"coins": PairOf(bignum.New(2, 400))},
		},
		Generators: LevelsRecord{Entries: map[string]LevelEntry{"miner": {Level: 4, Unlocked: &unlocked}}},
		Event:      EventRecord{ActiveID: "gold_rush", Remaining: 12.5},
		MapNodes:   MapRecord{Unlocked: []string{"camp"}},
	}

	data, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, LedgerVersion, got.Ledger.Version)
	assert.Equal(t, uint64(99), got.Tick)
	assert.True(t, rec.SavedAt.Equal(got.SavedAt))
	assert.Equal(t, bignum.New(1.5, 400), got.Ledger.Balances["coins"].Number())
	assert.Equal(t, 4, got.Generators.Entries["miner"].Level)
	require.NotNil(t, got.Generators.Entries["miner"].Unlocked)
	assert.Equal(t, "gold_rush", got.Event.ActiveID)
	assert.Equal(t, []string{"camp"}, got.MapNodes.Unlocked)
}

func TestPair_Renormalizes(t *testing.T) {
	p := Pair{M: 2500, E: 1}
	assert.Equal(t, bignum.New(2.5, 4), p.Number())
	assert.True(t, Pair{M: 0, E: 17}.Number().IsZero())
}

func TestDecode_MigratesV1(t *testing.T) {
	legacy := `{
		"version": 1,
		"saved_at": "2026-01-02T03:04:05Z",
		"balances": {"coins": 1234.5},
		"lifetime": {"coins": 99999},
		"meta": {"stardust": 3},
		"generators": {"miner": 7},
		"upgrades": {"sharp_picks": 2},
		"active_event": "gold_rush",
		"event_remaining": 30,
		"map_nodes": ["camp", "harbor"]
	}`
	rec, err := Decode([]byte(legacy))
	require.NoError(t, err)

	assert.Equal(t, Version, rec.Version)
	assert.InDelta(t, 1234.5, rec.Ledger.Balances["coins"].Number().Float(), 1e-9)
	assert.InDelta(t, 99999, rec.Ledger.Lifetime["coins"].Number().Float(), 1e-9)
	assert.InDelta(t, 3, rec.Meta.Balances["stardust"].Number().Float(), 1e-12)
	assert.Equal(t, 7, rec.Generators.Entries["miner"].Level)
	assert.Nil(t, rec.Generators.Entries["miner"].Unlocked)
	assert.Equal(t, 2, rec.Upgrades.Entries["sharp_picks"].Level)
	assert.Equal(t, "gold_rush", rec.Event.ActiveID)
	assert.Equal(t, []string{"camp", "harbor"}, rec.MapNodes.Unlocked)
	assert.NotNil(t, rec.Prestige.Tiers)
}

func TestDecode_MissingVersionIsV1(t *testing.T) {
	rec, err := Decode([]byte(`{"balances": {"coins": 5}}`))
	require.NoError(t, err)
	assert.InDelta(t, 5, rec.Ledger.Balances["coins"].Number().Float(), 1e-12)
}

func TestDecode_RejectsNewer(t *testing.T) {
	_, err := Decode([]byte(`{"version": 3}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode([]byte(`{"version": 2, "ledger": {"version": 9}}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_MalformedFieldsKeepDefaults(t *testing.T) {
	data := `{
		"version": 2,
		"saved_at": "yesterday",
		"tick": 12,
		"ledger": {"balances": {"gold": {"m": "oops", "e": 3}, "wood": {"m": 5, "e": 2}, "ore": {"m": 1, "e": 2.5}}},
		"generators": {"entries": {"miner": {"level": 4}, "drill": {"level": "many", "unlocked": true}, "saw": {"level": 1, "unlocked": "yes"}}},
		"event": {"active_id": "gold_rush", "remaining_seconds": "soon"},
		"map_nodes": {"unlocked": "camp"},
		"prestige": {"tiers": {"ascend": {"eligible": 1, "count": 2}}}
	}`
	rec, err := Decode([]byte(data))
	require.NoError(t, err)

	assert.True(t, rec.SavedAt.IsZero())
	assert.Equal(t, uint64(12), rec.Tick)
	assert.True(t, rec.Ledger.Balances["gold"].Number().IsZero())
	assert.True(t, rec.Ledger.Balances["ore"].Number().IsZero())
	assert.Equal(t, bignum.New(5, 2), rec.Ledger.Balances["wood"].Number())

	assert.Equal(t, 4, rec.Generators.Entries["miner"].Level)
	drill := rec.Generators.Entries["drill"]
	assert.Equal(t, 0, drill.Level)
	require.NotNil(t, drill.Unlocked)
	assert.True(t, *drill.Unlocked)
	assert.Equal(t, 1, rec.Generators.Entries["saw"].Level)
	assert.Nil(t, rec.Generators.Entries["saw"].Unlocked)

	assert.Equal(t, "gold_rush", rec.Event.ActiveID)
	assert.Zero(t, rec.Event.Remaining)
	assert.Empty(t, rec.MapNodes.Unlocked)
	assert.False(t, rec.Prestige.Tiers["ascend"].Eligible)
	assert.Equal(t, 2, rec.Prestige.Tiers["ascend"].Count)
}

func TestDecode_V1MalformedFieldsKeepDefaults(t *testing.T) {
	rec, err := Decode([]byte(`{"version": 1, "balances": {"coins": 7}, "generators": "lots", "map_nodes": ["camp"]}`))
	require.NoError(t, err)
	assert.InDelta(t, 7, rec.Ledger.Balances["coins"].Number().Float(), 1e-12)
	assert.Empty(t, rec.Generators.Entries)
	assert.Equal(t, []string{"camp"}, rec.MapNodes.Unlocked)

	_, err = Decode([]byte(`{"version": "two"}`))
	assert.Error(t, err)
}
