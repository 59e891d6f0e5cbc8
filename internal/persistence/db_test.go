package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/snapshot"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(tick uint64, coins bignum.Number) snapshot.Record {
	return snapshot.Record{
		SavedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(tick) * time.Second),
		Tick:    tick,
		Ledger: snapshot.LedgerRecord{
			Balances: map[string]snapshot.Pair{"coins": snapshot.PairOf(coins)},
			Lifetime: map[string]snapshot.Pair{"coins": snapshot.PairOf(coins)},
		},
		Generators: snapshot.LevelsRecord{Entries: map[string]snapshot.LevelEntry{"miner": {Level: 12}}},
		MapNodes:   snapshot.MapRecord{Unlocked: []string{"camp"}},
	}
}

func TestSaveLoadLatest(t *testing.T) {
	db := openTestDB(t)

	_, err := db.SaveSnapshot("main", testRecord(1, bignum.FromFloat(10)))
	require.NoError(t, err)
	id, err := db.SaveSnapshot("main", testRecord(2, bignum.New(4.5, 720)))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	rec, err := db.LoadLatest("main")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Version, rec.Version)
	assert.Equal(t, uint64(2), rec.Tick)
	assert.Equal(t, bignum.New(4.5, 720), rec.Ledger.Balances["coins"].Number())
	assert.Equal(t, 12, rec.Generators.Entries["miner"].Level)
	assert.Equal(t, []string{"camp"}, rec.MapNodes.Unlocked)
	assert.True(t, rec.SavedAt.Equal(testRecord(2, bignum.Zero).SavedAt))

	latest, err := db.GetMeta("latest:main")
	require.NoError(t, err)
	assert.Equal(t, id, latest)
}

func TestLoadLatest_EmptySlot(t *testing.T) {
	db := openTestDB(t)
	_, err := db.SaveSnapshot("other", testRecord(1, bignum.FromFloat(1)))
	require.NoError(t, err)

	_, err = db.LoadLatest("main")
	assert.ErrorIs(t, err, ErrNoSave)

	_, err = db.Load("missing-id")
	assert.ErrorIs(t, err, ErrNoSave)
}

func TestLoad_DetectsCorruption(t *testing.T) {
	db := openTestDB(t)
	id, err := db.SaveSnapshot("main", testRecord(1, bignum.FromFloat(10)))
	require.NoError(t, err)

	_, err = db.conn.Exec("UPDATE saves SET payload = ? WHERE id = ?", []byte("garbage"), id)
	require.NoError(t, err)

	_, err = db.LoadLatest("main")
	assert.ErrorIs(t, err, ErrChecksum)
	_, err = db.Load(id)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestListAndPrune(t *testing.T) {
	db := openTestDB(t)
	for tick := uint64(1); tick <= 5; tick++ {
		_, err := db.SaveSnapshot("main", testRecord(tick, bignum.FromFloat(float64(tick))))
		require.NoError(t, err)
	}
	_, err := db.SaveSnapshot("alt", testRecord(9, bignum.FromFloat(9)))
	require.NoError(t, err)

	saves, err := db.ListSaves("main")
	require.NoError(t, err)
	require.Len(t, saves, 5)
	assert.Equal(t, uint64(5), saves[0].Tick, "newest first")
	assert.Equal(t, "main", saves[0].Slot)
	assert.Equal(t, snapshot.Version, saves[0].Version)
	assert.Len(t, saves[0].Checksum, 64)
	assert.Positive(t, saves[0].Size)
	assert.True(t, saves[0].SavedAt.Equal(testRecord(5, bignum.Zero).SavedAt))

	removed, err := db.Prune("main", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	saves, err = db.ListSaves("main")
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, uint64(5), saves[0].Tick)
	assert.Equal(t, uint64(4), saves[1].Tick)

	alt, err := db.ListSaves("alt")
	require.NoError(t, err)
	assert.Len(t, alt, 1, "other slots untouched")

	rec, err := db.Load(saves[1].ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), rec.Tick)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetMeta("speed")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, db.SetMeta("speed", "2"))
	require.NoError(t, db.SetMeta("speed", "3"))
	v, err := db.GetMeta("speed")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestCompressRoundTrip(t *testing.T) {
	src := []byte(`{"version":2,"ledger":{"balances":{"coins":{"m":1.5,"e":12}}}}`)
	packed, err := compress(src)
	require.NoError(t, err)
	out, err := decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}
