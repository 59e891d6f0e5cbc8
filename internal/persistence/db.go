// Package persistence provides SQLite-based snapshot storage for the host process.
// Payloads are JSON snapshot records framed with LZ4 and checksummed with BLAKE3.
package persistence

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/talgya/idle-economy/internal/snapshot"
)

var (
	// ErrNoSave is returned when a slot holds no snapshots.
	ErrNoSave = errors.New("no save found")
	// ErrChecksum is returned when a stored payload does not match its checksum.
	ErrChecksum = errors.New("save checksum mismatch")
)

// DB wraps a SQLite connection for snapshot persistence.
type DB struct {
	conn *sqlx.DB
}

// SaveInfo describes a stored snapshot without its payload.
type SaveInfo struct {
	ID       string    `db:"id" json:"id"`
	Slot     string    `db:"slot" json:"slot"`
	Version  int       `db:"version" json:"version"`
	Tick     uint64    `db:"tick" json:"tick"`
	SavedAt  time.Time `db:"-" json:"saved_at"`
	SavedNs  int64     `db:"saved_at" json:"-"`
	Checksum string    `db:"checksum" json:"checksum"`
	Size     int       `db:"size" json:"size"`
}

type saveRow struct {
	ID       string `db:"id"`
	Checksum string `db:"checksum"`
	Payload  []byte `db:"payload"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		slot TEXT NOT NULL,
		version INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		checksum TEXT NOT NULL,
		size INTEGER NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS save_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_slot ON saves(slot, seq);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot appends a snapshot to the slot and returns its id.
func (db *DB) SaveSnapshot(slot string, rec snapshot.Record) (string, error) {
	data, err := snapshot.Encode(rec)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	payload, err := compress(data)
	if err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}

	id := uuid.NewString()
	sum := checksum(payload)
	savedAt := rec.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO saves
		(id, slot, version, tick, saved_at, checksum, size, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, slot, snapshot.Version, int64(rec.Tick), savedAt.UnixNano(), sum, len(data), payload,
	)
	if err != nil {
		return "", fmt.Errorf("insert save %s: %w", id, err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO save_meta (key, value) VALUES (?, ?)",
		"latest:"+slot, id,
	); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("snapshot saved", "slot", slot, "id", id, "tick", rec.Tick, "bytes", len(payload))
	return id, nil
}

// LoadLatest returns the most recent snapshot in the slot.
func (db *DB) LoadLatest(slot string) (snapshot.Record, error) {
	var row saveRow
	err := db.conn.Get(&row,
		"SELECT id, checksum, payload FROM saves WHERE slot = ? ORDER BY seq DESC LIMIT 1",
		slot,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Record{}, fmt.Errorf("slot %q: %w", slot, ErrNoSave)
	}
	if err != nil {
		return snapshot.Record{}, fmt.Errorf("load latest: %w", err)
	}
	return db.decode(row)
}

// Load returns the snapshot with the given id.
func (db *DB) Load(id string) (snapshot.Record, error) {
	var row saveRow
	err := db.conn.Get(&row, "SELECT id, checksum, payload FROM saves WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Record{}, fmt.Errorf("save %s: %w", id, ErrNoSave)
	}
	if err != nil {
		return snapshot.Record{}, fmt.Errorf("load save %s: %w", id, err)
	}
	return db.decode(row)
}

func (db *DB) decode(row saveRow) (snapshot.Record, error) {
	if checksum(row.Payload) != row.Checksum {
		return snapshot.Record{}, fmt.Errorf("save %s: %w", row.ID, ErrChecksum)
	}
	data, err := decompress(row.Payload)
	if err != nil {
		return snapshot.Record{}, fmt.Errorf("decompress save %s: %w", row.ID, err)
	}
	rec, err := snapshot.Decode(data)
	if err != nil {
		return snapshot.Record{}, fmt.Errorf("decode save %s: %w", row.ID, err)
	}
	slog.Info("snapshot loaded", "id", row.ID, "tick", rec.Tick, "saved_at", rec.SavedAt)
	return rec, nil
}

// ListSaves returns the slot's snapshots, newest first.
func (db *DB) ListSaves(slot string) ([]SaveInfo, error) {
	var saves []SaveInfo
	err := db.conn.Select(&saves,
		`SELECT id, slot, version, tick, saved_at, checksum, size
		FROM saves WHERE slot = ? ORDER BY seq DESC`,
		slot,
	)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	for i := range saves {
		saves[i].SavedAt = time.Unix(0, saves[i].SavedNs).UTC()
	}
	return saves, nil
}

// Prune deletes all but the newest keep snapshots in the slot and
// returns how many were removed.
func (db *DB) Prune(slot string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := db.conn.Exec(`DELETE FROM saves WHERE slot = ? AND seq NOT IN (
		SELECT seq FROM saves WHERE slot = ? ORDER BY seq DESC LIMIT ?)`,
		slot, slot, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", slot, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Debug("pruned saves", "slot", slot, "removed", n, "kept", keep)
	}
	return n, nil
}

// SetMeta stores a key-value pair.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO save_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. Missing keys return "" and sql.ErrNoRows.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM save_meta WHERE key = ?", key)
	return value, err
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	return io.ReadAll(zr)
}

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
