package pressfront

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotStore persists the last successful upstream response per cache
// key so a cold process can serve stale content while WordPress is down.
type SnapshotStore struct {
	db *sql.DB
}

// OpenSnapshotStore opens (or creates) the SQLite database at path, ensures
// the data directory exists, and creates the snapshots table.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a write-through is in flight; the busy
	// timeout makes concurrent writers wait instead of failing.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SnapshotStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func (s *SnapshotStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    fetched_at INTEGER NOT NULL
);
`)
	return err
}

// Save stores v as JSON under key, replacing any previous snapshot.
func (s *SnapshotStore) Save(ctx context.Context, key string, v any, fetchedAt time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (key, payload, fetched_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, fetchedAt.Unix())
	return err
}

// Load decodes the snapshot stored under key into v. ok is false when no
// snapshot exists.
func (s *SnapshotStore) Load(ctx context.Context, key string, v any) (fetchedAt time.Time, ok bool, err error) {
	var payload []byte
	var unix int64
	err = s.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM snapshots WHERE key = ?`, key).Scan(&payload, &unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0), true, nil
}

// Prune deletes snapshots fetched before cutoff and returns how many were removed.
func (s *SnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
