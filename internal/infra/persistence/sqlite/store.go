// Package sqlite persists the in-memory inventory state to a single SQLite
// table as JSON buckets, snapshotting the full state after every successful
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"labstock/internal/infra/persistence/memory"
	"labstock/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const settingsBucket = "settings"

var buckets = []string{"chemicals", "glassware", "instruments", "misc", settingsBucket}

// Store wraps the in-memory store with write-through SQLite snapshots.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string

	// recoveredCorrupt is set when a persisted payload failed to decode on
	// open and the store hydrated as defaults instead of surfacing an error.
	recoveredCorrupt bool
}

// NewStore opens (or creates) the database at path and hydrates the in-memory
// state from any existing snapshot. A malformed snapshot is treated the same
// as an absent one: the store starts from defaults and RecoveredCorrupt
// reports the discard so the caller can warn.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "labstock.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := map[string][]byte{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	snapshot, ok := decodeSnapshot(payloads)
	if !ok {
		s.recoveredCorrupt = true
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

// decodeSnapshot decodes bucket payloads into a snapshot. Any undecodable
// bucket poisons the whole snapshot; partial hydration would silently drop
// the failed collection while keeping stale neighbours.
func decodeSnapshot(payloads map[string][]byte) (domain.Snapshot, bool) {
	snapshot := domain.Snapshot{Settings: domain.DefaultSettings()}
	for _, c := range domain.Categories {
		payload, found := payloads[string(c)]
		if !found {
			continue
		}
		var items []domain.Item
		if err := json.Unmarshal(payload, &items); err != nil {
			return domain.Snapshot{}, false
		}
		snapshot.SetCollection(c, items)
	}
	if payload, found := payloads[settingsBucket]; found {
		if err := json.Unmarshal(payload, &snapshot.Settings); err != nil {
			return domain.Snapshot{}, false
		}
	}
	return snapshot, true
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		if bucket == settingsBucket {
			data, err = json.Marshal(snapshot.Settings)
		} else {
			data, err = json.Marshal(snapshot.Collection(domain.Category(bucket)))
		}
		if err != nil {
			retErr = fmt.Errorf("encode %s: %w", bucket, err)
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn within a transaction, then snapshots the full
// state to SQLite if the transaction committed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist()
}

// RecoveredCorrupt reports whether the persisted snapshot was discarded as
// malformed during open.
func (s *Store) RecoveredCorrupt() bool { return s.recoveredCorrupt }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
