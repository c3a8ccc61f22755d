// Package postgres provides a PostgreSQL-backed inventory store that mirrors
// the in-memory semantics and snapshots the full state after every successful
// transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"labstock/internal/infra/persistence/memory"
	"labstock/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/labstock?sslmode=disable"
)

// Store persists state to PostgreSQL while reusing the in-memory
// implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex

	recoveredCorrupt bool
}

// NewStore opens a PostgreSQL-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates from any
// existing snapshot. A malformed snapshot hydrates as defaults, reported via
// RecoveredCorrupt.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS labstock_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM labstock_state WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	// Seed defaults so a payload without a settings object hydrates complete.
	snapshot := domain.Snapshot{Settings: domain.DefaultSettings()}
	if jsonErr := json.Unmarshal(payload, &snapshot); jsonErr != nil {
		s.recoveredCorrupt = true
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.ExportState())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO labstock_state(id, payload) VALUES(1, $1)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`, payload); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots to
// PostgreSQL if the transaction committed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist(ctx)
}

// RecoveredCorrupt reports whether the persisted snapshot was discarded as
// malformed during open.
func (s *Store) RecoveredCorrupt() bool { return s.recoveredCorrupt }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
