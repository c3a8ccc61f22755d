// Package core wires the storage backends behind a single environment-driven
// factory.
package core

import (
	"context"
	"fmt"
	"os"

	"labstock/internal/infra/persistence/memory"
	"labstock/internal/infra/persistence/postgres"
	"labstock/internal/infra/persistence/sqlite"
	"labstock/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	LABSTOCK_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	LABSTOCK_SQLITE_PATH: path to sqlite file (default ./labstock.db)
//	LABSTOCK_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(ctx context.Context) (domain.PersistentStore, error) {
	driver := os.Getenv("LABSTOCK_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("LABSTOCK_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(ctx, os.Getenv("LABSTOCK_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
