package core

import (
	"fmt"
	"os"
	"strings"

	"spacecore/internal/infra/persistence/memory"
	"spacecore/internal/infra/persistence/postgres"
	"spacecore/internal/infra/persistence/sqlite"
	"spacecore/pkg/domain"
)

// Storage driver selection environment variables.
const (
	EnvStorageDriver = "SPACECORE_STORAGE_DRIVER"
	EnvSQLitePath    = "SPACECORE_SQLITE_PATH"
	EnvPostgresDSN   = "SPACECORE_POSTGRES_DSN"

	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// OpenPersistentStoreFromEnv selects and opens a persistent store from
// environment configuration, with the default consistency rules registered.
// The memory driver is the default.
func OpenPersistentStoreFromEnv() (domain.PersistentStore, error) {
	engine := NewDefaultRulesEngine()
	driver := strings.TrimSpace(strings.ToLower(os.Getenv(EnvStorageDriver)))
	switch driver {
	case "", StorageDriverMemory:
		return memory.NewStore(engine), nil
	case StorageDriverSQLite:
		path := strings.TrimSpace(os.Getenv(EnvSQLitePath))
		if path == "" {
			path = "spacecore.db"
		}
		return sqlite.NewStore(path, engine)
	case StorageDriverPostgres:
		dsn := strings.TrimSpace(os.Getenv(EnvPostgresDSN))
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
