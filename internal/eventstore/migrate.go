package eventstore

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/repopulse/repopulse/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrateSyncRuns moves the sync-run schema to targetVersion. A negative
// target applies every pending migration, zero rolls everything back, and
// a positive target lands on that exact version in either direction.
func MigrateSyncRuns(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return fmt.Errorf("migrations are not supported for NoneBackend")
	}

	db, _, err := openBackendDB(backend, connStr, GetRunsDBFilePath(), "sync run store")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m, err := newRunsMigrator(backend, db)
	if err != nil {
		return err
	}

	current, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, resolve it manually before migrating again", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if err == migrate.ErrNoChange {
		fmt.Printf("Sync run schema already at version %d, nothing to do\n", current)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate sync run schema: %w", err)
	}

	// After a full rollback Version reports ErrNilVersion and zero,
	// which is exactly the number we want to show.
	landed, _, _ := m.Version()
	fmt.Printf("Sync run schema migrated from version %d to version %d\n", current, landed)
	return nil
}

// newRunsMigrator binds the embedded migration files for the backend's SQL
// dialect to a migrate instance running against db.
func newRunsMigrator(backend schema.DatabaseBackend, db *sql.DB) (*migrate.Migrate, error) {
	var driver database.Driver
	var err error
	switch backend {
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s migration driver: %w", backend, err)
	}

	// Each backend keeps its own migration directory because the DDL
	// dialects diverge (AUTOINCREMENT vs AUTO_INCREMENT vs BIGSERIAL).
	sub, err := fs.Sub(migrationsFS, "migrations/"+migrationDir(backend))
	if err != nil {
		return nil, fmt.Errorf("failed to locate migrations for %s: %w", backend, err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	return migrate.NewWithInstance("iofs", source, "repopulse", driver)
}

// migrationDir maps a backend to its migration subdirectory.
func migrationDir(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "mysql"
	case schema.PostgreSQLBackend:
		return "postgresql"
	default:
		return "sqlite"
	}
}
