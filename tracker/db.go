package tracker

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS tracked (
    path        TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL,
    content     BLOB NOT NULL,
    tracked_at  INTEGER NOT NULL,
    saved_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// DefaultDBPath returns the store location under the user's config
// directory, creating the shelf directory if needed.
func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(base, "shelf")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create shelf dir: %w", err)
	}
	return filepath.Join(dir, "shelf.db"), nil
}

// OpenDB opens (or creates) the shelf database at the given path.
// WAL mode and a busy timeout give cross-process single-writer access;
// a second writer blocks up to the timeout, then surfaces Contention.
// busy_timeout and foreign_keys are per-connection state, so they are
// passed in the DSN to reach every connection the pool opens, not just
// the one an Exec happens to land on.
func OpenDB(dbPath string) (*sql.DB, error) {
	l := sub("db")
	l.Info("opening shelf database", "path", dbPath)

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open shelf db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	l := sub("db")
	var version int
	err := db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		// meta table doesn't exist or no row — fresh database
		if _, execErr := db.Exec(schema); execErr != nil {
			return fmt.Errorf("create schema: %w", execErr)
		}
		_, execErr := db.Exec("INSERT INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
		if execErr != nil {
			return fmt.Errorf("set schema version: %w", execErr)
		}
		l.Info("schema created", "version", schemaVersion)
		return nil
	}

	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than this build supports (%d)", version, schemaVersion)
	}
	l.Debug("schema up to date", slog.Int("version", version))
	return nil
}
