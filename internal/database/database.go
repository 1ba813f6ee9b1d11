package database

import (
	"database/sql"
	"path/filepath"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// DBPath returns the default location of the navigator's database file
func DBPath() string {
	return filepath.Join("data", "marine-navigator.db")
}

// EnsureSchema creates the key-value table if it does not already exist.
// Existing rows are left untouched.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at);
	`)
	if err != nil {
		return eris.Wrap(err, "creating kv table")
	}
	return nil
}
