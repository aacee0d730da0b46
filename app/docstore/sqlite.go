// Package docstore opens the SQLite database that holds configurator
// sessions and published charts.
package docstore

import (
	"database/sql"
	"log/slog"
	"path/filepath"
)

const dbFileName = "visualize.db"

// NewSQLiteDB opens visualize.db inside dataDir. A read-only database is
// opened immutable, which is what `visualize validate` uses.
func NewSQLiteDB(dataDir string, readonly bool) (*sql.DB, error) {
	dbPath := filepath.Join(dataDir, dbFileName)
	if readonly {
		dbPath = dbPath + "?mode=ro&immutable=1"
	} else {
		dbPath = dbPath + "?" + sqliteWriteParams
	}
	slog.Info("opening SQLite DB", "dbPath", dbPath, "driver", SQLiteDriverName)
	db, err := sql.Open(SQLiteDriverName, dbPath)
	if err != nil {
		return nil, err
	}
	if !readonly {
		// single writer
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
