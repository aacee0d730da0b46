//go:build !native_sqlite
// +build !native_sqlite

package docstore

import (
	_ "github.com/mattn/go-sqlite3"
)

const SQLiteDriverName = "sqlite3"

const sqliteWriteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
