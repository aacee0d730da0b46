//go:build native_sqlite
// +build native_sqlite

package docstore

import (
	_ "modernc.org/sqlite"
)

const SQLiteDriverName = "sqlite"

const sqliteWriteParams = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
