package database

import "strings"

// SQLiteDialect targets modernc.org/sqlite, the default file-backed store.
type SQLiteDialect struct{}

func (*SQLiteDialect) DriverName() string { return "sqlite" }

func (*SQLiteDialect) Placeholder(int) string { return "?" }

func (*SQLiteDialect) SupportsLastInsertID() bool { return true }

func (*SQLiteDialect) ReturningClause(string) string { return "" }

// InitStatements enables WAL so `history` can read while `serve --save` writes.
func (*SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

func (*SQLiteDialect) AutoIncrementPrimaryKey() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// IsDuplicateKeyError matches on the message; modernc reports constraint
// failures as "constraint failed: UNIQUE constraint failed: runs.<cols>".
func (*SQLiteDialect) IsDuplicateKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
