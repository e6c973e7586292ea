package database

// Dialect is the part of the run store's SQL that differs between SQLite and
// PostgreSQL. Queries are written once with ? placeholders and passed through
// a QueryBuilder.
type Dialect interface {
	DriverName() string

	// Placeholder is the bind marker for the 1-based argument position.
	Placeholder(position int) string

	// SupportsLastInsertID reports whether SaveRun reads the new id from
	// sql.Result. When false, inserts carry ReturningClause and the id is scanned.
	SupportsLastInsertID() bool
	ReturningClause(column string) string

	// InitStatements run once per connection before migrations.
	InitStatements() []string

	// AutoIncrementPrimaryKey is the column type of runs.id.
	AutoIncrementPrimaryKey() string

	// IsDuplicateKeyError reports a violation of the unique run index.
	IsDuplicateKeyError(err error) bool
}

// DialectType is the value of database.driver in the config file.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the dialect for t. Anything but "postgres" is SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return &PostgresDialect{}
	}
	return &SQLiteDialect{}
}
