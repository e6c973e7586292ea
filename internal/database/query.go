package database

import "strings"

// QueryBuilder rewrites run-store queries for a dialect.
type QueryBuilder struct {
	dialect Dialect
}

func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build numbers the ? placeholders of query for dialects that need it, so
// "WHERE fingerprint = ? AND created_at = ?" becomes
// "WHERE fingerprint = $1 AND created_at = $2" on PostgreSQL. A ? inside a
// single-quoted literal is not a placeholder.
func (qb *QueryBuilder) Build(query string) string {
	if qb.dialect.Placeholder(1) == "?" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteString(qb.dialect.Placeholder(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// BuildWithReturning is Build for an INSERT whose new column value the caller
// needs back; it appends RETURNING when LastInsertId is unavailable.
func (qb *QueryBuilder) BuildWithReturning(query, column string) string {
	q := qb.Build(query)
	if qb.dialect.SupportsLastInsertID() {
		return q
	}
	return q + qb.dialect.ReturningClause(column)
}
