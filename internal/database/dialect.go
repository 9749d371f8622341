package database

import (
	"strconv"
	"strings"
)

// Dialect hides the SQL differences between the supported drivers
type Dialect interface {
	Name() string
	// Rebind rewrites ? placeholders into the driver's own form
	Rebind(query string) string
	AutoIncrement() string
	FloatType() string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string               { return "sqlite" }
func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) AutoIncrement() string      { return "INTEGER PRIMARY KEY AUTOINCREMENT" }
func (sqliteDialect) FloatType() string          { return "REAL" }

type postgresDialect struct{}

func (postgresDialect) Name() string          { return "postgres" }
func (postgresDialect) AutoIncrement() string { return "BIGSERIAL PRIMARY KEY" }
func (postgresDialect) FloatType() string     { return "DOUBLE PRECISION" }

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
