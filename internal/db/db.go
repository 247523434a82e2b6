package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Database pairs a connection pool with the SQL dialect it speaks.
type Database struct {
	*sql.DB
	Dialect Dialect
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// Open picks the driver from the DSN: postgres URLs or key/value strings go to
// lib/pq, anything else is treated as a sqlite file path.
func Open(dsn string) (*Database, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database DSN not set")
	}
	if IsPostgresDSN(dsn) {
		database, err := OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return &Database{DB: database, Dialect: DialectPostgres}, nil
	}
	database, err := OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	return &Database{DB: database, Dialect: DialectSQLite}, nil
}

// Rebind rewrites `?` placeholders into `$n` for postgres.
func (d *Database) Rebind(query string) string {
	return Rebind(d.Dialect, query)
}

func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
