package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported SQL dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// SQLStore handles all relational database operations.
// Postgres is used for postgres:// URLs, SQLite for anything else.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// DialectFor returns the driver name for a database URL.
func DialectFor(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// NewSQLStore opens a connection, creates the schema and returns a store instance.
func NewSQLStore(ctx context.Context, databaseURL string) (*SQLStore, error) {
	dialect := DialectFor(databaseURL)
	db, err := sql.Open(dialect, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect returns the driver name in use.
func (s *SQLStore) Dialect() string {
	return s.dialect
}

func (s *SQLStore) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.dialect == DialectPostgres {
		schema = postgresSchema
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// rebind rewrites '?' placeholders to '$n' for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
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

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS identities (
	id            BIGSERIAL PRIMARY KEY,
	display_name  TEXT NOT NULL,
	external_id   TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	embedding     BYTEA NOT NULL,
	document_path TEXT,
	last_modified TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ratings (
	id          BIGSERIAL PRIMARY KEY,
	external_id TEXT NOT NULL,
	score       INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          BIGSERIAL PRIMARY KEY,
	identity_id TEXT NOT NULL,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	details     JSONB,
	ip          TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS identities (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	display_name  TEXT NOT NULL,
	external_id   TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	embedding     BLOB NOT NULL,
	document_path TEXT,
	last_modified DATETIME,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ratings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT NOT NULL,
	score       INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	identity_id TEXT NOT NULL,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	details     TEXT,
	ip          TEXT,
	user_agent  TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
