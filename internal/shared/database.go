package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Session database pool defaults. The store runs one writer and one polling
// reader per process, so the pool stays small.
const (
	DefaultMaxOpenConns = 2
	DefaultMaxIdleConns = 1
)

// NewDatabase opens the SQLite session database at path and applies the
// connection pool limits; non-positive values fall back to the defaults
// above. The path can be ":memory:" for an in-memory database.
func NewDatabase(path string, maxOpenConns, maxIdleConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = DefaultMaxOpenConns
	}
	if maxIdleConns <= 0 {
		maxIdleConns = DefaultMaxIdleConns
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	return db, nil
}
