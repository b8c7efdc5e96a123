package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
	pingTimeout            = 10 * time.Second
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

var (
	tablePlaceholder = regexp.MustCompile(`\{([a-z_]+)\}`)
	validPrefix      = regexp.MustCompile(`^[a-z0-9_]*$`)
)

// Tables resolves LMS table names under a configurable prefix. Queries refer to
// tables as {name}, which expands to <prefix>name.
type Tables struct {
	prefix string
}

func NewTables(prefix string) (Tables, error) {
	if !validPrefix.MatchString(prefix) {
		return Tables{}, fmt.Errorf("invalid table prefix %q", prefix)
	}
	return Tables{prefix: prefix}, nil
}

func (t Tables) expand(query string) string {
	return tablePlaceholder.ReplaceAllString(query, t.prefix+"$1")
}
