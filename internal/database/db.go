// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DatabaseProfile defines different configuration profiles for databases
type DatabaseProfile string

const (
	// ProfileReadOnly - Reader of a database owned by another process
	ProfileReadOnly DatabaseProfile = "readonly"
	// ProfileStandard - Balanced read/write configuration (fixtures, tooling)
	ProfileStandard DatabaseProfile = "standard"
)

// ErrNotFound is returned when a read-only database file does not exist.
var ErrNotFound = errors.New("database file not found")

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string // Database name for logging
}

// Config holds database configuration
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string // Friendly name for logging (e.g., "meals")
}

// New opens a database connection configured for the given profile.
// A read-only database must already exist; a standard one is created on demand.
func New(cfg Config) (*DB, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
	}
	cfg.Path = absPath

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	if cfg.Profile == ProfileReadOnly {
		if _, err := os.Stat(cfg.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, cfg.Path)
			}
			return nil, fmt.Errorf("failed to stat database %s: %w", cfg.Name, err)
		}
	} else if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildConnectionString creates SQLite connection string with profile-specific PRAGMAs
func buildConnectionString(path string, profile DatabaseProfile) string {
	connStr := path + "?_pragma=busy_timeout(5000)"

	switch profile {
	case ProfileReadOnly:
		// Never write to a database another process owns
		connStr += "&_pragma=query_only(1)"

	case ProfileStandard:
		connStr += "&_pragma=journal_mode(WAL)"
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=foreign_keys(1)"
	}

	return connStr
}

// configureConnectionPool sets up the connection pool. A sync run is short-lived
// and sequential, so one connection is enough.
func configureConnectionPool(conn *sql.DB, profile DatabaseProfile) {
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if profile == ProfileStandard {
		conn.SetMaxOpenConns(4)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying *sql.DB
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the friendly name of the database
func (db *DB) Name() string {
	return db.name
}

// Profile returns the database profile
func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

// Path returns the absolute database file path
func (db *DB) Path() string {
	return db.path
}

// ExecContext executes a statement
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// TableExists reports whether a table with the given name exists.
func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s in %s: %w", table, db.name, err)
	}
	return n > 0, nil
}
