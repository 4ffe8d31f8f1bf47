// Kinoteka - Personal Movie Watchlist Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinoteka

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/kinoteka/internal/config"
	"github.com/tomtom215/kinoteka/internal/logging"
)

// DB wraps the SQL connection pool and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	clockMu  sync.Mutex
	clock    func() time.Time
	lastTick time.Time
}

// New opens the configured database and bootstraps the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		conn, err = openPostgres(cfg)
	case config.DriverDuckDB, "":
		conn, err = openDuckDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn, cfg: cfg, clock: time.Now}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.createTables(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().Str("driver", db.Driver()).Msg("Database ready")
	return db, nil
}

func openDuckDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	path := cfg.Path
	if path != ":memory:" && path != "" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	// Extensions are not needed; disabling autoload avoids network access at
	// startup in restricted environments.
	dsn := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

func openPostgres(cfg *config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	maxIdle := db.cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	lifetime := db.cfg.ConnLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(maxIdle)
	db.conn.SetConnMaxLifetime(lifetime)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Driver returns the active driver name.
func (db *DB) Driver() string {
	if db.cfg.Driver == "" {
		return config.DriverDuckDB
	}
	return db.cfg.Driver
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints DuckDB and closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.Driver() == config.DriverDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// now returns a strictly increasing UTC timestamp truncated to the
// microsecond, the precision both engines store. Two writes never share a
// timestamp, so a row whose updated_at equals its created_at was written
// exactly once.
func (db *DB) now() time.Time {
	db.clockMu.Lock()
	defer db.clockMu.Unlock()

	t := db.clock().UTC().Truncate(time.Microsecond)
	if !t.After(db.lastTick) {
		t = db.lastTick.Add(time.Microsecond)
	}
	db.lastTick = t
	return t
}

// ensureContext adds a 30-second timeout to contexts without a deadline.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}
