// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: storage/sqlite.go
// Summary: SQLite-backed settings store with per-plugin scoping.
// Usage: Open once per process; hand Scope views to each engine instance.

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Bump when schema changes require migration steps.
const settingsSchemaVersion = 1

const settingsSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS settings (
    plugin  TEXT NOT NULL,
    key     TEXT NOT NULL,
    value   TEXT NOT NULL,
    updated INTEGER NOT NULL,     -- UnixNano of the last write
    PRIMARY KEY (plugin, key)
);
`

// DB is the shared settings database. One file holds the settings of every
// plugin; each consumer works through a scoped view so keys stay flat on
// their side.
type DB struct {
	db *sql.DB
}

// Open creates or opens the settings database at path, creating parent
// directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := ensureSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func ensureSchemaVersion(db *sql.DB) error {
	var current int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err == sql.ErrNoRows {
		current = 0
	} else if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current == settingsSchemaVersion {
		return nil
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", settingsSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// Scope returns the settings view for one plugin. Views share the
// underlying handle and stay valid until the DB closes.
func (d *DB) Scope(plugin string) *Scoped {
	return &Scoped{db: d.db, plugin: plugin}
}

// Scoped reads and writes one plugin's settings. Get returns (nil, nil)
// for keys never written.
type Scoped struct {
	db     *sql.DB
	plugin string
}

func (s *Scoped) Get(key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRow(
		"SELECT value FROM settings WHERE plugin = ? AND key = ?",
		s.plugin, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %s/%s: %w", s.plugin, key, err)
	}
	return json.RawMessage(value), nil
}

func (s *Scoped) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s/%s: %w", s.plugin, key, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO settings (plugin, key, value, updated) VALUES (?, ?, ?, ?)",
		s.plugin, key, string(raw), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write setting %s/%s: %w", s.plugin, key, err)
	}
	return nil
}
