// Package testutil holds helpers shared by package tests.
package testutil

import (
	"database/sql"
	"testing"

	"stationdesk-server/internal/migrate"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDB returns an in-memory SQLite database with every migration applied.
// The pool is pinned to one connection so all queries see the same database.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if err := migrate.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// MustExec runs a statement and fails the test on error.
func MustExec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// SeedStation inserts a station row and returns its id.
func SeedStation(t testing.TB, db *sql.DB, id, stationNo, name string) string {
	t.Helper()
	MustExec(t, db, `INSERT INTO stations (id, station_no, name) VALUES (?, ?, ?)`, id, stationNo, name)
	return id
}

// SeedUser inserts a user row with an unusable password hash.
func SeedUser(t testing.TB, db *sql.DB, id, username, role, stationID string) string {
	t.Helper()
	var station any
	if stationID != "" {
		station = stationID
	}
	MustExec(t, db, `INSERT INTO users (id, username, password_hash, role, station_id) VALUES (?, ?, 'x', ?, ?)`,
		id, username, role, station)
	return id
}
