package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRun_AppliesAllAndIsIdempotent(t *testing.T) {
	db := openMemory(t)

	if err := Run(db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := Run(db); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	all, err := List(db)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("len(List) = %d, want at least 2", len(all))
	}
	for i, m := range all {
		if !m.Applied {
			t.Errorf("migration %s_%s not applied", m.Version, m.Name)
		}
		if i > 0 && all[i-1].Version >= m.Version {
			t.Errorf("migrations out of order: %s before %s", all[i-1].Version, m.Version)
		}
	}

	pending, err := Pending(db)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Pending = %d, want 0", len(pending))
	}

	for _, table := range []string{"stations", "users", "sessions", "observing_times",
		"first_stage_entries", "second_stage_entries", "daily_summaries",
		"sunshine_records", "soil_moisture_records"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestSchema_ObservingTimeUniquePerStationAndHour(t *testing.T) {
	db := openMemory(t)
	if err := Run(db); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO stations (id, station_no, name) VALUES ('st-1', '41923', 'Dhaka')`); err != nil {
		t.Fatalf("insert station: %v", err)
	}
	insert := `INSERT INTO observing_times (id, station_id, utc_time, local_time) VALUES (?, 'st-1', '2026-10-15T12:00:00Z', '2026-10-15T18:00:00+06:00')`
	if _, err := db.Exec(insert, "ot-1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.Exec(insert, "ot-2"); err == nil {
		t.Fatal("duplicate (station_id, utc_time) accepted")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in      string
		version string
		name    string
		ok      bool
	}{
		{"0001_schema.sql", "0001", "schema", true},
		{"0012_add_index.sql", "0012", "add_index", true},
		{"1_schema.sql", "", "", false},
		{"0001_schema.txt", "", "", false},
		{"README.md", "", "", false},
	}
	for _, tt := range tests {
		v, n, ok := parseMigrationFilename(tt.in)
		if v != tt.version || n != tt.name || ok != tt.ok {
			t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, v, n, ok, tt.version, tt.name, tt.ok)
		}
	}
}
