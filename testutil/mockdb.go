package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the state table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		db.Close()
		t.Fatalf("Failed to create state table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// InsertState writes raw key/value pairs into the state table
func InsertState(t *testing.T, db *sql.DB, pairs map[string]string) {
	t.Helper()
	for key, value := range pairs {
		if _, err := db.Exec("INSERT OR REPLACE INTO state (key, value) VALUES (?, ?)", key, value); err != nil {
			t.Fatalf("Failed to insert %s: %v", key, err)
		}
	}
}
