package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

const (
	activeSessionIDKey       = "active_session_id"
	activeSessionLastTimeKey = "active_session_last_active_time"
)

// OpenDatabase opens (creating if needed) the state database
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single interactive process; one connection keeps sqlite locking simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return db, nil
}

// SQLitePointerStore keeps the active-session record in a key/value table
type SQLitePointerStore struct {
	db *sql.DB
}

// NewSQLitePointerStore opens the store at path
func NewSQLitePointerStore(path string) (*SQLitePointerStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return &SQLitePointerStore{db: db}, nil
}

// NewSQLitePointerStoreFromDB wraps an already opened database
func NewSQLitePointerStoreFromDB(db *sql.DB) *SQLitePointerStore {
	return &SQLitePointerStore{db: db}
}

// Load reads both keys; a missing key means nothing was stored
func (s *SQLitePointerStore) Load() (ActiveSession, bool, error) {
	pairs, err := QueryState(s.db, activeSessionIDKey, activeSessionLastTimeKey)
	if err != nil {
		return ActiveSession{}, false, err
	}

	id, okID := pairs[activeSessionIDKey]
	rawTime, okTime := pairs[activeSessionLastTimeKey]
	if !okID || !okTime {
		return ActiveSession{}, false, nil
	}

	lastActive, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		return ActiveSession{}, false, fmt.Errorf("invalid %s value %q: %w", activeSessionLastTimeKey, rawTime, err)
	}
	return ActiveSession{SessionID: id, LastActiveTime: lastActive}, true, nil
}

// Save writes both keys in one transaction
func (s *SQLitePointerStore) Save(active ActiveSession) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err = tx.Exec(upsert, activeSessionIDKey, active.SessionID); err != nil {
		return fmt.Errorf("failed to write %s: %w", activeSessionIDKey, err)
	}
	if _, err = tx.Exec(upsert, activeSessionLastTimeKey, strconv.FormatInt(active.LastActiveTime, 10)); err != nil {
		return fmt.Errorf("failed to write %s: %w", activeSessionLastTimeKey, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLitePointerStore) Close() error {
	return s.db.Close()
}

// QueryState returns the values stored for the given keys
func QueryState(db *sql.DB, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		var value string
		err := db.QueryRow("SELECT value FROM state WHERE key = ?", key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		values[key] = value
	}
	return values, nil
}
