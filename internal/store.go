package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// KeyValueStore is the durable backing for the session context. Absent keys
// are reported with ok=false, never as an error.
type KeyValueStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// Delete removes all keys in one operation
	Delete(keys ...string) error
	Close() error
}

// SQLiteStore keeps entries in the session_kv table
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path and returns a store over it
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Get reads a single entry
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session_kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: s.path, Op: "get", Err: err}
	}
	return value, true, nil
}

// Set writes a single entry
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO session_kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Path: s.path, Op: "set", Err: err}
	}
	return nil
}

// Delete removes all keys inside one transaction
func (s *SQLiteStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	for _, key := range keys {
		if _, err := tx.Exec("DELETE FROM session_kv WHERE key = ?", key); err != nil {
			_ = tx.Rollback()
			return &StorageError{Path: s.path, Op: "delete", Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	return nil
}

// Entries lists every stored entry, used by the doctor command
func (s *SQLiteStore) Entries() ([]KeyValuePair, error) {
	return QuerySessionKV(s.db, "%")
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore is a process-local store for tests and ephemeral runs
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get reads a single entry
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

// Set writes a single entry
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// Delete removes keys
func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Keys returns the stored keys in sorted order
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
