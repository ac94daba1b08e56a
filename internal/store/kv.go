package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Put JSON-encodes v under key, replacing any previous value.
func (db *DB) Put(key string, v any) error {
	return put(db, key, v)
}

func put(ex execer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	_, err = ex.Exec(`
		INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Get decodes the value stored under key into v. Reports false when absent.
func (db *DB) Get(key string, v any) (bool, error) {
	raw, ok, err := db.raw(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (db *DB) raw(key string) (string, bool, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Delete removes keys. Missing keys are not an error.
func (db *DB) Delete(keys ...string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM session_kv WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %q: %w", k, err)
		}
	}
	return tx.Commit()
}
