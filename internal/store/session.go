package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matheus3301/chatwire/internal/domain"
)

// Well-known keys the session is persisted under.
const (
	KeyAccessToken = "access-token"
	KeyUser        = "user"
)

// ErrMalformedSession means a stored value exists but cannot be trusted.
var ErrMalformedSession = errors.New("malformed stored session")

// SaveSession writes both halves of the session in one transaction.
func (db *DB) SaveSession(s domain.Session) error {
	if !s.Valid() {
		return fmt.Errorf("%w: refusing to persist incomplete session", ErrMalformedSession)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := put(tx, KeyAccessToken, s.Credential); err != nil {
		return err
	}
	if err := put(tx, KeyUser, s.Identity); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSession returns the persisted session, or nil when either key is
// missing. A value that does not decode or fails shape validation yields
// ErrMalformedSession.
func (db *DB) LoadSession() (*domain.Session, error) {
	token, okToken, err := db.raw(KeyAccessToken)
	if err != nil {
		return nil, err
	}
	user, okUser, err := db.raw(KeyUser)
	if err != nil {
		return nil, err
	}
	if !okToken || !okUser {
		return nil, nil
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(token), &s.Credential); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSession, KeyAccessToken, err)
	}
	if err := json.Unmarshal([]byte(user), &s.Identity); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSession, KeyUser, err)
	}
	if !s.Valid() {
		return nil, fmt.Errorf("%w: missing identity id or access token", ErrMalformedSession)
	}
	return &s, nil
}

// ClearSession removes both keys. Safe when nothing is stored.
func (db *DB) ClearSession() error {
	return db.Delete(KeyAccessToken, KeyUser)
}
