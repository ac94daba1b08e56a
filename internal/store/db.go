package store

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the sqlite database behind one profile's session.db.
type DB struct {
	*sql.DB
}

// Open opens path in WAL mode. The session store is tiny and written
// rarely, so a single connection serializes every writer.
func Open(path string) (*DB, error) {
	opts := url.Values{}
	opts.Set("_journal_mode", "WAL")
	opts.Set("_busy_timeout", "5000")
	opts.Set("_synchronous", "NORMAL")

	db, err := sql.Open("sqlite3", "file:"+path+"?"+opts.Encode())
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open session db %s: %w", path, err)
	}
	return &DB{DB: db}, nil
}
