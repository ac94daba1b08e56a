package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matheus3301/chatwire/internal/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testSession() domain.Session {
	return domain.Session{
		Identity:   domain.Identity{ID: "u1", Username: "alice"},
		Credential: domain.Credential{AccessToken: "tok"},
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestMigrateFreshDatabase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	result, err := db.Migrate()
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !result.Changed || result.From != 0 || result.Version != 1 {
		t.Errorf("Migrate() = %+v, want 0 -> 1 changed", result)
	}
}

func TestPutGetDelete(t *testing.T) {
	db := testDB(t)

	type pref struct{ Theme string }
	if err := db.Put("pref", pref{Theme: "dark"}); err != nil {
		t.Fatal(err)
	}
	if err := db.Put("pref", pref{Theme: "light"}); err != nil {
		t.Fatal(err)
	}

	var got pref
	ok, err := db.Get("pref", &got)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got.Theme != "light" {
		t.Errorf("Theme = %q, want light (last write wins)", got.Theme)
	}

	if err := db.Delete("pref", "never-stored"); err != nil {
		t.Fatal(err)
	}
	ok, err = db.Get("pref", &got)
	if err != nil || ok {
		t.Errorf("after Delete: Get() = %v, %v; want false, nil", ok, err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSession(testSession()); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	s, err := db.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if s == nil {
		t.Fatal("LoadSession() = nil, want session")
	}
	if s.Identity.Username != "alice" || s.Credential.AccessToken != "tok" {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoadSessionMissing(t *testing.T) {
	db := testDB(t)

	s, err := db.LoadSession()
	if err != nil || s != nil {
		t.Errorf("empty store: LoadSession() = %v, %v; want nil, nil", s, err)
	}

	if err := db.Put(KeyAccessToken, domain.Credential{AccessToken: "tok"}); err != nil {
		t.Fatal(err)
	}
	s, err = db.LoadSession()
	if err != nil || s != nil {
		t.Errorf("token only: LoadSession() = %v, %v; want nil, nil", s, err)
	}
}

func TestLoadSessionMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
		user  string
	}{
		{"user not json", `{"accessToken":"tok"}`, `{`},
		{"user without id", `{"accessToken":"tok"}`, `{"username":"alice"}`},
		{"token empty", `{"accessToken":""}`, `{"id":"u1"}`},
		{"token wrong shape", `42`, `{"id":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			if _, err := db.Exec(`INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, 0), (?, ?, 0)`,
				KeyAccessToken, tt.token, KeyUser, tt.user); err != nil {
				t.Fatal(err)
			}
			_, err := db.LoadSession()
			if !errors.Is(err, ErrMalformedSession) {
				t.Errorf("LoadSession() error = %v, want ErrMalformedSession", err)
			}
		})
	}
}

func TestSaveSessionRejectsIncomplete(t *testing.T) {
	db := testDB(t)

	s := testSession()
	s.Credential.AccessToken = ""
	if err := db.SaveSession(s); !errors.Is(err, ErrMalformedSession) {
		t.Errorf("SaveSession() error = %v, want ErrMalformedSession", err)
	}
	if got, _ := db.LoadSession(); got != nil {
		t.Errorf("nothing should be stored, got %+v", got)
	}
}

func TestClearSession(t *testing.T) {
	db := testDB(t)

	if err := db.ClearSession(); err != nil {
		t.Fatalf("ClearSession() on empty store error = %v", err)
	}
	if err := db.SaveSession(testSession()); err != nil {
		t.Fatal(err)
	}
	if err := db.ClearSession(); err != nil {
		t.Fatal(err)
	}
	s, err := db.LoadSession()
	if err != nil || s != nil {
		t.Errorf("after clear: LoadSession() = %v, %v", s, err)
	}
}
