package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/chatwire/internal/config"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/lock"
	"github.com/matheus3301/chatwire/internal/profile"
	"github.com/matheus3301/chatwire/internal/status"
	"github.com/matheus3301/chatwire/internal/store"
)

func testParams(t *testing.T) Params {
	t.Helper()
	t.Setenv("CHATWIRE_HOME", t.TempDir())
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL
	cfg.Server.PushURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	cfg.Push.ReconnectAttempts = 0
	return Params{Profile: "test", Config: cfg, Quiet: true}
}

func TestModuleValidates(t *testing.T) {
	if err := fx.ValidateApp(Module(testParams(t)), fx.NopLogger); err != nil {
		t.Fatalf("ValidateApp() error = %v", err)
	}
}

func TestLifecycleWithoutSession(t *testing.T) {
	var a *App
	fxApp := fx.New(Module(testParams(t)), fx.NopLogger, fx.Populate(&a))
	if err := fxApp.Err(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := a.Coordinator.Status(); got != status.Unauthenticated {
		t.Errorf("coordinator status = %s, want UNAUTHENTICATED", got)
	}
	if got := a.Push.State(); got != status.Disconnected {
		t.Errorf("push state = %s, want DISCONNECTED", got)
	}
	if err := fxApp.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// The lock must be free again once stopped.
	l, err := lock.Acquire(profile.Dir("test"))
	if err != nil {
		t.Fatalf("lock still held after stop: %v", err)
	}
	_ = l.Release()
}

func TestSecondInstanceFailsOnLock(t *testing.T) {
	p := testParams(t)
	first := fx.New(Module(p), fx.NopLogger)
	if err := first.Err(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = first.Stop(context.Background()) }()

	second := fx.New(Module(p), fx.NopLogger)
	var held *lock.HeldError
	if !errors.As(second.Err(), &held) {
		t.Errorf("second app error = %v, want HeldError", second.Err())
	}
}

func TestStartRestoresStoredSession(t *testing.T) {
	p := testParams(t)
	if err := profile.EnsureDir(p.Profile); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(profile.SessionDBPath(p.Profile))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSession(domain.Session{
		Identity:   domain.Identity{ID: "u1", Username: "alice"},
		Credential: domain.Credential{AccessToken: "tok"},
	}); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	var a *App
	fxApp := fx.New(Module(p), fx.NopLogger, fx.Populate(&a))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = fxApp.Stop(ctx) }()

	st := a.Coordinator.State()
	if !st.IsAuthenticated || st.Identity.ID != "u1" {
		t.Errorf("State() = %+v, want restored u1", st)
	}
	if snap := a.Engine.Snapshot(); !snap.Authenticated || snap.Self.ID != "u1" {
		t.Errorf("engine not activated: %+v", snap)
	}
}
