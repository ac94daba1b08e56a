package app

import (
	"testing"

	"github.com/matheus3301/chatwire/internal/config"
	"github.com/matheus3301/chatwire/internal/profile"
)

func TestResolveDefaults(t *testing.T) {
	t.Setenv("CHATWIRE_HOME", t.TempDir())
	t.Setenv(profile.ServerEnv, "")

	p, err := Resolve("", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Profile != profile.DefaultName {
		t.Errorf("Profile = %q, want %q", p.Profile, profile.DefaultName)
	}
	if p.Config.Server != config.Default().Server {
		t.Errorf("Server = %+v, want defaults", p.Config.Server)
	}
}

func TestResolveOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CHATWIRE_HOME", home)
	t.Setenv(profile.ServerEnv, "http://from-env:9000")

	cfg := config.Default()
	cfg.DefaultProfile = "work"
	if err := config.Save(profile.ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}

	p, err := Resolve("", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Profile != "work" {
		t.Errorf("Profile = %q, want work", p.Profile)
	}
	if p.Config.Server.BaseURL != "http://from-env:9000" || p.Config.Server.PushURL != "ws://from-env:9000/ws" {
		t.Errorf("env server = %+v", p.Config.Server)
	}

	p, err = Resolve("personal", "https://flag.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if p.Profile != "personal" || p.Config.Server.PushURL != "wss://flag.example.com/ws" {
		t.Errorf("flag overrides = %q / %+v", p.Profile, p.Config.Server)
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	t.Setenv("CHATWIRE_HOME", t.TempDir())
	t.Setenv(profile.ServerEnv, "")

	if _, err := Resolve("Bad Name", ""); err == nil {
		t.Error("invalid profile name should fail")
	}
	if _, err := Resolve("", "ftp://nope"); err == nil {
		t.Error("non-http server should fail")
	}
}
