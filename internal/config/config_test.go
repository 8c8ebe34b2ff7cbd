package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultHTTPAddr)
	}
	if cfg.Feed.Window != DefaultFeedWindow {
		t.Errorf("Feed.Window = %d, want %d", cfg.Feed.Window, DefaultFeedWindow)
	}
	if cfg.Cleanup.Policy != DefaultCleanupPolicy {
		t.Errorf("Cleanup.Policy = %q, want %q", cfg.Cleanup.Policy, DefaultCleanupPolicy)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9090"

[postgres]
host = "db.internal"
database = "wren_test"

[feed]
window = 10

[cleanup]
policy = "retry"
sweep_spec = "@every 1m"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Database != "wren_test" {
		t.Errorf("unexpected postgres config: %+v", cfg.Postgres)
	}
	if cfg.Postgres.Port != DefaultPGPort {
		t.Errorf("Postgres.Port = %d, want default %d", cfg.Postgres.Port, DefaultPGPort)
	}
	if cfg.Feed.Window != 10 {
		t.Errorf("Feed.Window = %d, want 10", cfg.Feed.Window)
	}
	if cfg.Cleanup.Policy != "retry" {
		t.Errorf("Cleanup.Policy = %q, want retry", cfg.Cleanup.Policy)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr=1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}
