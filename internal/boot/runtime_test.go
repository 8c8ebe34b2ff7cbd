package boot

import (
	"testing"
	"time"

	"github.com/wrenhq/wren/internal/cleanup"
	"github.com/wrenhq/wren/internal/config"
)

func baseConfig() config.Config {
	cfg, _ := config.Load("/nonexistent/config.toml")
	cfg.Auth.JWTSecret = "secret"
	return cfg
}

func TestProvideRuntimeConfigDefaults(t *testing.T) {
	cfg := baseConfig()

	rc, err := ProvideRuntimeConfig(cfg)
	if err != nil {
		t.Fatalf("provide runtime config: %v", err)
	}
	if rc.JwtExpiresIn != 24*time.Hour {
		t.Fatalf("expected 24h expiry, got %s", rc.JwtExpiresIn)
	}
	if rc.FeedWindow != config.DefaultFeedWindow {
		t.Fatalf("expected default feed window, got %d", rc.FeedWindow)
	}
	if rc.CleanupPolicy != cleanup.PolicyAccept {
		t.Fatalf("expected accept policy, got %q", rc.CleanupPolicy)
	}
	if rc.MediaBaseURL != "/media" {
		t.Fatalf("expected /media base url, got %q", rc.MediaBaseURL)
	}
}

func TestProvideRuntimeConfigRequiresSecret(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth.JWTSecret = "  "

	if _, err := ProvideRuntimeConfig(cfg); err == nil {
		t.Fatalf("expected missing jwt secret error")
	}
}

func TestProvideRuntimeConfigRejectsBadExpiry(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth.JWTExpiresIn = "soon"

	if _, err := ProvideRuntimeConfig(cfg); err == nil {
		t.Fatalf("expected invalid expiry error")
	}
}

func TestProvideRuntimeConfigRejectsBadPolicy(t *testing.T) {
	cfg := baseConfig()
	cfg.Cleanup.Policy = "hope"

	if _, err := ProvideRuntimeConfig(cfg); err == nil {
		t.Fatalf("expected invalid cleanup policy error")
	}
}

func TestProvideRuntimeConfigEnvOverride(t *testing.T) {
	cfg := baseConfig()
	t.Setenv("HTTP_ADDR", ":9999")

	rc, err := ProvideRuntimeConfig(cfg)
	if err != nil {
		t.Fatalf("provide runtime config: %v", err)
	}
	if rc.ServerAddr != ":9999" {
		t.Fatalf("expected env override addr, got %q", rc.ServerAddr)
	}
}
