// Package boot provides runtime configuration for the server process.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wrenhq/wren/internal/cleanup"
	"github.com/wrenhq/wren/internal/config"
)

// RuntimeConfig holds parsed runtime settings (JWT, server address,
// storage, feed window, cleanup policy). Values may be overridden by
// environment variables (e.g. HTTP_ADDR, STORAGE_ROOT).
type RuntimeConfig struct {
	JwtSecret     string
	JwtExpiresIn  time.Duration
	ServerAddr    string
	StorageRoot   string
	MediaBaseURL  string
	FeedWindow    int
	CleanupPolicy cleanup.Policy
	SweepSpec     string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and
// applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}

	policy, err := cleanup.ParsePolicy(cfg.Cleanup.Policy)
	if err != nil {
		return nil, err
	}

	window := cfg.Feed.Window
	if window <= 0 {
		window = config.DefaultFeedWindow
	}

	ret := &RuntimeConfig{
		JwtSecret:     cfg.Auth.JWTSecret,
		JwtExpiresIn:  jwtExpiresIn,
		ServerAddr:    cfg.Server.Addr,
		StorageRoot:   cfg.Storage.Root,
		MediaBaseURL:  strings.TrimRight(cfg.Storage.BaseURL, "/"),
		FeedWindow:    window,
		CleanupPolicy: policy,
		SweepSpec:     cfg.Cleanup.SweepSpec,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}

	if value := os.Getenv("STORAGE_ROOT"); value != "" {
		ret.StorageRoot = value
	}
	return ret, nil
}
