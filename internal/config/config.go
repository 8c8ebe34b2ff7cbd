// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultJWTExpiresIn  = "24h"
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "wren"
	DefaultPGSSLMode     = "disable"
	DefaultStorageRoot   = "data/blobs"
	DefaultStorageURL    = "/media"
	DefaultFeedWindow    = 25
	DefaultCleanupPolicy = "accept"
	DefaultSweepSpec     = "@every 5m"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Admin    AdminConfig    `toml:"admin"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Storage  StorageConfig  `toml:"storage"`
	Feed     FeedConfig     `toml:"feed"`
	Cleanup  CleanupConfig  `toml:"cleanup"`
}

// LogConfig holds logging level and format (e.g. level=info, format=json).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AdminConfig holds the initial account created on an empty database.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// StorageConfig holds the blob storage root directory and the public
// base URL under which stored blobs are served.
type StorageConfig struct {
	Root    string `toml:"root"`
	BaseURL string `toml:"base_url"`
}

// FeedConfig holds the timeline window size.
type FeedConfig struct {
	Window int `toml:"window"`
}

// CleanupConfig governs what happens to a post's photo blob when the blob
// delete fails after the post row is already gone. Policy is "accept"
// (log and move on) or "retry" (queue the key and sweep it on the cron
// schedule in SweepSpec).
type CleanupConfig struct {
	Policy    string `toml:"policy"`
	SweepSpec string `toml:"sweep_spec"`
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			Root:    DefaultStorageRoot,
			BaseURL: DefaultStorageURL,
		},
		Feed: FeedConfig{
			Window: DefaultFeedWindow,
		},
		Cleanup: CleanupConfig{
			Policy:    DefaultCleanupPolicy,
			SweepSpec: DefaultSweepSpec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
