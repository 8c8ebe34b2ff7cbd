package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	migrationsfs "github.com/wrenhq/wren/db"
	"github.com/wrenhq/wren/internal/config"
	"github.com/wrenhq/wren/internal/db"
	"github.com/wrenhq/wren/internal/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "Path to config.toml")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	migrations, err := fs.Sub(migrationsfs.MigrationsFS, "migrations")
	if err != nil {
		logger.Error("migrations fs", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.RunMigrate(logger.L, cfg.Postgres, migrations, command); err != nil {
		logger.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
}
