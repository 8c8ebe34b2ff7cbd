package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrenhq/wren/internal/boot"
	"github.com/wrenhq/wren/internal/cleanup"
	"github.com/wrenhq/wren/internal/config"
	"github.com/wrenhq/wren/internal/db"
	"github.com/wrenhq/wren/internal/feed"
	"github.com/wrenhq/wren/internal/handlers"
	"github.com/wrenhq/wren/internal/logger"
	"github.com/wrenhq/wren/internal/profile"
	"github.com/wrenhq/wren/internal/server"
	"github.com/wrenhq/wren/internal/storage"
	"github.com/wrenhq/wren/internal/users"
	"github.com/wrenhq/wren/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideBlobStorage(runtimeConfig *boot.RuntimeConfig) (*storage.LocalProvider, error) {
	return storage.NewLocalProvider(runtimeConfig.StorageRoot, runtimeConfig.MediaBaseURL)
}

func provideCleanup(log *slog.Logger, blobs storage.Provider, runtimeConfig *boot.RuntimeConfig) *cleanup.Service {
	return cleanup.NewService(log, blobs, runtimeConfig.CleanupPolicy)
}

func provideFeedStore(log *slog.Logger, pool *pgxpool.Pool, hub *feed.Hub) *feed.PGStore {
	return feed.NewPGStore(log, pool, hub)
}

func provideProfileService(log *slog.Logger, store feed.Store, userService *users.Service, blobs storage.Provider, runtimeConfig *boot.RuntimeConfig) *profile.Service {
	return profile.NewService(log, store, userService, blobs, runtimeConfig.FeedWindow)
}

func provideAuthHandler(log *slog.Logger, userService *users.Service, runtimeConfig *boot.RuntimeConfig) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, userService, runtimeConfig.JwtSecret, runtimeConfig.JwtExpiresIn)
}

func provideFeedHandler(log *slog.Logger, store feed.Store, hub *feed.Hub, userService *users.Service, blobs storage.Provider, orphans feed.OrphanHandler, runtimeConfig *boot.RuntimeConfig) *handlers.FeedHandler {
	return handlers.NewFeedHandler(log, store, hub, userService, blobs, orphans, runtimeConfig.FeedWindow)
}

func provideMediaHandler(log *slog.Logger, runtimeConfig *boot.RuntimeConfig) *handlers.MediaHandler {
	return handlers.NewMediaHandler(log, runtimeConfig.MediaBaseURL, runtimeConfig.StorageRoot)
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideDBConn,
			feed.NewHub,
			fx.Annotate(provideBlobStorage, fx.As(new(storage.Provider))),
			provideCleanup,
			func(s *cleanup.Service) feed.OrphanHandler { return s },
			fx.Annotate(provideFeedStore, fx.As(new(feed.Store))),

			users.NewService,
			provideProfileService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideFeedHandler),
			provideServerHandler(handlers.NewProfileHandler),
			provideServerHandler(provideMediaHandler),

			provideServer,
		),
		fx.Invoke(
			startCleanup,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(
		params.Logger,
		params.RuntimeConfig.ServerAddr,
		params.RuntimeConfig.JwtSecret,
		params.RuntimeConfig.MediaBaseURL,
		params.ServerHandlers...,
	)
}

func startCleanup(lc fx.Lifecycle, cleanupService *cleanup.Service, runtimeConfig *boot.RuntimeConfig) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return cleanupService.Start(runtimeConfig.SweepSpec)
		},
		OnStop: func(ctx context.Context) error {
			cleanupService.Stop()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	userService *users.Service,
) {
	fmt.Printf("Starting Wren %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ensureAdminUser(ctx, logger, userService, cfg); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func ensureAdminUser(ctx context.Context, log *slog.Logger, userService *users.Service, cfg config.Config) error {
	if userService == nil {
		return fmt.Errorf("users service not configured")
	}
	count, err := userService.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(cfg.Admin.Username)
	password := strings.TrimSpace(cfg.Admin.Password)
	if username == "" || password == "" {
		return fmt.Errorf("admin username/password required in config.toml")
	}
	if password == "change-your-password-here" {
		log.Warn("admin password uses default placeholder; please update config.toml")
	}

	user, err := userService.Create(ctx, users.CreateRequest{
		Username:    username,
		Password:    password,
		DisplayName: username,
	})
	if err != nil {
		return err
	}
	log.Info("Admin user created", slog.String("username", user.Username))
	return nil
}
