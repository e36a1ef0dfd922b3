// Package server initializes and runs the backend: it opens the database,
// applies migrations, connects the optional Redis cache and serves the HTTP
// API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/aleksv/spendsync/internal/logging"
	"github.com/aleksv/spendsync/internal/server/api"
	"github.com/aleksv/spendsync/internal/server/cache"
	"github.com/aleksv/spendsync/internal/server/config"
	"github.com/aleksv/spendsync/internal/server/repositories/repomanager"
	"github.com/aleksv/spendsync/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *api.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	users := services.NewUserService(db, rm, cfg)
	records := services.NewRecordService(db, rm, cache.New(redisClient))
	receipts := services.NewReceiptService(cfg)

	srv := api.NewServer(cfg.EndpointAddr, db, logger, users, records, receipts)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
