package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/greenlight-backend/internal/data/db"
	"github.com/yungbote/greenlight-backend/internal/http"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.PostgresService
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *http.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New builds the API process. The returned App owns the database and cache
// connections until Close.
func New(ctx context.Context, log *logger.Logger) (*App, error) {
	cfg := LoadConfig(log)

	shutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log)

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	gdb := pg.DB()

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = pg.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	repos := wireRepos(gdb, log)
	aggs := wireAggregates(gdb, log, repos, metrics)
	svcs := wireServices(log, cfg, repos, aggs, clients, metrics)
	handlers := wireHandlers(log, gdb, clients, svcs)
	mw := wireMiddleware(log, svcs)
	server := wireRouter(log, cfg, metrics, handlers, mw)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           pg,
		Clients:      clients,
		Repos:        repos,
		Services:     svcs,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: shutdown,
	}, nil
}

// Migrate brings the schema up to date.
func (a *App) Migrate() error {
	gdb := a.DB.DB()
	if err := db.AutoMigrateAll(gdb); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.EnsureConstraints(gdb); err != nil {
		return fmt.Errorf("ensure constraints: %w", err)
	}
	return nil
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB.DB())
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
	addr := ":" + strings.TrimPrefix(a.Cfg.Port, ":")
	a.Log.Info("Server listening", "address", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	if err := a.Clients.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
