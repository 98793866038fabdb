// Package server initializes and runs the StreamFi API server. It wires the
// database, migrations, streaming provider client, services, the chat hub,
// and the HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/streamfi/streamfi/internal/logging"
	"github.com/streamfi/streamfi/internal/server/chat"
	"github.com/streamfi/streamfi/internal/server/config"
	"github.com/streamfi/streamfi/internal/server/httpapi"
	"github.com/streamfi/streamfi/internal/server/livepeer"
	"github.com/streamfi/streamfi/internal/server/repositories/repomanager"
	"github.com/streamfi/streamfi/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	hub     *chat.Hub
	httpSrv *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(
		slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()
	if err := manager.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	provider := livepeer.NewClient(cfg.LivepeerAPIBaseURL, cfg.LivepeerAPIKey)

	userSvc := services.NewUserService(db, manager, cfg)
	streamSvc := services.NewStreamService(db, manager, provider, logger, cfg)
	viewerSvc := services.NewViewerService(db, manager, logger)
	catalogSvc := services.NewCatalogService(db, manager)
	verificationSvc := services.NewVerificationService(db, manager, logger, cfg)
	mediaSvc := services.NewMediaService(cfg)

	hub := chat.NewHub(viewerSvc, logger)

	router := httpapi.NewRouter([]byte(cfg.SecretKey), httpapi.Controllers{
		Users:        httpapi.NewUserController(userSvc),
		Streams:      httpapi.NewStreamController(streamSvc),
		Viewers:      httpapi.NewViewerController(viewerSvc),
		Catalog:      httpapi.NewCatalogController(catalogSvc),
		Verification: httpapi.NewVerificationController(verificationSvc, cfg.Debug),
		Media:        httpapi.NewMediaController(mediaSvc),
		Chat:         httpapi.NewChatController(hub, logger),
	})

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		hub:     hub,
		httpSrv: httpapi.NewServer(cfg.EndpointAddrHTTP, router, logger),
	}, nil
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

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.hub.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpSrv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
