// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/auth"
	"github.com/dmitrijs2005/goproj/internal/server/config"
	"github.com/dmitrijs2005/goproj/internal/server/httpapi"
	"github.com/dmitrijs2005/goproj/internal/server/metrics"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/goproj/internal/server/services"
	"github.com/dmitrijs2005/goproj/internal/server/storage"
	"github.com/dmitrijs2005/goproj/internal/server/sweeper"
	"github.com/dmitrijs2005/goproj/internal/server/telemetry"
)

const (
	serviceName     = "goproj"
	shutdownTimeout = 15 * time.Second
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config            *config.Config
	logger            logging.Logger
	db                *sql.DB
	server            *httpapi.Server
	sweeper           *sweeper.Sweeper
	shutdownTelemetry telemetry.ShutdownFunc
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := storage.NewS3BlobStore(ctx, storage.Options{
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	m := metrics.New()
	tokens := auth.NewTokenManager([]byte(c.SecretKey))
	activity := services.NewActivityService(db, rm, logger)
	authService := services.NewAuthService(db, rm, tokens, c, logger)

	handler := httpapi.NewHandler(httpapi.Options{
		Auth:         authService,
		Projects:     services.NewProjectService(db, rm, activity, logger),
		Issues:       services.NewIssueService(db, rm, activity, logger),
		Versions:     services.NewVersionService(db, rm, activity, logger),
		Attachments:  services.NewAttachmentService(db, rm, blobs, activity, logger),
		Activity:     activity,
		Metrics:      m,
		Logger:       logger,
		CORSOrigins:  c.CORSOrigins,
		SecureCookie: c.SecureCookie,
		Tracing:      c.OTLPEndpoint != "",
	})

	sw, err := sweeper.New(c.SweepSchedule, authService, m, logger.With("module", "sweeper"))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config:            c,
		logger:            logger,
		db:                db,
		server:            httpapi.NewServer(c.HTTPAddr, handler.Routes(), logger),
		sweeper:           sw,
		shutdownTelemetry: telemetry.Setup(ctx, serviceName, c.OTLPEndpoint, logger),
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	app.sweeper.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.sweeper.Stop(ctx)
	if err := app.shutdownTelemetry(ctx); err != nil {
		app.logger.Warn(ctx, "telemetry shutdown error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
