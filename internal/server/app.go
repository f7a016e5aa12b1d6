// Package server wires configuration, storage, services and transports
// into the running sentivault server.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/cryptox"
	"github.com/dmitrijs2005/sentivault/internal/filex"
	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server/blobstore"
	"github.com/dmitrijs2005/sentivault/internal/server/config"
	"github.com/dmitrijs2005/sentivault/internal/server/events"
	"github.com/dmitrijs2005/sentivault/internal/server/httpapi"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sentivault/internal/server/scheduler"
	"github.com/dmitrijs2005/sentivault/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/sentivault/internal/server/grpc"
)

const stopTimeout = 15 * time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	repos     repomanager.RepositoryManager
	blobs     blobstore.Store
	publisher events.Publisher
	ingest    *services.IngestService
	records   *services.RecordService
	retrieval *services.RetrievalService
	sweeper   *services.Sweeper
}

// NewApp connects every backing store named by c. The caller owns the App
// and must Close it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	key, err := cryptox.ParseKey(c.EncryptionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	codec, err := cryptox.NewCodec(key)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "encryption key loaded", "fingerprint", key.Fingerprint())

	base, err := storageBase(c.StorageBaseDir)
	if err != nil {
		return nil, err
	}

	repos, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var blobs, staging blobstore.Store
	switch c.StorageBackend {
	case config.StorageS3:
		blobs, err = blobstore.NewS3Store(ctx, blobstore.S3Settings{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		staging = blobstore.NewFileStore(base)
	default:
		blobs = blobstore.NewFileStore(base)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(c.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(c.KafkaBrokers, c.KafkaTopic)
	}

	logger.Info(ctx, "storage ready",
		"backend", c.StorageBackend, "base", base, "metadata", metadataKind(c.DatabaseDSN), "events", len(c.KafkaBrokers) > 0)

	return &App{
		config:    c,
		logger:    logger,
		repos:     repos,
		blobs:     blobs,
		publisher: publisher,
		ingest:    services.NewIngestService(repos, blobs, codec, filex.NewAllocator(base), publisher, logger, c.MaxMediaBytes),
		records:   services.NewRecordService(repos, blobs, publisher, logger),
		retrieval: services.NewRetrievalService(repos, blobs, codec, logger),
		sweeper:   services.NewSweeper(repos, blobs, staging, c.SweepGracePeriod, publisher, logger),
	}, nil
}

// storageBase resolves the local upload root. Relative paths are taken from
// the working directory.
func storageBase(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		return filex.EnsureSubdDir(dir)
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

func metadataKind(dsn string) string {
	if dsn == repomanager.MemoryDSN {
		return "memory"
	}
	return "postgres"
}

// Sweep runs one reconciliation pass.
func (app *App) Sweep(ctx context.Context) (services.SweepReport, error) {
	return app.sweeper.Sweep(ctx)
}

func (app *App) Close() error {
	return errors.Join(app.publisher.Close(), app.repos.Close())
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := httpapi.NewServer(app.config.HTTPAddr, app.logger, app.ingest, app.records, app.retrieval, app.repos)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.records, app.retrieval)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startScheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	sched := scheduler.New(app.logger)
	if app.config.SweepSchedule == "" {
		return sched, nil
	}
	err := sched.Schedule("sweep", app.config.SweepSchedule, func(ctx context.Context) {
		if _, err := app.sweeper.Sweep(ctx); err != nil {
			app.logger.Error(ctx, "scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if _, err := app.sweeper.Sweep(ctx); err != nil {
		app.logger.Error(ctx, "startup sweep failed", "error", err)
	}

	sched, err := app.startScheduler(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		app.logger.Warn(ctx, "scheduler did not stop in time", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
