// Command jobcard-api serves the job card HTTP API.
//
// @title                       Job Card API
// @version                     1.0
// @description                 Workshop job cards with image uploads and role-gated access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/api"
	"github.com/autoworks/jobcard-service/internal/api/handler"
	"github.com/autoworks/jobcard-service/internal/core/ports"
	"github.com/autoworks/jobcard-service/internal/core/service"
	"github.com/autoworks/jobcard-service/internal/infrastructure/config"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/memory"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/mongo"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/postgres"
	"github.com/autoworks/jobcard-service/internal/infrastructure/db/redis"
	"github.com/autoworks/jobcard-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/autoworks/jobcard-service/internal/infrastructure/queue"
	"github.com/autoworks/jobcard-service/internal/infrastructure/storage"
	"github.com/autoworks/jobcard-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// best-effort: a missing .env leaves the real environment in charge
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jobcard-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "jobcard-api",
	})

	pingers := map[string]handler.Pinger{}
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	principals, jobCards, err := openStore(ctx, cfg, log, pingers, &closers)
	if err != nil {
		return err
	}

	images, staticDir, err := openImageStore(ctx, cfg, pingers)
	if err != nil {
		return err
	}

	var limiter ports.RateLimiter
	if cfg.Redis.Addr != "" && cfg.RateLimit.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		pingers["redis"] = redis.Pinger(rdb)
		limiter = redis.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiting enabled")
	}

	var publisher ports.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := rabbitmq.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = p.Close() })
		publisher = p
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("event publishing enabled")
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	cleaner := queue.NewDispatcher(cfg.Cleanup.Workers, images, log)
	cleaner.Start(workerCtx)
	closers = append(closers, func() {
		stopWorkers()
		cleaner.Wait()
	})

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	e := api.NewRouter(api.Deps{
		AuthService:       service.NewAuthService(principals, service.NewCredentialStore(cfg.BcryptCost), tokens, log),
		TokenVerifier:     tokens,
		JobCardService:    service.NewJobCardService(jobCards, cleaner, publisher, log),
		Uploads:           handler.NewImageUploads(images, cfg.Upload.MaxBytes, log),
		RateLimiter:       limiter,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Pingers:           pingers,
		StaticDir:         staticDir,
		StaticPrefix:      cfg.Upload.URLPrefix,
		Log:               log,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Str("uploads", cfg.Upload.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown failed")
	}
	return nil
}

// openStore connects the configured repository backend and registers its
// readiness check.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	pingers map[string]handler.Pinger,
	closers *[]func(),
) (ports.PrincipalRepository, ports.JobCardRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, func() { _ = client.Disconnect(context.Background()) })
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return nil, nil, err
		}
		pingers["mongodb"] = mongo.Pinger(client)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return mongo.NewPrincipalRepository(db), mongo.NewJobCardRepository(db), nil

	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL}, log)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, func() { _ = db.Close() })
		pingers["postgres"] = postgres.Pinger(db)
		log.Info().Msg("connected to postgres")
		return postgres.NewPrincipalRepository(db), postgres.NewJobCardRepository(db), nil

	default:
		log.Warn().Msg("using the in-memory store; data is lost on restart")
		store := memory.NewStore()
		return memory.NewPrincipalRepository(store), memory.NewJobCardRepository(store), nil
	}
}

// openImageStore returns the upload backend and, for the disk driver, the
// directory to serve statically.
func openImageStore(ctx context.Context, cfg *config.Config, pingers map[string]handler.Pinger) (ports.ImageStore, string, error) {
	if cfg.Upload.Driver == config.UploadS3 {
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			KeyPrefix:       cfg.S3.KeyPrefix,
			PublicURL:       cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		pingers["s3"] = s.Ping
		return s, "", nil
	}

	s, err := storage.NewDiskStore(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	if err != nil {
		return nil, "", err
	}
	return s, s.Dir(), nil
}
