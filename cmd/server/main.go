package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/config"
	"github.com/shoyaib4265a/st-shop-poss/internal/infra"
	"github.com/shoyaib4265a/st-shop-poss/internal/remote"
	"github.com/shoyaib4265a/st-shop-poss/internal/router"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
	"github.com/shoyaib4265a/st-shop-poss/internal/syncer"
	"github.com/shoyaib4265a/st-shop-poss/internal/trust"
	"github.com/shoyaib4265a/st-shop-poss/internal/worker"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.OpenSQLite(cfg.DataPath, store.Seed{
		AdminPhone: cfg.BootstrapAdminPhone,
		AdminPIN:   cfg.BootstrapAdminPIN,
		BcryptCost: cfg.PINBcryptCost,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs the remote document when so configured, and the async job
	// queue when approval-code relay is on. With the HTTP backend and no
	// inbox, the process runs without Redis at all.
	var rdb *redis.Client
	if cfg.RemoteBackend == config.RemoteRedis || cfg.ApprovalInboxTo != "" {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err = infra.NewRedis(pingCtx, cfg.RedisURL)
		pingCancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	}

	var blobs remote.BlobStore
	var tokens remote.TokenSource
	switch cfg.RemoteBackend {
	case config.RemoteHTTP:
		tokens = remote.NewOAuthTokenSource(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret)
		blobs = remote.NewHTTPStore(cfg.RemoteBaseURL, tokens)
	case config.RemoteRedis:
		blobs = remote.NewRedisStore(rdb)
	default:
		log.Fatal().Str("backend", cfg.RemoteBackend).Msg("unknown REMOTE_BACKEND")
	}

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	coord := syncer.NewCoordinator(st, blobs, tokens, cb, cfg.RemoteDocName,
		time.Duration(cfg.SyncTimeoutSeconds)*time.Second)

	// Start goroutine worker pool for async tasks (approval-code relay).
	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	var notifier trust.Notifier
	if rdb != nil && cfg.ApprovalInboxTo != "" {
		mailer := infra.NewMailer(cfg)
		dispatcher := worker.NewDispatcher(rdb)
		handlers := &worker.Handlers{
			Notify: worker.NewNotifyWorker(mailer, cfg.ApprovalInboxTo),
		}
		worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
		notifier = dispatcher
	}

	worker.StartSyncCron(ctx, coord, time.Duration(cfg.SyncIntervalSeconds)*time.Second)

	r := router.New(cfg, st, rdb, coord, notifier)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("st-shop-poss listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
