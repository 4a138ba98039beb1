package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lesbonsservices/booking-api/internal/api"
	"github.com/lesbonsservices/booking-api/internal/core/service"
	mongodb "github.com/lesbonsservices/booking-api/internal/infrastructure/db/mongo"
	redisdb "github.com/lesbonsservices/booking-api/internal/infrastructure/db/redis"
	"github.com/lesbonsservices/booking-api/internal/infrastructure/http/handlers"
	"github.com/lesbonsservices/booking-api/internal/infrastructure/queue"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and the audit dispatcher. SIGINT or SIGTERM
drains in-flight requests, then flushes pending audit events.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Services ---
	tokens, err := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	users := mongodb.NewUserRepository(db)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongodb.NewAuditRepository(db), log)
	authService := service.NewAuthService(
		users,
		tokens,
		service.NewBcryptHasher(cfg.Auth.BcryptCost),
		log,
		service.WithRegistrationLock(redisdb.NewEmailLock(rdb, cfg.Redis.LockTTL, log)),
		service.WithAuditRecorder(dispatcher),
	)

	e, err := api.NewRouter(api.RouterDeps{
		Logger: log,
		Auth:   authService,
		Tokens: tokens,
		Users:  users,
		Readiness: map[string]handlers.PingFunc{
			"mongo": handlers.MongoPing(db),
			"redis": handlers.RedisPing(rdb),
		},
		TrustProxy: cfg.TrustProxy,
	})
	if err != nil {
		return err
	}

	// Stopped only once the server has drained.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	dispatcher.Start(dispatchCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)

		dispatcher.Stop()
		stopDispatch()
		dispatcher.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
