package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"roster/internal/audit"
	auditstore "roster/internal/audit/store"
	authservice "roster/internal/auth/service"
	tokencache "roster/internal/auth/store/token-cache"
	catalogservice "roster/internal/catalog/service"
	enrollservice "roster/internal/enrollment/service"
	"roster/internal/identity/secrets"
	identityservice "roster/internal/identity/service"
	jwttoken "roster/internal/jwt_token"
	"roster/internal/platform/config"
	"roster/internal/platform/httpserver"
	"roster/internal/platform/logger"
	platformredis "roster/internal/platform/redis"
	"roster/internal/store"
	httptransport "roster/internal/transport/http"
)

// main wires the dependencies and keeps the lifecycle small. Business logic
// lives in the internal services packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	entityStore := store.NewMemory()
	hasher := secrets.Bcrypt{}
	if cfg.Seed {
		if err := store.Seed(context.Background(), entityStore, hasher); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	logStore := auditstore.NewInMemoryStore()
	recorder := audit.NewRecorder(logStore, log)
	publisher := audit.NewPublisher(cfg.AuditBuffer, log)
	worker := audit.NewWorker(logStore, publisher.Inbox())

	var cache authservice.TokenCache = tokencache.NewInMemoryCache()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		cache = tokencache.NewRedisCache(redisClient.Client)
		defer redisClient.Close()
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	auth := authservice.NewService(entityStore, hasher, tokens,
		authservice.WithLogger(log),
		authservice.WithRecorder(recorder),
		authservice.WithCache(cache, cfg.VerifyCacheTTL),
		authservice.WithTokenTTL(cfg.TokenTTL),
		authservice.WithRefreshThreshold(cfg.RefreshThreshold),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:      log,
		Auth:        auth,
		Verifier:    auth,
		Users:       identityservice.NewService(entityStore, hasher, identityservice.WithLogger(log), identityservice.WithRecorder(recorder)),
		Courses:     catalogservice.NewService(entityStore, catalogservice.WithLogger(log), catalogservice.WithRecorder(recorder)),
		Enrollments: enrollservice.NewService(entityStore, enrollservice.WithLogger(log), enrollservice.WithRecorder(recorder)),
		Logs:        recorder,
		Publisher:   publisher,
	})
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting roster server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
