package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	doubtshandler "docverify/internal/doubts/handler"
	doubtsmetrics "docverify/internal/doubts/metrics"
	doubtsservice "docverify/internal/doubts/service"
	idcardhandler "docverify/internal/idcard/handler"
	"docverify/internal/idcard/lookup"
	idcardmetrics "docverify/internal/idcard/metrics"
	idcardservice "docverify/internal/idcard/service"
	"docverify/internal/platform/config"
	"docverify/internal/platform/database"
	"docverify/internal/platform/health"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/redis"
	"docverify/internal/schemes/catalog"
	schemeshandler "docverify/internal/schemes/handler"
	schemesmetrics "docverify/internal/schemes/metrics"
	schemesservice "docverify/internal/schemes/service"
	schemesstore "docverify/internal/schemes/store"
	"docverify/internal/session"
	"docverify/internal/throttle"
	httptransport "docverify/internal/transport/http"
	verificationhandler "docverify/internal/verification/handler"
	verificationmetrics "docverify/internal/verification/metrics"
	verificationservice "docverify/internal/verification/service"
	"docverify/migrations"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 15 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing docverify",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"genai_disabled", cfg.GenAI.Disabled,
	)

	checks := health.New(cfg.Environment)

	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeQuietly(log, "database", pool.Close)
	if pool != nil {
		checks.RegisterCheck("database", pool.Health)
		if cfg.Database.AutoMigrate {
			if err := pool.Migrate(ctx, migrations.FS); err != nil {
				return err
			}
			log.Info("database migrations applied")
		}
	} else {
		log.Warn("DATABASE_URL not set; records are kept in memory and lost on restart")
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeQuietly(log, "redis", func() error {
		if redisClient == nil {
			return nil
		}
		return redisClient.Close()
	})
	if redisClient != nil {
		checks.RegisterCheck("redis", redisClient.Health)
		go redisClient.ReportPoolStats(ctx, poolStatsInterval)
	}

	sink, err := newAuditSink(cfg, pool, log)
	if err != nil {
		return err
	}
	defer sink.Close()
	if sink.health != nil {
		checks.RegisterCheck("kafka", sink.health)
	}
	auditor := audit.NewLogger(log, sink.publisher)

	flows := newFlows(cfg, redisClient, log)
	stores := newStores(pool)

	cardService := idcardservice.New(stores.cards,
		idcardservice.WithLogger(log),
		idcardservice.WithMetrics(idcardmetrics.New()),
		idcardservice.WithAuditor(auditor),
	)
	verificationService := verificationservice.New(stores.verifications, flows, lookup.NewResolver(stores.cards, log),
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(verificationmetrics.New()),
		verificationservice.WithAuditor(auditor),
		verificationservice.WithAITimeout(cfg.GenAI.Timeout),
	)
	doubtService := doubtsservice.New(stores.doubts, flows,
		doubtsservice.WithLogger(log),
		doubtsservice.WithMetrics(doubtsmetrics.New()),
		doubtsservice.WithAuditor(auditor),
		doubtsservice.WithAnswerTimeout(cfg.GenAI.Timeout),
	)

	schemes, err := catalog.Load()
	if err != nil {
		return err
	}
	schemeService := schemesservice.New(schemesstore.NewInMemory(schemes),
		schemesservice.WithLogger(log),
		schemesservice.WithMetrics(schemesmetrics.New()),
	)
	log.Info("scheme catalog loaded", "schemes", len(schemes))

	tokens := session.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Health:         checks,
		Session:        session.NewHandler(tokens, auditor, log),
		Tokens:         tokens,
		Cards:          idcardhandler.New(cardService, log),
		Verifications:  verificationhandler.New(verificationService, log),
		Doubts:         doubtshandler.New(doubtService, log),
		Schemes:        schemeshandler.New(schemeService, log),
		Throttle:       throttle.NewMiddleware(newLimiter(cfg.Throttle, redisClient), log, throttle.NewMetrics()),
		RequestMetrics: request.NewMetrics(),
		TrustedProxies: cfg.TrustedProxies,
		RequestTimeout: 2*cfg.GenAI.Timeout + 30*time.Second,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.GenAI.Timeout + time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newLimiter(cfg config.ThrottleConfig, client *redis.Client) throttle.Limiter {
	if client != nil {
		return throttle.NewRedis(client.Client, cfg.Limit, cfg.Window)
	}
	return throttle.NewMemory(cfg.Limit, cfg.Window)
}

func closeQuietly(log *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn("failed to close dependency", "dependency", name, "error", err)
	}
}
