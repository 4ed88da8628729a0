package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bmsedge/edge-gateway/internal/admission"
	"github.com/bmsedge/edge-gateway/internal/clock"
	"github.com/bmsedge/edge-gateway/internal/config"
	"github.com/bmsedge/edge-gateway/internal/endpoint"
	"github.com/bmsedge/edge-gateway/internal/proxy"
	"github.com/bmsedge/edge-gateway/internal/ratelimit"
	"github.com/bmsedge/edge-gateway/internal/server"
	"github.com/bmsedge/edge-gateway/internal/telemetry"
	"github.com/bmsedge/edge-gateway/internal/tenant"
	"github.com/bmsedge/edge-gateway/internal/token"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the gateway config file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("edge-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := config.NewProvider(*configPath, logger)
	if err != nil {
		log.Fatalf("Failed to create config provider: %v", err)
	}
	defer provider.Close()

	cfg, err := provider.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	classifier := endpoint.NewClassifier(cfg.Endpoints.PublicExact, cfg.Endpoints.PublicPrefixes)

	validator, err := token.NewValidator([]byte(cfg.Auth.Secret), clock.NewSystemClock())
	if err != nil {
		log.Fatalf("Failed to create token validator: %v", err)
	}

	observer := admission.NewPipelineLogger(logger)
	chain := admission.NewChain(logger,
		admission.NewSizeGuard(admission.SizeThresholds{
			Default: cfg.Limits.DefaultBytes,
			Upload:  cfg.Limits.UploadBytes,
			Batch:   cfg.Limits.BatchBytes,
		}),
		observer,
		admission.NewAuthFilter(classifier, validator, logger),
		admission.NewTenantFilter(tenant.NewResolver(), logger),
	)

	table, err := proxy.NewTable(cfg.Routes, cfg.Breaker, logger)
	if err != nil {
		log.Fatalf("Failed to build routing table: %v", err)
	}

	keyFn, err := ratelimit.NewRegistry().Resolve(cfg.RateLimit.Strategy)
	if err != nil {
		log.Fatalf("Failed to resolve rate limit strategy: %v", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			log.Fatalf("Redis ping error: %v", err)
		}

		window, _ := time.ParseDuration(cfg.RateLimit.Redis.Window)
		limiter = ratelimit.NewRedisStore(rdb, cfg.RateLimit.Redis.Limit, window)
		logger.Info("rate limiting via redis", slog.String("addr", cfg.RateLimit.Redis.Addr))
	} else {
		store := ratelimit.NewMemoryStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		store.StartJanitor(ctx)
		limiter = store
		logger.Info("rate limiting in memory",
			slog.Float64("rps", cfg.RateLimit.RPS),
			slog.Int("burst", cfg.RateLimit.Burst),
		)
	}

	srv := server.New(server.Options{
		Port:     cfg.Server.Port,
		Chain:    chain,
		Observer: observer,
		RateLimit: &server.RateLimitOptions{
			Limiter:    limiter,
			Key:        keyFn,
			RetryAfter: time.Second,
			Logger:     logger,
		},
		Backend: table,
	}, logger)

	// Hot-reload republishes the public endpoint sets; auth and routing
	// keep their startup configuration.
	go func() {
		err := provider.Watch(ctx, func(next *config.Config) {
			classifier.Reload(next.Endpoints.PublicExact, next.Endpoints.PublicPrefixes)
			logger.Info("public endpoint sets reloaded",
				slog.Int("exact", len(next.Endpoints.PublicExact)),
				slog.Int("prefixes", len(next.Endpoints.PublicPrefixes)),
			)
		})
		if err != nil {
			logger.Error("config watch stopped", slog.String("error", err.Error()))
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	logger.Info("Gateway started successfully", slog.Int("port", cfg.Server.Port))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received, stopping gateway...", slog.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Gateway shutdown complete")
}
