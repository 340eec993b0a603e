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

	"github.com/aryan0dhankhar/issuedesk/internal/handler"
	"github.com/aryan0dhankhar/issuedesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/issuedesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/issuedesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/issuedesk/internal/reliability/retry"
	"github.com/aryan0dhankhar/issuedesk/internal/repository"
	"github.com/aryan0dhankhar/issuedesk/internal/security"
	"github.com/aryan0dhankhar/issuedesk/internal/security/auth"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
	"github.com/aryan0dhankhar/issuedesk/internal/worker"
	"github.com/aryan0dhankhar/issuedesk/pkg/config"
	"github.com/aryan0dhankhar/issuedesk/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "issuedesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting issuedesk server",
		slog.String("environment", cfg.Environment),
		slog.String("database_driver", cfg.DatabaseDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, cfg.ServiceName, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// 4. Migrate and open the database, retrying while it comes up
	_, err = retry.Do(ctx, retry.DefaultConfig(), log, "database migration", func(context.Context) (struct{}, error) {
		return struct{}{}, database.Migrate(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	})
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "database connect", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, &database.Config{
			Driver:          cfg.DatabaseDriver,
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    cfg.DatabaseMaxIdleConns,
			ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
		}, log)
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// 5. Token revocation: Redis when configured, memory otherwise
	var (
		revoked    auth.RevocationStore
		redisCheck handler.Pinger
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		revoked = auth.NewRedisRevocationStore(redisClient)
		redisCheck = redisClient
	} else {
		memory := auth.NewMemoryRevocationStore()
		revoked = memory
		sweeper := worker.NewRevocationSweeper(memory, log, cfg.RevocationSweepPeriod)
		go sweeper.Start(ctx)
		log.Warn("REDIS_URL not set, token revocations are kept in memory")
	}

	// 6. Initialize services
	store := repository.NewSQLStore(pool.GetDB(), log)
	gate := security.NewGate(store.Teams(), log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	authService := service.NewAuthService(store, tokenManager, revoked, cfg.BcryptCost, log)
	teamService := service.NewTeamService(store, gate, log)
	siteService := service.NewSiteService(store, gate, log)
	issueService := service.NewIssueService(store, gate, log)

	// 7. Routes and middleware chain
	routes, err := handler.NewRouter(handler.RouterConfig{
		Auth:               authService,
		Teams:              teamService,
		Sites:              siteService,
		Issues:             issueService,
		Database:           handler.PingerFunc(pool.Health),
		Redis:              redisCheck,
		Flags:              cfg.Flags,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminUserIDs:       cfg.AdminUserIDs,
		Logger:             log,
	})
	if err != nil {
		return fmt.Errorf("failed to build routes: %w", err)
	}

	// 8. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      tracing.Middleware(cfg.ServiceName)(routes),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("admin_routes", cfg.Flags.AdminRoutes),
		slog.Bool("schema_validation", cfg.Flags.SchemaValidation),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop the sweeper
	log.Info("server stopped")
	return nil
}
