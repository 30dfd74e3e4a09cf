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

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/pacebook/internal/config"
	"github.com/HammerMeetNail/pacebook/internal/database"
	"github.com/HammerMeetNail/pacebook/internal/handlers"
	"github.com/HammerMeetNail/pacebook/internal/logging"
	"github.com/HammerMeetNail/pacebook/internal/metrics"
	"github.com/HammerMeetNail/pacebook/internal/middleware"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		_ = logging.Default.Sync()
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()
	defer func() { _ = logger.Sync() }()

	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{"env": cfg.Server.Environment})
	}

	logger.Info("Starting pacebook server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationsPath)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Migrate(); err != nil {
		_ = migrator.Close()
		return err
	}
	_ = migrator.Close()

	// Redis only backs idempotency; without it the server runs degraded.
	logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, idempotency keys disabled", map[string]interface{}{"error": err.Error()})
		redisDB = nil
	} else {
		defer func() { _ = redisDB.Close() }()
		logger.Info("Connected to Redis")
	}

	collector := metrics.New()
	store := db.DB()

	notificationService := services.NewNotificationService(store)
	friendService := services.NewFriendService(store, notificationService)
	friendService.SetRecorder(collector)
	conversationService := services.NewConversationService(store)
	messageService := services.NewMessageService(store)
	messageService.SetRecorder(collector)
	identityService := services.NewIdentityService(store)
	verifier := services.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	var redisClient *redis.Client
	if redisDB != nil {
		redisClient = redisDB.Client
	}

	handler := newRouter(routerDeps{
		health:        handlers.NewHealthHandler(db, redisDB),
		friends:       handlers.NewFriendHandler(friendService),
		conversations: handlers.NewConversationHandler(conversationService, messageService),
		groups:        handlers.NewGroupHandler(conversationService, messageService),
		notifications: handlers.NewNotificationHandler(notificationService),
		users:         handlers.NewUserHandler(identityService),
		auth:          middleware.NewAuthMiddleware(verifier),
		idempotency: middleware.NewIdempotency(
			middleware.NewRedisIdempotencyStore(redisClient, cfg.Idempotency.Prefix),
			cfg.Idempotency.TTL,
			cfg.Idempotency.PendingTTL,
			collector,
		),
		metrics: collector,
		logger:  logger,
		secure:  cfg.Server.Secure,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{"addr": addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
