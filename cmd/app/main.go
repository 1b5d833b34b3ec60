package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gymhub/docs"

	"gymhub/internal/activity"
	"gymhub/internal/clock"
	"gymhub/internal/config"
	"gymhub/internal/db"
	"gymhub/internal/logger"
	"gymhub/internal/membership"
	"gymhub/internal/notify"
	"gymhub/internal/server"

	"github.com/redis/go-redis/v9"
)

// @title GymHub API
// @version 1.0
// @description Multi-tenant gym management API: gyms, plans, memberships and class bookings.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "console")
		logger.Fatalf("Failed to load config: %v", err)
	}

	logFormat := "console"
	if cfg.IsProduction() {
		logFormat = "json"
	}
	logger.Init(cfg.LogLevel, logFormat)
	defer logger.Sync()
	logger.Info("Starting GymHub", "env", cfg.Env, "storage", cfg.StorageDriver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stores server.Stores
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		logger.Info("Connecting to database...")
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")
		stores = server.PostgresStores(database)
	default:
		logger.Warn("Using in-memory storage; data is lost on restart")
		stores = server.MemoryStores()
	}

	var notifier notify.Notifier = notify.Discard{}
	if cfg.NotificationsEnabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		queue := notify.NewQueue(rdb)
		defer queue.Close()
		notifier = queue

		go notify.NewWorker(rdb, notify.LogSender{}).Start(ctx)
		logger.Info("Notification queue initialized", "redis_addr", cfg.RedisAddr)
	}

	var publisher activity.Publisher = activity.NopPublisher{}
	if cfg.EventsEnabled {
		amqpPublisher, err := activity.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("Failed to connect to event broker: %v", err)
		}
		publisher = amqpPublisher
		logger.Info("Activity event publisher initialized")
	}
	defer publisher.Close()

	clk := clock.System{}
	services := server.NewServices(cfg, stores, publisher, notifier, clk)

	go membership.NewSweeper(stores.Memberships, clk, cfg.ExpirySweepInterval).Run(ctx)

	srv := server.New(cfg, services.Handlers())

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
