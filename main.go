package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/internal/db/migrate"
	"github.com/sean-huni/store-sub000/internal/di"
	"github.com/sean-huni/store-sub000/internal/events"
	"github.com/sean-huni/store-sub000/internal/metrics"
	"github.com/sean-huni/store-sub000/pkg/config"
	"github.com/sean-huni/store-sub000/pkg/database"
	"github.com/sean-huni/store-sub000/pkg/kafka"
	"github.com/sean-huni/store-sub000/pkg/logger"
	"github.com/sean-huni/store-sub000/pkg/redis"
	"github.com/sean-huni/store-sub000/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting auth service", zap.String("environment", cfg.App.Environment))
	if cfg.JWT.Secret == config.DevelopmentJWTSecret {
		appLog.Warn("JWT_SECRET not set, using dev-only signing key (rejected outside development)")
	}

	ctx := context.Background()

	// Initialize OpenTelemetry
	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn("Failed to initialize telemetry", zap.Error(err))
	} else if telemetryCfg.Enabled {
		appLog.Info("Telemetry initialized", zap.String("collector", telemetryCfg.CollectorAddr))
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			appLog.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if err := metrics.Init(); err != nil {
		appLog.Warn("Failed to register auth metrics", zap.Error(err))
	}

	// Apply schema before the pool starts serving queries
	if cfg.Database.AutoMigrate {
		if err := migrate.Run(cfg.Database.URL(), migrate.Up); err != nil {
			appLog.Fatal("Database migration failed", zap.Error(err))
		}
		appLog.Info("Database migrations applied")
	}

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected", zap.Int32("min_conns", dbCfg.MinConns), zap.Int32("max_conns", dbCfg.MaxConns))

	// Redis backs the shared rate limiter; without it each instance limits locally
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &redis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: time.Second,
		})
		if err != nil {
			appLog.Warn("Redis unavailable, falling back to in-process rate limiting", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// Auth events are optional
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producerCfg := kafka.DefaultProducerConfig()
		producerCfg.Brokers = cfg.Kafka.Brokers
		producerCfg.ClientID = cfg.Kafka.ClientID
		producer, err := kafka.NewProducer(ctx, producerCfg)
		if err != nil {
			appLog.Warn("Kafka unavailable, auth events disabled", zap.Error(err))
		} else {
			defer producer.Close()
			kafkaPublisher, err := events.NewKafkaPublisher(producer, cfg.Kafka.Topic, cfg.App.Name)
			if err != nil {
				appLog.Fatal("Invalid Kafka publisher configuration", zap.Error(err))
			}
			publisher = kafkaPublisher
			appLog.Info("Kafka producer connected", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
		}
	}

	// Build dependency injection container
	container, err := di.NewContainer(&di.ContainerConfig{
		Config:    cfg,
		Logger:    appLog,
		DB:        db,
		Redis:     redisClient,
		Publisher: publisher,
	})
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}
	appLog.Info("Token codec ready", zap.String("algorithm", container.Codec.Algorithm()))

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := di.NewRouter(container)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	// Start server in goroutine
	go func() {
		appLog.Info("Auth service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	appLog.Info("Server exited gracefully")
}
