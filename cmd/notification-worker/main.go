package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/notificationrepo"
	"orderflow/internal/adapters/out/rabbitmq"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/platform/observability"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// notification-worker consumes order events from RabbitMQ and stores the
// notifications they carry.
func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instruments, shutdownTelemetry, err := observability.Init(ctx, observability.Config{
		ServiceName:  "orderflow-notification-worker",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:     slog.LevelInfo,
		LogOutput:    os.Stdout,
	})
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	logger := instruments.Logger

	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		log.Fatalf("RABBITMQ_URL is required")
	}

	db, err := postgres.Connect(postgres.ConnectionConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err = postgres.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	client, err := rabbitmq.Dial(ctx, url, rabbitmq.Topology{
		Exchange: os.Getenv("NOTIFICATION_EXCHANGE"),
		Queue:    os.Getenv("NOTIFICATION_QUEUE"),
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}

	sink := notificationrepo.NewGormNotificationSink(db, kernel.SystemClock)
	consumer := rabbitmq.NewConsumer(client, client.Topology().Queue, sink, logger)

	logger.Info("notification worker started", "queue", client.Topology().Queue)
	consumer.Run(ctx)
	logger.Info("notification worker stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = client.Close(); err != nil {
		logger.Error("failed to close RabbitMQ connection", "error", err)
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	if err = shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("failed to flush telemetry", "error", err)
	}
}
