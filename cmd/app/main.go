package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"orderflow/cmd"
	"orderflow/internal/platform/observability"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs := getConfigs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instruments, shutdownTelemetry, err := observability.Init(ctx, observability.Config{
		ServiceName:  "orderflow",
		Environment:  configs.Environment,
		OTLPEndpoint: configs.OTLPEndpoint,
		LogLevel:     slog.LevelInfo,
		LogOutput:    os.Stdout,
	})
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}

	app, err := cmd.NewCompositionRoot(ctx, configs, instruments)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("failed to start jobs: %v", err)
	}

	if err = startWebServer(ctx, app, configs.HTTPPort); err != nil {
		instruments.Logger.Error("web server stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	jobManager.StopAll()
	if err = app.Close(shutdownCtx); err != nil {
		instruments.Logger.Error("failed to release resources", "error", err)
	}
	if err = shutdownTelemetry(shutdownCtx); err != nil {
		instruments.Logger.Error("failed to flush telemetry", "error", err)
	}
}

func getConfigs() cmd.Config {
	loadDotEnv()

	config := cmd.Config{
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		Environment:           os.Getenv("ENVIRONMENT"),
		DBHost:                os.Getenv("DB_HOST"),
		DBPort:                envOrDefault("DB_PORT", "5432"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                os.Getenv("DB_NAME"),
		DBSslMode:             os.Getenv("DB_SSLMODE"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		AdminIDs:              listVariable("ADMIN_IDS"),
		RabbitMQURL:           os.Getenv("RABBITMQ_URL"),
		NotificationExchange:  os.Getenv("NOTIFICATION_EXCHANGE"),
		NotificationQueue:     os.Getenv("NOTIFICATION_QUEUE"),
		NotificationWorkers:   intVariable("NOTIFICATION_WORKERS"),
		NotificationQueueSize: intVariable("NOTIFICATION_QUEUE_SIZE"),
		CapabilityPolicyFile:  os.Getenv("CAPABILITY_POLICY_FILE"),
		StatusReportSchedule:  os.Getenv("STATUS_REPORT_SCHEDULE"),
		OTLPEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	return config
}

// loadDotEnv reads .env when present. Variables already set in the
// environment take precedence.
func loadDotEnv() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intVariable(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, raw)
	}
	return n
}

func listVariable(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string) error {
	e, err := app.CreateRouter(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
