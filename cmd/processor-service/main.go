package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-platform/internal/config"
	"payment-platform/internal/db"
	"payment-platform/internal/event"
	"payment-platform/internal/kafka"
	"payment-platform/internal/logging"
	"payment-platform/internal/metrics"
	"payment-platform/internal/processing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoadConfig("./config", "processor-service")

	logger := logging.GetLogger(cfg.Logs, "processor-service")
	slog.SetDefault(logger)

	metrics.Setup(cfg.Metrics)

	connStr := db.GetConnStr(cfg.Database)
	db.RunMigrations(connStr, "./migrations/processor")

	pool, err := db.GetPool(connStr)
	if err != nil {
		logger.Error("Failed to open database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := db.NewProcessingRepository(pool)
	service := processing.NewService(repo, logger)

	var webhook *processing.WebhookSender
	if cfg.Processing.WebhookURL != "" {
		webhook = processing.NewWebhookSender(cfg.Processing.WebhookURL, cfg.Processing.WebhookTimeoutMs, logger)
	}

	runner := processing.NewRunner(ctx, repo, webhook, cfg.Processing, logger)
	handler := processing.NewHandler(service, runner, logger)

	if cfg.Processing.IntakeEnabled && cfg.Kafka.Broker.URL != "" {
		reader := kafka.NewReader(cfg.Kafka)
		defer reader.Close()

		intake := event.NewIntake(service, logger)
		kafka.ReadPaymentEvents(ctx, reader, logger, intake.Process)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/liveness", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	handler.Register(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop <- syscall.SIGTERM
		}
	}()

	<-stop
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	logger.Info("Server exited")
}
