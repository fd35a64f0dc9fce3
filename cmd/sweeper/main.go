package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qrtist/backend/internal/config"
	"github.com/qrtist/backend/internal/logger"
	"github.com/qrtist/backend/internal/repositories"
	"github.com/qrtist/backend/internal/storage"
	"github.com/qrtist/backend/internal/sweeper"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting QRtist artifact sweeper",
		zap.String("schedule", cfg.Sweep.Schedule),
		zap.Duration("grace_period", cfg.Sweep.GracePeriod),
	)

	// Connect to database
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(2)
	if err := db.Ping(); err != nil {
		logger.Logger.Fatal("Failed to ping database", zap.Error(err))
	}

	artifactStore := storage.NewArtifactStore(cfg.MediaBasePath)
	qrRepo := repositories.NewQRCodeRepository(db, logger.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := sweeper.New(artifactStore, qrRepo, cfg.Sweep.GracePeriod, logger.Logger)
	scheduler, err := sw.Schedule(ctx, cfg.Sweep.Schedule)
	if err != nil {
		logger.Logger.Fatal("Failed to schedule sweeper", zap.Error(err))
	}
	scheduler.Start()

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Sweep.MetricsPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Logger.Info("Metrics server starting", zap.Int("port", cfg.Sweep.MetricsPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down sweeper...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Logger.Warn("Sweep still running at shutdown")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Metrics server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Sweeper exited")
}
