package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jimdaga/frequency/internal/auth"
	"github.com/jimdaga/frequency/internal/config"
	"github.com/jimdaga/frequency/internal/database"
	"github.com/jimdaga/frequency/internal/logging"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/reminders"
	"github.com/jimdaga/frequency/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))

	db, err := database.Init(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.SeedDevData {
		if err := database.SeedDevData(db); err != nil {
			log.Fatalf("Failed to seed dev data: %v", err)
		}
	}

	if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
		log.Fatalf("Failed to initialize token encryption: %v", err)
	}

	google := auth.InitProviders(cfg)
	if google == nil {
		slog.Warn("Google OAuth not configured, /auth/google will answer 400")
	}

	// Embedded reminder worker and scheduler
	var stopWorker, stopScheduler func()
	if cfg.RemindersEnabled() {
		if stopWorker, err = reminders.Start(cfg, db); err != nil {
			log.Fatalf("Failed to start reminder worker: %v", err)
		}
		if stopScheduler, err = reminders.StartScheduler(cfg); err != nil {
			stopWorker()
			log.Fatalf("Failed to start reminder scheduler: %v", err)
		}
	} else {
		slog.Info("REDIS_URL not set, reminders disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(cfg, db, google),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("Shutting down")

	if stopScheduler != nil {
		stopScheduler()
	}
	if stopWorker != nil {
		stopWorker()
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	slog.Info("Server stopped")
}
