package main

import (
	"log"
	"log/slog"

	"github.com/jimdaga/frequency/internal/config"
	"github.com/jimdaga/frequency/internal/database"
	"github.com/jimdaga/frequency/internal/logging"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/reminders"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))

	if !cfg.RemindersEnabled() {
		log.Fatal("REDIS_URL is required for the reminder worker")
	}

	db, err := database.Init(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
		log.Fatalf("Failed to initialize token encryption: %v", err)
	}

	stopScheduler, err := reminders.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}
	defer stopScheduler()

	// Run blocks until SIGINT/SIGTERM
	if err := reminders.Run(cfg, db); err != nil {
		slog.Error("Worker stopped with error", "error", err)
	}
}
