package reminders

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/frequency/internal/config"
	"github.com/jimdaga/frequency/internal/logging"
)

// StartScheduler creates and starts an Asynq Scheduler that enqueues the
// reminder scan every minute. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	loc := location(cfg.ReminderTimezone)
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: loc,
			LogLevel: asynq.InfoLevel,
			Logger:   newAsynqLogger(logger),
		},
	)

	entryID, err := scheduler.Register(ScanSchedule, scanTask())
	if err != nil {
		return nil, fmt.Errorf("failed to register reminder scan: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info(
		"Scheduler started",
		"schedule", ScanSchedule,
		"timezone", loc.String(),
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}

func scanTask() *asynq.Task {
	return asynq.NewTask(
		TaskScanReminders,
		nil, // handler queries every due action
		asynq.MaxRetry(1),
		asynq.Timeout(50*time.Second),
		asynq.Unique(50*time.Second), // Prevent duplicate if two schedulers run
	)
}
