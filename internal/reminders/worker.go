package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/frequency/internal/actions"
	"github.com/jimdaga/frequency/internal/config"
	"github.com/jimdaga/frequency/internal/logging"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const workerConcurrency = 5

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, db *gorm.DB) error {
	w, err := newWorker(cfg, db)
	if err != nil {
		return err
	}
	defer w.close()

	// Run blocks and handles its own signal interception
	return w.srv.Run(w.mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, db *gorm.DB) (stop func(), err error) {
	w, err := newWorker(cfg, db)
	if err != nil {
		return nil, err
	}
	if err := w.srv.Start(w.mux); err != nil {
		w.close()
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() {
		w.srv.Shutdown()
		w.close()
	}, nil
}

type worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	client *asynq.Client
	rdb    *redis.Client
}

func (w *worker) close() {
	w.client.Close()
	w.rdb.Close()
}

func newWorker(cfg *config.Config, db *gorm.DB) (*worker, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	loc := location(cfg.ReminderTimezone)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     workerConcurrency,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          newAsynqLogger(logger),
		},
	)

	// Dedicated Redis client for the scan's last-run cache, separate from
	// the Asynq internal connection.
	rdb, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder Redis client: %w", err)
	}
	client := asynq.NewClient(redisOpt)

	scanner := NewScanner(actions.NewStore(db), redisSlotLock{rdb: rdb}, client, loc, logger)
	deliverer := NewDeliverer(db, NewNotifier(cfg, logger), loc, cfg.AppURL, logger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskScanReminders, scanner.HandleScan)
	mux.HandleFunc(TaskDeliverReminder, deliverer.HandleDeliver)

	logger.Info("Reminder worker starting", "concurrency", workerConcurrency, "timezone", loc.String())
	return &worker{srv: srv, mux: mux, client: client, rdb: rdb}, nil
}

func newRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Final failure: the task moves to the archive (dead letter queue)
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
