// Package reminders runs the background jobs that nudge users about actions
// with reminders enabled: a per-minute scan that finds due actions and a
// delivery task per action.
package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/frequency/internal/actions"
	"github.com/redis/go-redis/v9"
)

// Task type constants
const (
	TaskScanReminders   = "reminder:scan"
	TaskDeliverReminder = "reminder:deliver"
)

// ScanSchedule runs the scan at the top of every minute.
const ScanSchedule = "* * * * *"

const (
	lastRunKeyPrefix = "reminders:last-run:"
	lastRunTTL       = 10 * time.Minute
)

// catchUpSlots is how many minutes, counting the current one, each scan
// covers. A slot whose scan failed is released and picked up by the retry or
// by the next scheduled scan while it is still inside this window.
const catchUpSlots = 5

// DeliverPayload identifies one reminder delivery.
type DeliverPayload struct {
	ActionID string `json:"action_id"`
	Slot     string `json:"slot"`
}

// Slot returns the wall-clock HH:MM of now in loc and a key naming that minute.
func Slot(now time.Time, loc *time.Location) (hhmm, key string) {
	local := now.In(loc)
	return local.Format("15:04"), local.Format("2006-01-02T15:04")
}

// SlotLock guards against scanning the same minute twice. A slot is held
// once its scan starts and released again if the scan fails.
type SlotLock interface {
	Acquire(ctx context.Context, slot string) (bool, error)
	Release(ctx context.Context, slot string) error
}

// redisSlotLock records the last scanned slot with SETNX.
type redisSlotLock struct {
	rdb *redis.Client
}

func (l redisSlotLock) Acquire(ctx context.Context, slot string) (bool, error) {
	return l.rdb.SetNX(ctx, lastRunKeyPrefix+slot, time.Now().Unix(), lastRunTTL).Result()
}

func (l redisSlotLock) Release(ctx context.Context, slot string) error {
	return l.rdb.Del(ctx, lastRunKeyPrefix+slot).Err()
}

// Enqueuer is the part of asynq.Client the scanner needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scanner finds actions due at the current minute and enqueues a delivery for each.
type Scanner struct {
	actions  *actions.Store
	lock     SlotLock
	enqueuer Enqueuer
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewScanner creates a Scanner evaluating reminder times in loc.
func NewScanner(store *actions.Store, lock SlotLock, enqueuer Enqueuer, loc *time.Location, logger *slog.Logger) *Scanner {
	return &Scanner{
		actions:  store,
		lock:     lock,
		enqueuer: enqueuer,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Scan enqueues deliveries for the current minute and for any earlier minute
// of the catch-up window not yet scanned successfully. It returns how many
// deliveries it enqueued.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	now := s.now()

	enqueued := 0
	for i := catchUpSlots - 1; i >= 0; i-- {
		n, err := s.scanSlot(ctx, now.Add(-time.Duration(i)*time.Minute))
		enqueued += n
		if err != nil {
			return enqueued, err
		}
	}
	return enqueued, nil
}

func (s *Scanner) scanSlot(ctx context.Context, at time.Time) (int, error) {
	hhmm, slot := Slot(at, s.loc)

	acquired, err := s.lock.Acquire(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("failed to record scan slot: %w", err)
	}
	if !acquired {
		s.logger.Debug("Reminder slot already scanned", "slot", slot)
		return 0, nil
	}

	n, due, err := s.enqueueDue(ctx, hhmm, slot)
	if err != nil {
		if relErr := s.lock.Release(context.WithoutCancel(ctx), slot); relErr != nil {
			s.logger.Error("Failed to release reminder slot", "slot", slot, "error", relErr)
		}
		return n, err
	}

	if due > 0 {
		s.logger.Info("Reminder scan complete", "slot", slot, "due", due, "enqueued", n)
	}
	return n, nil
}

// enqueueDue enqueues one delivery per action due at hhmm. Deliveries already
// enqueued for slot are skipped by their task id.
func (s *Scanner) enqueueDue(ctx context.Context, hhmm, slot string) (enqueued, due int, err error) {
	dueActions, err := s.actions.ListReminders(ctx, hhmm)
	if err != nil {
		return 0, 0, err
	}

	for _, action := range dueActions {
		payload, err := json.Marshal(DeliverPayload{ActionID: action.ID, Slot: slot})
		if err != nil {
			return enqueued, len(dueActions), fmt.Errorf("failed to marshal payload: %w", err)
		}

		task := asynq.NewTask(TaskDeliverReminder, payload,
			asynq.TaskID("reminder:"+action.ID+":"+slot),
			asynq.MaxRetry(3),
			asynq.Timeout(time.Minute),
			asynq.Retention(24*time.Hour),
		)
		if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			return enqueued, len(dueActions), fmt.Errorf("failed to enqueue reminder for action %s: %w", action.ID, err)
		}
		enqueued++
	}
	return enqueued, len(dueActions), nil
}

// HandleScan is the asynq handler for TaskScanReminders.
func (s *Scanner) HandleScan(ctx context.Context, task *asynq.Task) error {
	_, err := s.Scan(ctx)
	return err
}
