package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jimdaga/frequency/internal/logs"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/stats"
	"gorm.io/gorm"
)

// Deliverer sends one reminder unless the action was already logged today.
type Deliverer struct {
	db       *gorm.DB
	logs     *logs.Store
	notifier Notifier
	loc      *time.Location
	appURL   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewDeliverer creates a Deliverer. "Today" is the current date in loc.
func NewDeliverer(db *gorm.DB, notifier Notifier, loc *time.Location, appURL string, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		db:       db,
		logs:     logs.NewStore(db),
		notifier: notifier,
		loc:      loc,
		appURL:   appURL,
		logger:   logger,
		now:      time.Now,
	}
}

// Deliver reports whether a notification was sent.
func (d *Deliverer) Deliver(ctx context.Context, p DeliverPayload) (bool, error) {
	var action models.Action
	err := d.db.WithContext(ctx).Preload("User").Where("id = ?", p.ActionID).First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d.logger.Info("Reminder skipped, action deleted", "action_id", p.ActionID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load action: %w", err)
	}

	if !action.RemindersEnabled || action.ReminderTime == nil {
		d.logger.Info("Reminder skipped, reminders disabled", "action_id", action.ID)
		return false, nil
	}

	records, err := d.logs.ActionRecords(ctx, action.ID)
	if err != nil {
		return false, err
	}
	for i := range records {
		records[i].LoggedAt = records[i].LoggedAt.In(d.loc)
	}
	today := stats.DateOf(d.now().In(d.loc))
	if n := stats.DailyTotal(records, today, action.ID); n > 0 {
		d.logger.Info("Reminder skipped, already logged today", "action_id", action.ID, "logs_today", n)
		return false, nil
	}

	r := Reminder{
		UserID:       action.UserID,
		Email:        action.User.Email,
		Name:         action.User.Name,
		ActionID:     action.ID,
		ActionName:   action.Name,
		ReminderTime: *action.ReminderTime,
		AppURL:       d.appURL,
	}
	if err := d.notifier.Notify(ctx, r); err != nil {
		return false, err
	}

	d.logger.Info("Reminder delivered", "action_id", action.ID, "user_id", action.UserID, "slot", p.Slot)
	return true, nil
}

// HandleDeliver is the asynq handler for TaskDeliverReminder.
func (d *Deliverer) HandleDeliver(ctx context.Context, task *asynq.Task) error {
	var payload DeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.ActionID == "" {
		// Invalid payload - don't retry
		return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
	}

	_, err := d.Deliver(ctx, payload)
	return err
}
