// Package actions stores user-defined actions and serves the /actions routes.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/patch"
	"gorm.io/gorm"
)

// Input is the body of a create request. Nil fields take their defaults.
type Input struct {
	Name             string  `json:"name"`
	Icon             *string `json:"icon"`
	Color            *string `json:"color"`
	RemindersEnabled *bool   `json:"remindersEnabled"`
	ReminderTime     *string `json:"reminderTime"`
}

// Patch is the body of an update request.
type Patch struct {
	Name             patch.Field[string] `json:"name"`
	Icon             patch.Field[string] `json:"icon"`
	Color            patch.Field[string] `json:"color"`
	RemindersEnabled patch.Field[bool]   `json:"remindersEnabled"`
	ReminderTime     patch.Field[string] `json:"reminderTime"`
}

// Store is the owner-scoped action repository.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns userID's actions, oldest first.
func (s *Store) List(ctx context.Context, userID string) ([]models.Action, error) {
	actions := []models.Action{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&actions).Error
	if err != nil {
		return nil, apperr.Internal("failed to list actions", err)
	}
	return actions, nil
}

// Get returns one of userID's actions.
func (s *Store) Get(ctx context.Context, userID, id string) (*models.Action, error) {
	var action models.Action
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load action", err)
	}
	return &action, nil
}

// Create stores a new action for userID.
func (s *Store) Create(ctx context.Context, userID string, in Input) (*models.Action, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}

	reminderTime := models.DefaultReminderTime
	if in.ReminderTime != nil {
		if !models.ValidReminderTime(*in.ReminderTime) {
			return nil, apperr.Validation("reminderTime must be HH:MM")
		}
		reminderTime = *in.ReminderTime
	}

	action := models.Action{
		UserID:       userID,
		Name:         name,
		Icon:         valueOr(in.Icon, models.DefaultActionIcon),
		Color:        valueOr(in.Color, models.DefaultActionColor),
		ReminderTime: &reminderTime,
	}
	if in.RemindersEnabled != nil {
		action.RemindersEnabled = *in.RemindersEnabled
	}

	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		return nil, apperr.Internal("failed to create action", err)
	}
	return &action, nil
}

// Update applies p to one of userID's actions. Absent fields are untouched.
func (s *Store) Update(ctx context.Context, userID, id string, p Patch) (*models.Action, error) {
	updates, err := p.updates()
	if err != nil {
		return nil, err
	}

	action, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return action, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Action{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return nil, apperr.Internal("failed to update action", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("Not found")
	}

	return s.Get(ctx, userID, id)
}

func (p Patch) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if p.Name.Null || name == "" {
			return nil, apperr.Validation("Name is required")
		}
		updates["name"] = name
	}
	if p.Icon.Set {
		updates["icon"] = clearTo(p.Icon, models.DefaultActionIcon)
	}
	if p.Color.Set {
		updates["color"] = clearTo(p.Color, models.DefaultActionColor)
	}
	if p.RemindersEnabled.Set {
		updates["reminders_enabled"] = p.RemindersEnabled.HasValue() && p.RemindersEnabled.Value
	}
	if p.ReminderTime.Set {
		if p.ReminderTime.Null {
			updates["reminder_time"] = gorm.Expr("NULL")
		} else {
			if !models.ValidReminderTime(p.ReminderTime.Value) {
				return nil, apperr.Validation("reminderTime must be HH:MM")
			}
			updates["reminder_time"] = p.ReminderTime.Value
		}
	}

	return updates, nil
}

// Delete removes one of userID's actions. Logs that referenced it are kept
// with their action cleared.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Action{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return apperr.Internal("failed to load action", err)
		}
		if count == 0 {
			return apperr.NotFound("Not found")
		}

		if err := tx.Model(&models.ActionLog{}).
			Where("action_id = ?", id).
			Update("action_id", gorm.Expr("NULL")).Error; err != nil {
			return apperr.Internal("failed to detach action logs", err)
		}

		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Action{})
		if result.Error != nil {
			return apperr.Internal("failed to delete action", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("Not found")
		}
		return nil
	})
}

// ListReminders returns every action with reminders enabled at hhmm.
func (s *Store) ListReminders(ctx context.Context, hhmm string) ([]models.Action, error) {
	var actions []models.Action
	err := s.db.WithContext(ctx).
		Where("reminders_enabled = ? AND reminder_time = ?", true, hhmm).
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return actions, nil
}

func valueOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func clearTo(f patch.Field[string], def string) string {
	if f.Null {
		return def
	}
	return f.Value
}
