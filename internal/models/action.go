package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action defaults
const (
	DefaultActionIcon   = "book"
	DefaultActionColor  = "bg-primary"
	DefaultReminderTime = "08:00"
)

var reminderTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidReminderTime reports whether s is a 24-hour HH:MM time.
func ValidReminderTime(s string) bool {
	return reminderTimePattern.MatchString(s)
}

// Action is a user-defined habit that can be logged repeatedly
type Action struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	User             User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Name             string    `gorm:"not null" json:"name"`
	Icon             string    `gorm:"not null;default:'book'" json:"icon"`
	Color            string    `gorm:"not null;default:'bg-primary'" json:"color"`
	RemindersEnabled bool      `gorm:"not null;default:false;index:idx_actions_reminders,priority:1" json:"remindersEnabled"`
	ReminderTime     *string   `gorm:"type:varchar(5);index:idx_actions_reminders,priority:2" json:"reminderTime"`
	CreatedAt        time.Time `json:"createdAt"`
}

// BeforeCreate assigns an id
func (a *Action) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
