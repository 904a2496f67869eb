package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionLog is one occurrence of an action (or an untyped quick log).
// LoggedAt keeps the ISO-8601 text as submitted so its date prefix is the
// day the user logged it.
type ActionLog struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	ActionID  *string   `gorm:"type:varchar(36);index" json:"actionId"`
	Action    *Action   `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	LoggedAt  string    `gorm:"not null;index" json:"loggedAt"`
	Note      string    `gorm:"not null;default:''" json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate assigns an id
func (l *ActionLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{&User{}, &Action{}, &ActionLog{}, &AuthIdentity{}}
}
