package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account holder. Email is stored lowercased; PasswordHash is nil
// for accounts created through Google sign-in.
type User struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)"`
	Email        string  `gorm:"uniqueIndex;not null"`
	PasswordHash *string `gorm:"column:password_hash"`
	Name         string  `gorm:"not null;default:''"`
	AvatarURL    *string `gorm:"column:avatar_url"`
	GoogleID     *string `gorm:"column:google_id;uniqueIndex"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the only user representation returned to clients.
type PublicUser struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

// Public strips credentials and provider ids.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
}

// BeforeCreate assigns an id and normalizes the email.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NormalizeEmail trims and lowercases an address before any lookup or write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
