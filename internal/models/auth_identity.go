package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/frequency/internal/crypto"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var encryptor *crypto.TokenEncryptor

// InitEncryption sets the encryptor used for provider tokens at rest.
// An empty key leaves tokens unencrypted.
func InitEncryption(encryptionKey string) error {
	if encryptionKey == "" {
		encryptor = nil
		return nil
	}
	var err error
	encryptor, err = crypto.NewTokenEncryptor(encryptionKey)
	return err
}

// AuthIdentity links a user to an external sign-in provider and keeps the
// provider's tokens and raw profile from the last login.
type AuthIdentity struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)"`
	UserID         string         `gorm:"type:varchar(36);not null;index"`
	User           User           `gorm:"constraint:OnDelete:CASCADE;"`
	Provider       string         `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user"`
	ProviderUserID string         `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user"`
	AccessToken    string         `gorm:"type:text"` // encrypted when a key is configured
	RefreshToken   string         `gorm:"type:text"` // encrypted when a key is configured
	TokenExpiry    *time.Time
	Profile        datatypes.JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeforeCreate assigns an id
func (a *AuthIdentity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave encrypts tokens before they reach the database.
func (a *AuthIdentity) BeforeSave(tx *gorm.DB) error {
	var err error
	if a.AccessToken, err = encryptor.Encrypt(a.AccessToken); err != nil {
		return err
	}
	if a.RefreshToken, err = encryptor.Encrypt(a.RefreshToken); err != nil {
		return err
	}
	return nil
}

// AfterSave restores plaintext on the in-memory struct.
func (a *AuthIdentity) AfterSave(tx *gorm.DB) error {
	return a.decrypt()
}

// AfterFind decrypts tokens after loading from database
func (a *AuthIdentity) AfterFind(tx *gorm.DB) error {
	return a.decrypt()
}

func (a *AuthIdentity) decrypt() error {
	var err error
	if a.AccessToken, err = encryptor.Decrypt(a.AccessToken); err != nil {
		return err
	}
	if a.RefreshToken, err = encryptor.Decrypt(a.RefreshToken); err != nil {
		return err
	}
	return nil
}
