package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/markbates/goth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProviderGoogle is the AuthIdentity provider name for Google sign-in.
const ProviderGoogle = "google"

// Session is returned by register and login: a bearer token plus the public user.
type Session struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Service owns user credentials and issues session tokens.
type Service struct {
	db         *gorm.DB
	tokens     *TokenManager
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a Service. A bcryptCost of 0 selects DefaultBcryptCost.
func NewService(db *gorm.DB, tokens *TokenManager, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &Service{db: db, tokens: tokens, bcryptCost: bcryptCost}
}

// Tokens exposes the token manager for the auth middleware.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to look up user", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Email already in use")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = localPart(email)
	}

	user := models.User{Email: email, Name: name, PasswordHash: &hash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Email already in use")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	slog.Info("User registered", "user_id", user.ID)
	return s.session(&user)
}

// Login checks a password and signs the user in. Unknown emails, OAuth-only
// accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.rejectLogin(password)
	}
	if err != nil {
		return nil, apperr.Internal("failed to look up user", err)
	}

	if user.PasswordHash == nil {
		return nil, s.rejectLogin(password)
	}
	if !CheckPassword(*user.PasswordHash, password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return s.session(&user)
}

// rejectLogin spends one bcrypt comparison, like a wrong password would, so
// response time does not reveal whether the account exists.
func (s *Service) rejectLogin(password string) error {
	s.dummyOnce.Do(func() {
		hash, err := HashPassword("frequency-login-placeholder", s.bcryptCost)
		if err != nil {
			slog.Error("Failed to prepare placeholder password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		CheckPassword(s.dummyHash, password)
	}
	return apperr.Unauthorized("Invalid credentials")
}

// Me returns the public view of userID.
func (s *Service) Me(ctx context.Context, userID string) (models.PublicUser, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PublicUser{}, apperr.NotFound("Not found")
	}
	if err != nil {
		return models.PublicUser{}, apperr.Internal("failed to load user", err)
	}
	return user.Public(), nil
}

// IssueFor signs a token for an already resolved user.
func (s *Service) IssueFor(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Internal("failed to issue token", err)
	}
	return token, nil
}

// ResolveGoogleUser maps a Google profile to a local user: by Google id, then
// by email (linking the Google id to the existing account), else a new
// OAuth-only account. The provider identity row is upserted every time.
func (s *Service) ResolveGoogleUser(ctx context.Context, gu goth.User) (*models.User, error) {
	if gu.UserID == "" {
		return nil, apperr.Upstream("Google profile has no id", nil)
	}
	email := models.NormalizeEmail(gu.Email)
	if email == "" {
		return nil, apperr.Upstream("Google profile has no email", nil)
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", gu.UserID).First(&user).Error
		if err == nil {
			return upsertIdentity(tx, &user, gu)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up user by google id: %w", err)
		}

		err = tx.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			googleID := gu.UserID
			updates := map[string]interface{}{"google_id": googleID}
			if gu.AvatarURL != "" {
				updates["avatar_url"] = gu.AvatarURL
			}
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to link google account: %w", err)
			}
			user.GoogleID = &googleID
			if gu.AvatarURL != "" {
				avatar := gu.AvatarURL
				user.AvatarURL = &avatar
			}
			slog.Info("Linked Google account to existing user", "user_id", user.ID)
		case errors.Is(err, gorm.ErrRecordNotFound):
			googleID := gu.UserID
			user = models.User{
				Email:    email,
				Name:     googleName(gu, email),
				GoogleID: &googleID,
			}
			if gu.AvatarURL != "" {
				avatar := gu.AvatarURL
				user.AvatarURL = &avatar
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			slog.Info("User created from Google sign-in", "user_id", user.ID)
		default:
			return fmt.Errorf("failed to look up user by email: %w", err)
		}

		return upsertIdentity(tx, &user, gu)
	})
	if err != nil {
		return nil, apperr.Internal("failed to resolve google user", err)
	}
	return &user, nil
}

func upsertIdentity(tx *gorm.DB, user *models.User, gu goth.User) error {
	profile, err := json.Marshal(gu.RawData)
	if err != nil {
		return fmt.Errorf("failed to encode provider profile: %w", err)
	}

	var identity models.AuthIdentity
	err = tx.Where("provider = ? AND provider_user_id = ?", ProviderGoogle, gu.UserID).First(&identity).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up auth identity: %w", err)
	}

	identity.UserID = user.ID
	identity.Provider = ProviderGoogle
	identity.ProviderUserID = gu.UserID
	identity.AccessToken = gu.AccessToken
	if gu.RefreshToken != "" {
		// Google only returns a refresh token on first consent.
		identity.RefreshToken = gu.RefreshToken
	}
	identity.TokenExpiry = nil
	if !gu.ExpiresAt.IsZero() {
		expiry := gu.ExpiresAt
		identity.TokenExpiry = &expiry
	}
	identity.Profile = datatypes.JSON(profile)

	if err := tx.Save(&identity).Error; err != nil {
		return fmt.Errorf("failed to save auth identity: %w", err)
	}
	return nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.IssueFor(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user.Public()}, nil
}

func googleName(gu goth.User, email string) string {
	if name := strings.TrimSpace(gu.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(gu.FirstName + " " + gu.LastName); name != "" {
		return name
	}
	return localPart(email)
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
