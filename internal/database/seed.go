package database

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/jimdaga/frequency/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedFixture describes development data.
type SeedFixture struct {
	User    SeedUser     `yaml:"user"`
	Actions []SeedAction `yaml:"actions"`
}

// SeedUser is the dev account.
type SeedUser struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// SeedAction is an action plus its recent logs.
type SeedAction struct {
	Name             string    `yaml:"name"`
	Icon             string    `yaml:"icon"`
	Color            string    `yaml:"color"`
	RemindersEnabled bool      `yaml:"reminders_enabled"`
	ReminderTime     string    `yaml:"reminder_time"`
	Logs             []SeedLog `yaml:"logs"`
}

// SeedLog places a log DaysAgo days before the seeding day at Time (HH:MM, UTC).
type SeedLog struct {
	DaysAgo int    `yaml:"days_ago"`
	Time    string `yaml:"time"`
	Note    string `yaml:"note"`
}

// ParseSeedFixture decodes a fixture, rejecting unknown keys.
func ParseSeedFixture(data []byte) (*SeedFixture, error) {
	var f SeedFixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	if f.User.Email == "" || f.User.Password == "" {
		return nil, fmt.Errorf("seed fixture: user email and password are required")
	}
	for _, a := range f.Actions {
		if a.ReminderTime != "" && !models.ValidReminderTime(a.ReminderTime) {
			return nil, fmt.Errorf("seed fixture: action %q has invalid reminder_time %q", a.Name, a.ReminderTime)
		}
		for _, l := range a.Logs {
			if _, err := time.Parse("15:04", l.Time); err != nil {
				return nil, fmt.Errorf("seed fixture: action %q has invalid log time %q", a.Name, l.Time)
			}
		}
	}
	return &f, nil
}

// SeedDevData populates the database with the embedded development fixture.
// Idempotent: skips if the dev user already exists.
func SeedDevData(db *gorm.DB) error {
	f, err := ParseSeedFixture(seedYAML)
	if err != nil {
		return err
	}
	return Seed(db, f, time.Now().UTC())
}

// Seed writes f, placing logs relative to now.
func Seed(db *gorm.DB, f *SeedFixture, now time.Time) error {
	email := models.NormalizeEmail(f.User.Email)

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	// MinCost keeps seeding fast; this account only exists in development.
	hash, err := bcrypt.GenerateFromPassword([]byte(f.User.Password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	hashStr := string(hash)

	return db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: email, Name: f.User.Name, PasswordHash: &hashStr}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		logCount := 0
		for _, sa := range f.Actions {
			action := models.Action{
				UserID:           user.ID,
				Name:             sa.Name,
				Icon:             orDefault(sa.Icon, models.DefaultActionIcon),
				Color:            orDefault(sa.Color, models.DefaultActionColor),
				RemindersEnabled: sa.RemindersEnabled,
			}
			rt := orDefault(sa.ReminderTime, models.DefaultReminderTime)
			action.ReminderTime = &rt
			if err := tx.Create(&action).Error; err != nil {
				return err
			}

			for _, sl := range sa.Logs {
				clock, _ := time.Parse("15:04", sl.Time)
				day := now.AddDate(0, 0, -sl.DaysAgo)
				at := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
				actionID := action.ID
				entry := models.ActionLog{
					UserID:   user.ID,
					ActionID: &actionID,
					LoggedAt: at.Format("2006-01-02T15:04:05.000Z"),
					Note:     sl.Note,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
				logCount++
			}
		}

		log.Printf("Seed data created: user=%s, actions=%d, logs=%d", user.Email, len(f.Actions), logCount)
		return nil
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
