// Package logs stores action logs and serves the /logs routes, including
// the daily stats and calendar summaries.
package logs

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/patch"
	"github.com/jimdaga/frequency/internal/stats"
	"gorm.io/gorm"
)

// Entry is a log joined with its action, which is nil for quick logs and for
// logs whose action was deleted.
type Entry struct {
	Log    models.ActionLog `json:"log"`
	Action *models.Action   `json:"action"`
}

func entryOf(l models.ActionLog) Entry {
	action := l.Action
	l.Action = nil
	return Entry{Log: l, Action: action}
}

// Query narrows List. Zero values mean no filter.
type Query struct {
	Date  string     // YYYY-MM-DD, matched against the log's own date
	Since *time.Time // keep logs at or after this instant
}

// Input is the body of a create request.
type Input struct {
	ActionID *string `json:"actionId"`
	LoggedAt string  `json:"loggedAt"`
	Note     *string `json:"note"`
}

// Patch is the body of an update request.
type Patch struct {
	LoggedAt patch.Field[string] `json:"loggedAt"`
	Note     patch.Field[string] `json:"note"`
}

// Store is the owner-scoped action log repository.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns userID's logs matching q, newest first.
func (s *Store) List(ctx context.Context, userID string, q Query) ([]Entry, error) {
	tx := s.db.WithContext(ctx).Preload("Action").Where("user_id = ?", userID)
	if q.Date != "" {
		if _, err := stats.ParseDate(q.Date); err != nil {
			return nil, apperr.Validation("date must be YYYY-MM-DD")
		}
		tx = tx.Where("logged_at LIKE ?", q.Date+"%")
	}

	var rows []models.ActionLog
	if err := tx.Find(&rows).Error; err != nil {
		return nil, apperr.Internal("failed to list logs", err)
	}

	type timed struct {
		log models.ActionLog
		at  time.Time
	}
	kept := make([]timed, 0, len(rows))
	for _, row := range rows {
		at, err := stats.ParseTimestamp(row.LoggedAt)
		if q.Since != nil && (err != nil || at.Before(*q.Since)) {
			continue
		}
		kept = append(kept, timed{log: row, at: at})
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !kept[i].at.Equal(kept[j].at) {
			return kept[i].at.After(kept[j].at)
		}
		return kept[i].log.LoggedAt > kept[j].log.LoggedAt
	})

	entries := make([]Entry, 0, len(kept))
	for _, k := range kept {
		entries = append(entries, entryOf(k.log))
	}
	return entries, nil
}

// Records loads every log of userID in the shape the stats package needs.
func (s *Store) Records(ctx context.Context, userID string) ([]stats.Record, error) {
	var rows []models.ActionLog
	err := s.db.WithContext(ctx).
		Select("action_id", "logged_at").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal("failed to load logs", err)
	}
	return toRecords(rows), nil
}

// ActionRecords loads the logs of one action.
func (s *Store) ActionRecords(ctx context.Context, actionID string) ([]stats.Record, error) {
	var rows []models.ActionLog
	err := s.db.WithContext(ctx).
		Select("action_id", "logged_at").
		Where("action_id = ?", actionID).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal("failed to load logs", err)
	}
	return toRecords(rows), nil
}

func toRecords(rows []models.ActionLog) []stats.Record {
	records := make([]stats.Record, 0, len(rows))
	for _, row := range rows {
		r, err := stats.NewRecord(row.ActionID, row.LoggedAt)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records
}

// Get returns one of userID's logs.
func (s *Store) Get(ctx context.Context, userID, id string) (*Entry, error) {
	var row models.ActionLog
	err := s.db.WithContext(ctx).Preload("Action").
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load log", err)
	}
	entry := entryOf(row)
	return &entry, nil
}

// Create records a log for userID. The action, when given, must belong to userID.
func (s *Store) Create(ctx context.Context, userID string, in Input) (*Entry, error) {
	if strings.TrimSpace(in.LoggedAt) == "" {
		return nil, apperr.Validation("loggedAt is required")
	}
	if _, err := stats.ParseTimestamp(in.LoggedAt); err != nil {
		return nil, apperr.Validation("loggedAt must be an ISO-8601 timestamp")
	}

	row := models.ActionLog{UserID: userID, LoggedAt: in.LoggedAt}
	if in.Note != nil {
		row.Note = *in.Note
	}
	if in.ActionID != nil && *in.ActionID != "" {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Action{}).
			Where("id = ? AND user_id = ?", *in.ActionID, userID).
			Count(&count).Error
		if err != nil {
			return nil, apperr.Internal("failed to look up action", err)
		}
		if count == 0 {
			return nil, apperr.Validation("Unknown actionId")
		}
		actionID := *in.ActionID
		row.ActionID = &actionID
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperr.Internal("failed to create log", err)
	}
	return s.Get(ctx, userID, row.ID)
}

// Update applies p to one of userID's logs. Absent fields are untouched.
func (s *Store) Update(ctx context.Context, userID, id string, p Patch) (*Entry, error) {
	updates := map[string]interface{}{}
	if p.LoggedAt.Set {
		if p.LoggedAt.Null || strings.TrimSpace(p.LoggedAt.Value) == "" {
			return nil, apperr.Validation("loggedAt is required")
		}
		if _, err := stats.ParseTimestamp(p.LoggedAt.Value); err != nil {
			return nil, apperr.Validation("loggedAt must be an ISO-8601 timestamp")
		}
		updates["logged_at"] = p.LoggedAt.Value
	}
	if p.Note.Set {
		updates["note"] = p.Note.Value // null clears to ""
	}

	if len(updates) == 0 {
		return s.Get(ctx, userID, id)
	}

	result := s.db.WithContext(ctx).Model(&models.ActionLog{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return nil, apperr.Internal("failed to update log", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("Not found")
	}
	return s.Get(ctx, userID, id)
}

// Delete removes one of userID's logs.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.ActionLog{})
	if result.Error != nil {
		return apperr.Internal("failed to delete log", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Not found")
	}
	return nil
}
