package logs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/database"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/patch"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(database.DriverSQLite, filepath.Join(t.TempDir(), "logs.db"))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) string {
	t.Helper()
	user := models.User{Email: email}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func createAction(t *testing.T, db *gorm.DB, userID, name string) string {
	t.Helper()
	action := models.Action{UserID: userID, Name: name}
	if err := db.Create(&action).Error; err != nil {
		t.Fatalf("create action: %v", err)
	}
	return action.ID
}

func mustCreate(t *testing.T, s *Store, userID string, in Input) *Entry {
	t.Helper()
	entry, err := s.Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("Create(%+v): %v", in, err)
	}
	return entry
}

func TestCreateJoinsAction(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	actionID := createAction(t, db, userID, "Read")

	entry := mustCreate(t, store, userID, Input{ActionID: &actionID, LoggedAt: "2025-10-14T09:00:00.000Z"})
	if entry.Action == nil || entry.Action.Name != "Read" {
		t.Errorf("expected joined action, got %+v", entry.Action)
	}
	if entry.Log.Note != "" {
		t.Errorf("expected empty default note, got %q", entry.Log.Note)
	}
	if entry.Log.LoggedAt != "2025-10-14T09:00:00.000Z" {
		t.Errorf("loggedAt must be stored as given, got %q", entry.Log.LoggedAt)
	}

	quick := mustCreate(t, store, userID, Input{LoggedAt: "2025-10-14T10:00:00Z"})
	if quick.Action != nil || quick.Log.ActionID != nil {
		t.Errorf("quick log should have no action, got %+v", quick)
	}
}

func TestCreateValidation(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	otherID := createUser(t, db, "b@x.com")
	foreignAction := createAction(t, db, otherID, "Theirs")
	ctx := context.Background()

	cases := []struct {
		name string
		in   Input
	}{
		{"missing loggedAt", Input{}},
		{"unparseable loggedAt", Input{LoggedAt: "yesterday"}},
		{"foreign action", Input{ActionID: &foreignAction, LoggedAt: "2025-10-14T09:00:00Z"}},
	}
	for _, tc := range cases {
		if _, err := store.Create(ctx, userID, tc.in); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%s: expected Validation, got %v", tc.name, err)
		}
	}
}

func TestCreateAcceptsDateOnly(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")

	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-14"})

	entries, err := store.List(context.Background(), userID, Query{Date: "2025-10-14"})
	if err != nil || len(entries) != 1 || entries[0].Log.LoggedAt != "2025-10-14" {
		t.Fatalf("expected the date-only log stored as given, got %+v (%v)", entries, err)
	}
}

func TestListByDateUsesOwnDate(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")

	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-14T08:00:00Z", Note: strPtr("morning")})
	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-14T23:30:00-05:00", Note: strPtr("late")})
	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-15T01:00:00Z", Note: strPtr("next")})

	entries, err := store.List(context.Background(), userID, Query{Date: "2025-10-14"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 logs on Oct 14, got %d", len(entries))
	}
	// 23:30-05:00 is 04:30Z on the 15th, later than 08:00Z.
	if entries[0].Log.Note != "late" || entries[1].Log.Note != "morning" {
		t.Errorf("expected newest first, got %q then %q", entries[0].Log.Note, entries[1].Log.Note)
	}

	if _, err := store.List(context.Background(), userID, Query{Date: "14/10/2025"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad date: expected Validation, got %v", err)
	}
}

func TestListSince(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")

	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-13T11:00:00Z", Note: strPtr("old")})
	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-14T09:00:00Z", Note: strPtr("recent")})

	since := time.Date(2025, 10, 13, 12, 0, 0, 0, time.UTC)
	entries, err := store.List(context.Background(), userID, Query{Since: &since})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Log.Note != "recent" {
		t.Errorf("expected only the recent log, got %+v", entries)
	}

	all, _ := store.List(context.Background(), userID, Query{})
	if len(all) != 2 {
		t.Errorf("expected 2 logs without filters, got %d", len(all))
	}
}

func TestUpdateIsPartial(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	ctx := context.Background()

	entry := mustCreate(t, store, userID, Input{LoggedAt: "2025-10-14T09:00:00Z", Note: strPtr("first")})

	updated, err := store.Update(ctx, userID, entry.Log.ID, Patch{Note: patch.Of("edited")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Log.Note != "edited" || updated.Log.LoggedAt != "2025-10-14T09:00:00Z" {
		t.Errorf("unexpected update result %+v", updated.Log)
	}

	updated, err = store.Update(ctx, userID, entry.Log.ID, Patch{LoggedAt: patch.Of("2025-10-13T07:00"), Note: patch.Null[string]()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Log.Note != "" || updated.Log.LoggedAt != "2025-10-13T07:00" {
		t.Errorf("unexpected update result %+v", updated.Log)
	}

	if _, err := store.Update(ctx, userID, entry.Log.ID, Patch{LoggedAt: patch.Null[string]()}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("clearing loggedAt: expected Validation, got %v", err)
	}
}

func TestOwnershipAndRepeatDelete(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	owner := createUser(t, db, "owner@x.com")
	other := createUser(t, db, "other@x.com")
	ctx := context.Background()

	entry := mustCreate(t, store, owner, Input{LoggedAt: "2025-10-14T09:00:00Z"})

	if _, err := store.Get(ctx, other, entry.Log.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("foreign get: expected NotFound, got %v", err)
	}
	if _, err := store.Update(ctx, other, entry.Log.ID, Patch{Note: patch.Of("x")}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("foreign update: expected NotFound, got %v", err)
	}
	if err := store.Delete(ctx, other, entry.Log.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("foreign delete: expected NotFound, got %v", err)
	}

	if err := store.Delete(ctx, owner, entry.Log.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, owner, entry.Log.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second delete: expected NotFound, got %v", err)
	}
}

func TestRecords(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	actionID := createAction(t, db, userID, "Read")

	mustCreate(t, store, userID, Input{ActionID: &actionID, LoggedAt: "2025-10-14T09:00:00Z"})
	mustCreate(t, store, userID, Input{LoggedAt: "2025-10-15T09:00:00Z"})

	records, err := store.Records(context.Background(), userID)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	byAction, err := store.ActionRecords(context.Background(), actionID)
	if err != nil {
		t.Fatalf("ActionRecords: %v", err)
	}
	if len(byAction) != 1 || byAction[0].ActionID != actionID {
		t.Errorf("expected one record for the action, got %+v", byAction)
	}
}

func strPtr(s string) *string { return &s }
