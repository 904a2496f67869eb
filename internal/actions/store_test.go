package actions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/database"
	"github.com/jimdaga/frequency/internal/models"
	"github.com/jimdaga/frequency/internal/patch"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(database.DriverSQLite, filepath.Join(t.TempDir(), "actions.db"))
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

func strPtr(s string) *string { return &s }

func TestCreateAppliesDefaults(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")

	action, err := store.Create(context.Background(), userID, Input{Name: "  Read  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if action.Name != "Read" {
		t.Errorf("expected trimmed name, got %q", action.Name)
	}
	if action.Icon != "book" || action.Color != "bg-primary" {
		t.Errorf("expected default icon/color, got %q/%q", action.Icon, action.Color)
	}
	if action.RemindersEnabled {
		t.Error("reminders should default to off")
	}
	if action.ReminderTime == nil || *action.ReminderTime != "08:00" {
		t.Errorf("expected default reminder time 08:00, got %v", action.ReminderTime)
	}
}

func TestCreateValidation(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	ctx := context.Background()

	if _, err := store.Create(ctx, userID, Input{Name: "   "}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank name: expected Validation, got %v", err)
	}
	if _, err := store.Create(ctx, userID, Input{Name: "Run", ReminderTime: strPtr("24:00")}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad reminder time: expected Validation, got %v", err)
	}
}

func TestUpdateIsPartial(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	ctx := context.Background()

	enabled := true
	created, err := store.Create(ctx, userID, Input{
		Name:             "Water",
		Icon:             strPtr("droplet"),
		Color:            strPtr("bg-info"),
		RemindersEnabled: &enabled,
		ReminderTime:     strPtr("09:30"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := store.Update(ctx, userID, created.ID, Patch{Name: patch.Of("Drink water")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Drink water" {
		t.Errorf("expected new name, got %q", updated.Name)
	}
	if updated.Icon != "droplet" || updated.Color != "bg-info" || !updated.RemindersEnabled {
		t.Errorf("absent fields must be untouched, got %+v", updated)
	}
	if updated.ReminderTime == nil || *updated.ReminderTime != "09:30" {
		t.Errorf("reminder time must be untouched, got %v", updated.ReminderTime)
	}
}

func TestUpdateNullClears(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	ctx := context.Background()

	enabled := true
	created, _ := store.Create(ctx, userID, Input{Name: "Run", Icon: strPtr("activity"), RemindersEnabled: &enabled})

	updated, err := store.Update(ctx, userID, created.ID, Patch{
		Icon:             patch.Null[string](),
		RemindersEnabled: patch.Null[bool](),
		ReminderTime:     patch.Null[string](),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Icon != models.DefaultActionIcon {
		t.Errorf("cleared icon should reset to default, got %q", updated.Icon)
	}
	if updated.RemindersEnabled {
		t.Error("cleared remindersEnabled should be false")
	}
	if updated.ReminderTime != nil {
		t.Errorf("cleared reminder time should be NULL, got %q", *updated.ReminderTime)
	}

	if _, err := store.Update(ctx, userID, created.ID, Patch{Name: patch.Null[string]()}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("clearing name: expected Validation, got %v", err)
	}
	if _, err := store.Update(ctx, userID, created.ID, Patch{ReminderTime: patch.Of("7:00")}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad reminder time: expected Validation, got %v", err)
	}
}

func TestCrossUserAccessLooksMissing(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	owner := createUser(t, db, "owner@x.com")
	other := createUser(t, db, "other@x.com")
	ctx := context.Background()

	action, _ := store.Create(ctx, owner, Input{Name: "Private"})

	_, foreignErr := store.Get(ctx, other, action.ID)
	_, missingErr := store.Get(ctx, other, "does-not-exist")
	if !apperr.Is(foreignErr, apperr.KindNotFound) || foreignErr.Error() != missingErr.Error() {
		t.Errorf("foreign and missing must look identical: %v vs %v", foreignErr, missingErr)
	}

	if _, err := store.Update(ctx, other, action.ID, Patch{Name: patch.Of("Mine now")}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("foreign update: expected NotFound, got %v", err)
	}
	if err := store.Delete(ctx, other, action.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("foreign delete: expected NotFound, got %v", err)
	}

	list, _ := store.List(ctx, other)
	if len(list) != 0 {
		t.Errorf("other user should see no actions, got %d", len(list))
	}

	still, err := store.Get(ctx, owner, action.ID)
	if err != nil || still.Name != "Private" {
		t.Errorf("owner's action must be unchanged, got %+v (%v)", still, err)
	}
}

func TestDeleteKeepsLogsWithActionCleared(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	ctx := context.Background()

	action, _ := store.Create(ctx, userID, Input{Name: "Read"})
	entry := models.ActionLog{UserID: userID, ActionID: &action.ID, LoggedAt: "2025-10-14T09:00:00.000Z"}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create log: %v", err)
	}

	if err := store.Delete(ctx, userID, action.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var reloaded models.ActionLog
	if err := db.First(&reloaded, "id = ?", entry.ID).Error; err != nil {
		t.Fatalf("log should still exist: %v", err)
	}
	if reloaded.ActionID != nil {
		t.Errorf("expected actionId cleared, got %q", *reloaded.ActionID)
	}

	if err := store.Delete(ctx, userID, action.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second delete: expected NotFound, got %v", err)
	}
}

func TestListReminders(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	userID := createUser(t, db, "a@x.com")
	ctx := context.Background()

	on := true
	store.Create(ctx, userID, Input{Name: "Due", RemindersEnabled: &on, ReminderTime: strPtr("07:15")})
	store.Create(ctx, userID, Input{Name: "Disabled", ReminderTime: strPtr("07:15")})
	store.Create(ctx, userID, Input{Name: "Later", RemindersEnabled: &on, ReminderTime: strPtr("19:00")})

	due, err := store.ListReminders(ctx, "07:15")
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(due) != 1 || due[0].Name != "Due" {
		t.Errorf("expected only the enabled 07:15 action, got %+v", due)
	}
}

func TestValidateBody(t *testing.T) {
	valid := []string{
		`{"name":"Read"}`,
		`{"reminderTime":"23:59","remindersEnabled":true}`,
		`{"reminderTime":null,"icon":null}`,
		`{}`,
	}
	for _, body := range valid {
		if err := ValidateBody([]byte(body)); err != nil {
			t.Errorf("ValidateBody(%s): %v", body, err)
		}
	}

	invalid := []string{
		`{"reminderTime":"8:00"}`,
		`{"reminderTime":"24:00"}`,
		`{"remindersEnabled":"yes"}`,
		`{"name":42}`,
		`[]`,
		`not json`,
	}
	for _, body := range invalid {
		if err := ValidateBody([]byte(body)); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("ValidateBody(%s): expected Validation, got %v", body, err)
		}
	}
}
