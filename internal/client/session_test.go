package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if s.CurrentToken() != "" || s.CurrentUser() != nil {
		t.Fatal("expected empty session for missing file")
	}

	if err := s.SetSession("tok", &User{ID: "u1", Email: "a@b.com", Name: "A"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}

	reloaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if reloaded.CurrentToken() != "tok" || reloaded.CurrentUser() == nil || reloaded.CurrentUser().ID != "u1" {
		t.Errorf("unexpected reloaded session: %q %+v", reloaded.CurrentToken(), reloaded.CurrentUser())
	}

	if err := reloaded.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, got %v", err)
	}
}

func TestCurrentUserReturnsCopy(t *testing.T) {
	s := NewSession()
	s.SetSession("tok", &User{Name: "A"})
	s.CurrentUser().Name = "changed"
	if s.CurrentUser().Name != "A" {
		t.Error("CurrentUser should not expose internal state")
	}
}

func TestLoadSessionRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	os.WriteFile(path, []byte("{not json"), 0o600)
	if _, err := LoadSession(path); err == nil {
		t.Error("expected parse error")
	}
}
