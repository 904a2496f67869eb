package logs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/frequency/internal/auth"
	"github.com/jimdaga/frequency/internal/stats"
)

type testEnv struct {
	router *gin.Engine
	tokens *auth.TokenManager
	store  *Store
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := NewStore(openTestDB(t))
	tokens := auth.NewTokenManager("test-secret")

	h := NewHandler(store)
	h.now = func() time.Time { return now }

	r := gin.New()
	h.RegisterRoutes(r.Group("/logs", auth.RequireAuth(tokens)))
	return &testEnv{router: r, tokens: tokens, store: store}
}

func (e *testEnv) do(t *testing.T, userID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	token, _ := e.tokens.Issue(userID)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestStatsRoute(t *testing.T) {
	env := newTestEnv(t, time.Date(2025, 10, 14, 15, 0, 0, 0, time.UTC))
	userID := createUser(t, env.store.db, "a@x.com")

	for _, at := range []string{"2025-10-12T09:00:00Z", "2025-10-13T09:00:00Z", "2025-10-14T08:00:00Z", "2025-10-14T12:00:00Z"} {
		mustCreate(t, env.store, userID, Input{LoggedAt: at})
	}

	w := env.do(t, userID, http.MethodGet, "/logs/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		TotalToday    int    `json:"totalToday"`
		DateInfo      string `json:"dateInfo"`
		CurrentStreak int    `json:"currentStreak"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.TotalToday != 2 || body.DateInfo != "Today, Oct 14" || body.CurrentStreak != 3 {
		t.Errorf("unexpected stats %+v", body)
	}
}

func TestCalendarRoute(t *testing.T) {
	env := newTestEnv(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC))
	userID := createUser(t, env.store.db, "a@x.com")
	actionID := createAction(t, env.store.db, userID, "Run")

	mustCreate(t, env.store, userID, Input{ActionID: &actionID, LoggedAt: "2025-02-01T09:00:00Z"})
	mustCreate(t, env.store, userID, Input{LoggedAt: "2025-02-28T22:00:00Z"})
	mustCreate(t, env.store, userID, Input{LoggedAt: "2025-03-01T09:00:00Z"})
	mustCreate(t, env.store, userID, Input{LoggedAt: "2025-03-02T09:00:00Z"})

	w := env.do(t, userID, http.MethodGet, "/logs/calendar?year=2025&month=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cal stats.Calendar
	json.Unmarshal(w.Body.Bytes(), &cal)
	if cal.Month != 1 || cal.TotalThisMonth != 2 || len(cal.ActiveDays) != 2 || cal.ActiveDays[1] != 28 {
		t.Errorf("unexpected February summary %+v", cal)
	}
	if cal.CurrentStreak != 3 {
		t.Errorf("expected streak 3 (Feb 28 to Mar 2), got %d", cal.CurrentStreak)
	}

	w = env.do(t, userID, http.MethodGet, "/logs/calendar?year=2025&month=1&actionId="+actionID, "")
	json.Unmarshal(w.Body.Bytes(), &cal)
	if cal.TotalThisMonth != 1 || cal.CurrentStreak != 3 {
		t.Errorf("action filter applies to totals only, got %+v", cal)
	}

	w = env.do(t, userID, http.MethodGet, "/logs/calendar", "")
	json.Unmarshal(w.Body.Bytes(), &cal)
	if cal.Year != 2025 || cal.Month != 2 || cal.TotalThisMonth != 2 {
		t.Errorf("expected current month by default, got %+v", cal)
	}

	for _, q := range []string{"month=12", "month=-1", "month=x", "year=abc"} {
		if w := env.do(t, userID, http.MethodGet, "/logs/calendar?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestLogRoutes(t *testing.T) {
	env := newTestEnv(t, time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC))
	userID := createUser(t, env.store.db, "a@x.com")
	actionID := createAction(t, env.store.db, userID, "Read")

	w := env.do(t, userID, http.MethodPost, "/logs", `{"note":"no time"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing loggedAt: expected 400, got %d", w.Code)
	}

	w = env.do(t, userID, http.MethodPost, "/logs", `{"actionId":"`+actionID+`","loggedAt":"2025-10-14T09:00:00.000Z","note":"ch. 3"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created Entry
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Action == nil || created.Action.ID != actionID {
		t.Errorf("expected joined action, got %+v", created.Action)
	}

	mustCreate(t, env.store, userID, Input{LoggedAt: "2025-10-12T09:00:00Z"})

	w = env.do(t, userID, http.MethodGet, "/logs?last24h=true", "")
	var recent []Entry
	json.Unmarshal(w.Body.Bytes(), &recent)
	if len(recent) != 1 {
		t.Errorf("last24h: expected 1 log, got %d", len(recent))
	}

	w = env.do(t, userID, http.MethodPut, "/logs/"+created.Log.ID, `{"note":"ch. 4"}`)
	var updated Entry
	json.Unmarshal(w.Body.Bytes(), &updated)
	if w.Code != http.StatusOK || updated.Log.Note != "ch. 4" || updated.Log.LoggedAt != "2025-10-14T09:00:00.000Z" {
		t.Errorf("update: got %d %+v", w.Code, updated.Log)
	}

	w = env.do(t, userID, http.MethodGet, "/logs/"+created.Log.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", w.Code)
	}

	w = env.do(t, userID, http.MethodDelete, "/logs/"+created.Log.ID, "")
	if w.Code != http.StatusOK || w.Body.String() != `{"success":true}` {
		t.Errorf("delete: got %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, userID, http.MethodDelete, "/logs/"+created.Log.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}
