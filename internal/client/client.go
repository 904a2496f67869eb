// Package client is a typed Go client for the Frequency API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Action mirrors the API's action representation.
type Action struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	Icon             string    `json:"icon"`
	Color            string    `json:"color"`
	RemindersEnabled bool      `json:"remindersEnabled"`
	ReminderTime     *string   `json:"reminderTime"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Log mirrors the API's action log representation.
type Log struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ActionID  *string   `json:"actionId"`
	LoggedAt  string    `json:"loggedAt"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry is a log joined with its action.
type Entry struct {
	Log    Log     `json:"log"`
	Action *Action `json:"action"`
}

// Stats is the /logs/stats response.
type Stats struct {
	TotalToday    int    `json:"totalToday"`
	DateInfo      string `json:"dateInfo"`
	CurrentStreak int    `json:"currentStreak"`
}

// Calendar is the /logs/calendar response.
type Calendar struct {
	Year           int   `json:"year"`
	Month          int   `json:"month"`
	TotalThisMonth int   `json:"totalThisMonth"`
	ActiveDays     []int `json:"activeDays"`
	CurrentStreak  int   `json:"currentStreak"`
}

// NewAction is a create request. Nil fields take server defaults.
type NewAction struct {
	Name             string  `json:"name"`
	Icon             *string `json:"icon,omitempty"`
	Color            *string `json:"color,omitempty"`
	RemindersEnabled *bool   `json:"remindersEnabled,omitempty"`
	ReminderTime     *string `json:"reminderTime,omitempty"`
}

// NewLog is a create request.
type NewLog struct {
	ActionID *string `json:"actionId,omitempty"`
	LoggedAt string  `json:"loggedAt"`
	Note     string  `json:"note,omitempty"`
}

// LogQuery filters ListLogs.
type LogQuery struct {
	Date    string
	Last24h bool
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the API using the session's bearer token.
type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
}

// New creates a Client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.SetSession(resp.Token, &resp.User); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login signs in and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.SetSession(resp.Token, &resp.User); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UseToken adopts a token obtained elsewhere (the OAuth redirect fragment)
// and resolves its user.
func (c *Client) UseToken(ctx context.Context, token string) (*User, error) {
	if err := c.session.SetSession(token, nil); err != nil {
		return nil, err
	}
	user, err := c.Me(ctx)
	if err != nil {
		c.session.ClearSession()
		return nil, err
	}
	if err := c.session.SetSession(token, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout forgets the session locally. Tokens are stateless, so there is no
// server call.
func (c *Client) Logout() error {
	return c.session.ClearSession()
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActions returns the caller's actions.
func (c *Client) ListActions(ctx context.Context) ([]Action, error) {
	var actions []Action
	if err := c.do(ctx, http.MethodGet, "/actions", nil, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// CreateAction adds an action.
func (c *Client) CreateAction(ctx context.Context, in NewAction) (*Action, error) {
	var action Action
	if err := c.do(ctx, http.MethodPost, "/actions", in, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

// UpdateAction sends a partial update. Keys mapped to nil clear the field.
func (c *Client) UpdateAction(ctx context.Context, id string, fields map[string]interface{}) (*Action, error) {
	var action Action
	if err := c.do(ctx, http.MethodPut, "/actions/"+url.PathEscape(id), fields, &action); err != nil {
		return nil, err
	}
	return &action, nil
}

// DeleteAction removes an action.
func (c *Client) DeleteAction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/actions/"+url.PathEscape(id), nil, nil)
}

// ListLogs returns logs joined with their action.
func (c *Client) ListLogs(ctx context.Context, q LogQuery) ([]Entry, error) {
	params := url.Values{}
	if q.Date != "" {
		params.Set("date", q.Date)
	}
	if q.Last24h {
		params.Set("last24h", "true")
	}
	path := "/logs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var entries []Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetLog returns one log.
func (c *Client) GetLog(ctx context.Context, id string) (*Entry, error) {
	var entry Entry
	if err := c.do(ctx, http.MethodGet, "/logs/"+url.PathEscape(id), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateLog records a log.
func (c *Client) CreateLog(ctx context.Context, in NewLog) (*Entry, error) {
	var entry Entry
	if err := c.do(ctx, http.MethodPost, "/logs", in, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateLog sends a partial update of loggedAt and/or note.
func (c *Client) UpdateLog(ctx context.Context, id string, fields map[string]interface{}) (*Entry, error) {
	var entry Entry
	if err := c.do(ctx, http.MethodPut, "/logs/"+url.PathEscape(id), fields, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteLog removes a log.
func (c *Client) DeleteLog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/logs/"+url.PathEscape(id), nil, nil)
}

// Stats returns today's total and the current streak.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.do(ctx, http.MethodGet, "/logs/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Calendar returns the server-side month summary. month is 0-indexed.
func (c *Client) Calendar(ctx context.Context, year, month int, actionID string) (*Calendar, error) {
	params := url.Values{}
	params.Set("year", fmt.Sprint(year))
	params.Set("month", fmt.Sprint(month))
	if actionID != "" {
		params.Set("actionId", actionID)
	}

	var cal Calendar
	if err := c.do(ctx, http.MethodGet, "/logs/calendar?"+params.Encode(), nil, &cal); err != nil {
		return nil, err
	}
	return &cal, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.CurrentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
