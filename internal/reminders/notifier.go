package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jimdaga/frequency/internal/config"
	"gopkg.in/gomail.v2"
)

// Reminder is what a notifier tells the user.
type Reminder struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ActionID     string `json:"action_id"`
	ActionName   string `json:"action_name"`
	ReminderTime string `json:"reminder_time"`
	AppURL       string `json:"app_url"`
}

// Notifier delivers a reminder over one channel.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// NewNotifier builds the channels configured in cfg, falling back to logging
// when none are.
func NewNotifier(cfg *config.Config, logger *slog.Logger) Notifier {
	var channels []Notifier
	if cfg.SMTPHost != "" {
		channels = append(channels, NewEmailNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPSender))
	}
	if cfg.ReminderWebhookURL != "" {
		channels = append(channels, NewWebhookNotifier(cfg.ReminderWebhookURL, cfg.ReminderWebhookSecret))
	}
	if len(channels) == 0 {
		logger.Warn("No reminder channel configured, reminders will only be logged")
		return LogNotifier{logger: logger}
	}
	if len(channels) == 1 {
		return channels[0]
	}
	return multiNotifier{channels: channels, logger: logger}
}

// multiNotifier fans out to every channel. It fails only when no channel
// delivered, so a retry never repeats a reminder the user already received.
type multiNotifier struct {
	channels []Notifier
	logger   *slog.Logger
}

func (m multiNotifier) Notify(ctx context.Context, r Reminder) error {
	var errs []error
	for _, n := range m.channels {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(m.channels) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		m.logger.Warn("Reminder channel failed", "action_id", r.ActionID, "user_id", r.UserID, "error", err)
	}
	return nil
}

// LogNotifier only logs reminders.
type LogNotifier struct {
	logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, r Reminder) error {
	n.logger.Info("Reminder due", "user_id", r.UserID, "action_id", r.ActionID, "action", r.ActionName, "time", r.ReminderTime)
	return nil
}

// EmailNotifier sends reminders over SMTP.
type EmailNotifier struct {
	sender string
	send   func(m ...*gomail.Message) error
}

// NewEmailNotifier creates an EmailNotifier using an SMTP dialer.
func NewEmailNotifier(host string, port int, username, password, sender string) *EmailNotifier {
	dialer := gomail.NewDialer(host, port, username, password)
	if sender == "" {
		sender = username
	}
	return &EmailNotifier{sender: sender, send: dialer.DialAndSend}
}

func (n *EmailNotifier) Notify(ctx context.Context, r Reminder) error {
	if err := n.send(n.message(r)); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) message(r Reminder) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.sender)
	m.SetAddressHeader("To", r.Email, r.Name)
	m.SetHeader("Subject", "Reminder: "+r.ActionName)

	body := fmt.Sprintf("Hi %s,\n\nIt's %s. Time for %q.\n", r.Name, r.ReminderTime, r.ActionName)
	if r.AppURL != "" {
		body += "\nLog it: " + r.AppURL + "/dashboard\n"
	}
	m.SetBody("text/plain", body)
	return m
}

// WebhookNotifier POSTs reminders as JSON to an external endpoint
type WebhookNotifier struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewWebhookNotifier creates a new webhook notifier with the given configuration
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, r Reminder) error {
	jsonData, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-Reminder-Secret", n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
