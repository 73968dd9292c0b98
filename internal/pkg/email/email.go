package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EmailService defines the interface for sending emails
type EmailService interface {
	// SendText sends a plain-text message with an HTML rendering of the same text.
	SendText(ctx context.Context, to, subject, text string) error
}

// Sender delivers a composed message. gomail's dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	sender    Sender
	backoff   func(attempt int) time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	var sender Sender
	if cfg.Host != "" {
		sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return newEmailService(cfg, sender)
}

func newEmailService(cfg config.SMTPConfig, sender Sender) (*emailServiceImpl, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		sender:    sender,
		// exponential backoff: 1s, 2s, 4s
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * time.Second
		},
	}, nil
}

type notificationEmailData struct {
	Subject    string
	Paragraphs []string
	FromName   string
}

// SendText implements EmailService.
func (s *emailServiceImpl) SendText(ctx context.Context, to, subject, text string) error {
	data := notificationEmailData{
		Subject:    subject,
		Paragraphs: strings.Split(strings.TrimSpace(text), "\n"),
		FromName:   s.cfg.FromName,
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "notification.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", body.String())

	return s.send(ctx, to, subject, m)
}

func (s *emailServiceImpl) send(ctx context.Context, to, subject string, m *gomail.Message) error {
	// Skip sending if SMTP is not configured
	if s.sender == nil {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.sender.DialAndSend(m)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		if attempt < maxRetries {
			select {
			case <-time.After(s.backoff(attempt)):
			case <-ctx.Done():
				return fmt.Errorf("email send cancelled after %d attempts: %w", attempt, ctx.Err())
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
