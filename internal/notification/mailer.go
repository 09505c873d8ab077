// Package notification delivers welcome messages to freshly provisioned
// accounts. Delivery is best-effort: a failed send is logged and never
// rolls back the entity that triggered it.
package notification

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"gopkg.in/gomail.v2"
)

// Mailer sends a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody string) error
}

// SMTPMailer delivers over SMTP with gomail. Disabled configuration
// yields a mailer that logs and drops every message.
type SMTPMailer struct {
	cfg    internal.MailConfig
	logger *slog.Logger
}

func NewSMTPMailer(cfg internal.MailConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return internal.NewValidationFieldError("to", "recipient is required", internal.ErrCodeValidationFailed)
	}

	if !m.cfg.Enabled {
		m.logger.Info("mail disabled, dropping message", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
