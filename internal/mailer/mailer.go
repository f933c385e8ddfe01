// Package mailer delivers transactional mail for the auth flows. Failures
// surface to the caller; nothing here retries.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"campusgate/internal/platform/config"
)

// Mailer sends a single message. Implementations are selected by config.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes the message to the structured log instead of sending it.
// This is the development default.
type LogMailer struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) LogMailer {
	return LogMailer{logger: logger}
}

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "outbound mail (log sender)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// SMTPMailer delivers over plain SMTP.
type SMTPMailer struct {
	host string
	port int
	from string
}

// New selects a mailer from config.
func New(cfg config.MailConfig, logger *slog.Logger) Mailer {
	switch cfg.Sender {
	case "smtp":
		return SMTPMailer{host: cfg.SMTPHost, port: cfg.SMTPPort, from: cfg.From}
	default:
		return NewLog(logger)
	}
}

func (m SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	_ = ctx
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	msg := "Subject: " + subject + "\r\n\r\n" + body + "\r\n"
	return smtp.SendMail(addr, nil, m.from, []string{to}, []byte(msg))
}
