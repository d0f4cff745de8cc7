package service

import (
	"context"
	"fmt"
	"log/slog"

	"reviewhub/internal/config"

	"github.com/wneessen/go-mail"
)

// Mailer delivers a plain text message. Transport errors are returned, never retried.
type Mailer interface {
	Send(ctx context.Context, subject, body, from string, to []string) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, subject, body, from string, to []string) error {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Development only.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, subject, body, from string, to []string) error {
	m.logger.InfoContext(ctx, "mail_logged",
		"subject", subject,
		"from", from,
		"to", to,
		"body", body,
	)
	return nil
}

// NewMailer picks the mail backend named by MAIL_BACKEND.
func NewMailer(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.MailBackend == "smtp" {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}
