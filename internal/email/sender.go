package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"rentease/pkg/config"
	"rentease/pkg/logger"
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.MailFromAddr,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to string, subject string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender is the fallback when no SMTP relay is configured. It logs the
// mail instead of delivering it, which keeps local development working.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to string, subject string, body string) error {
	s.log.Info("Email delivery skipped, no SMTP relay configured",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// NewSender picks the SMTP sender when a relay is configured and falls back
// to logging otherwise.
func NewSender(cfg *config.Config) Sender {
	if cfg.SMTPHost != "" {
		return NewSMTPSender(cfg)
	}
	return NewLogSender(cfg.Log)
}
