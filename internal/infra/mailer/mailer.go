package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Addr     string
	From     string
	Username string
	Password string
}

// SMTPMailer sends plain-text mail over SMTP. Callers treat delivery as best
// effort; it has no retry of its own.
type SMTPMailer struct {
	cfg  Config
	auth smtp.Auth
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("smtp addr is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		host := cfg.Addr
		if idx := strings.LastIndex(host, ":"); idx >= 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}

	return &SMTPMailer{cfg: cfg, auth: auth}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.cfg.Addr, m.auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
