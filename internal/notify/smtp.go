package notify

import (
	"context"
	"net"
	"net/smtp"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	// From is the envelope sender; defaults to User when empty.
	From string
}

type SMTP struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	var auth smtp.Auth
	if cfg.User != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTP{cfg: cfg, auth: auth}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	msg := buildMessage(s.cfg.From, to, subject, body, time.Now())
	// smtp.SendMail negotiates STARTTLS when the server offers it.
	return smtp.SendMail(addr, s.auth, s.cfg.From, []string{to}, msg)
}

func buildMessage(from, to, subject, body string, at time.Time) []byte {
	lines := []string{
		"From: " + sanitizeHeader(from),
		"To: " + sanitizeHeader(to),
		"Subject: " + sanitizeHeader(subject),
		"Date: " + at.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}
	return []byte(strings.Join(lines, "\r\n"))
}

// sanitizeHeader strips CR/LF so caller-supplied strings cannot inject headers.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
