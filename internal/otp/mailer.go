// AngelaMos | 2026
// mailer.go

package otp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/carterperez-dev/admin-console/internal/config"
)

type Message struct {
	To   string
	Code string
	TTL  time.Duration
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers codes over SMTP.
type SMTPSender struct {
	dialer  dialer
	from    string
	subject string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		subject: cfg.Subject,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := s.compose(msg)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPSender) compose(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", fmt.Sprintf(
		"Your one-time code is %s. It is valid for %d minutes.",
		msg.Code,
		int(msg.TTL.Minutes()),
	))
	m.AddAlternative("text/html", fmt.Sprintf(
		`<div style="font-family:sans-serif;"><h2>Your OTP is: %s</h2><p>This OTP is valid for %d minutes.</p></div>`,
		msg.Code,
		int(msg.TTL.Minutes()),
	))
	return m
}

// LogSender writes codes to the log instead of sending them. For local
// development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.DebugContext(ctx, "otp issued",
		"to", msg.To,
		"code", msg.Code,
		"ttl", msg.TTL.String(),
	)
	return nil
}

// NewSender picks SMTP when a host is configured.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) Sender {
	if cfg.Host == "" {
		logger.Warn("smtp host not configured, otp codes will only be logged")
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}
