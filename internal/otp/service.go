// AngelaMos | 2026
// service.go

package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/admin-console/internal/core"
)

var ErrInvalidOTP = core.NewAppError(
	core.ErrUnauthorized,
	"Invalid or Expired OTP!",
	http.StatusUnauthorized,
	core.CodeAuthentication,
)

type Config struct {
	TTL    time.Duration
	Digits int
}

type Service struct {
	repo   Repository
	sender Sender
	cfg    Config
	now    func() time.Time
	tracer trace.Tracer
	logger *slog.Logger
}

func NewService(repo Repository, sender Sender, cfg Config) *Service {
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}

	return &Service{
		repo:   repo,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
		tracer: core.Tracer("otp"),
		logger: slog.Default(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithTracer(tracer trace.Tracer) *Service {
	s.tracer = tracer
	return s
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue replaces any outstanding code for email with a fresh one and sends
// it. A code that could not be delivered is withdrawn.
func (s *Service) Issue(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "otp.issue")
	defer span.End()

	email = NormalizeEmail(email)

	code, err := core.GenerateNumericCode(s.cfg.Digits)
	if err != nil {
		return err
	}

	now := s.now()
	rec := &Record{
		Email:     email,
		CodeHash:  core.HashToken(code),
		ExpiresAt: now.Add(s.cfg.TTL).UTC(),
		CreatedAt: now.UTC(),
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, Message{
		To:   email,
		Code: code,
		TTL:  s.cfg.TTL,
	}); err != nil {
		core.SetSpanError(ctx, err)
		if delErr := s.repo.Delete(ctx, email); delErr != nil {
			s.logger.Warn("failed to withdraw undelivered otp",
				"error", delErr,
			)
		} else {
			core.AddSpanEvent(ctx, "otp.withdrawn")
		}
		return fmt.Errorf("send otp: %w", err)
	}

	core.AddSpanEvent(ctx, "otp.sent", attribute.Int("digits", s.cfg.Digits))
	return nil
}

// Peek reports whether code is currently valid for email without using
// it up.
func (s *Service) Peek(ctx context.Context, email, code string) error {
	rec, err := s.repo.Get(ctx, NormalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}

	if !s.now().Before(rec.ExpiresAt) {
		return ErrInvalidOTP
	}

	if !core.CompareTokenHash(code, rec.CodeHash) {
		return ErrInvalidOTP
	}

	return nil
}

// ConsumeAndVerify checks and deletes the code in one step. A code can be
// consumed at most once.
func (s *Service) ConsumeAndVerify(ctx context.Context, email, code string) error {
	if code == "" {
		return ErrInvalidOTP
	}

	err := s.repo.Consume(
		ctx,
		NormalizeEmail(email),
		core.HashToken(code),
		s.now().UTC(),
	)
	if errors.Is(err, core.ErrNotFound) {
		return ErrInvalidOTP
	}

	return err
}
