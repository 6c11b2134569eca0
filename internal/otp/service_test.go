// AngelaMos | 2026
// service_test.go

package otp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gopkg.in/gomail.v2"

	"github.com/carterperez-dev/admin-console/internal/config"
	"github.com/carterperez-dev/admin-console/internal/core"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string]Record
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]Record)}
}

func (r *memRepo) Upsert(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Email] = *rec
	return nil
}

func (r *memRepo) Get(ctx context.Context, email string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[email]
	if !ok {
		return nil, fmt.Errorf("get otp: %w", core.ErrNotFound)
	}
	return &rec, nil
}

func (r *memRepo) Consume(ctx context.Context, email, codeHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[email]
	if !ok || rec.CodeHash != codeHash || !rec.ExpiresAt.After(now) {
		return fmt.Errorf("consume otp: %w", core.ErrNotFound)
	}
	delete(r.records, email)
	return nil
}

func (r *memRepo) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, email)
	return nil
}

type captureSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *captureSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) last(t *testing.T) Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService() (*Service, *memRepo, *captureSender, *clock) {
	repo := newMemRepo()
	sender := &captureSender{}
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, sender, Config{TTL: 10 * time.Minute, Digits: 6}).
		WithClock(clk.Now)
	return svc, repo, sender, clk
}

func TestIssueStoresHashAndSendsCode(t *testing.T) {
	svc, repo, sender, clk := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "  Alice@Example.com "))

	msg := sender.last(t)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Len(t, msg.Code, 6)
	assert.Equal(t, 10*time.Minute, msg.TTL)

	rec, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, msg.Code, rec.CodeHash)
	assert.Equal(t, core.HashToken(msg.Code), rec.CodeHash)
	assert.Equal(t, clk.now.Add(10*time.Minute), rec.ExpiresAt)
}

func TestIssueReplacesPreviousCode(t *testing.T) {
	svc, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "bob@example.com"))
	first := sender.last(t).Code
	require.NoError(t, svc.Issue(ctx, "bob@example.com"))
	second := sender.last(t).Code

	if first != second {
		assert.ErrorIs(t, svc.ConsumeAndVerify(ctx, "bob@example.com", first), ErrInvalidOTP)
	}
	assert.NoError(t, svc.ConsumeAndVerify(ctx, "bob@example.com", second))
}

func TestIssueWithdrawsUndeliveredCode(t *testing.T) {
	svc, repo, sender, _ := newTestService()
	sender.err = errors.New("smtp down")

	err := svc.Issue(context.Background(), "carol@example.com")
	require.Error(t, err)

	_, err = repo.Get(context.Background(), "carol@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func issueSpanEvents(span sdktrace.ReadOnlySpan) []string {
	names := make([]string, 0, len(span.Events()))
	for _, ev := range span.Events() {
		names = append(names, ev.Name)
	}
	return names
}

func TestIssueTracesDeliveryOutcome(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc, _, sender, _ := newTestService()
	svc.WithTracer(tp.Tracer("otp-test"))

	require.NoError(t, svc.Issue(context.Background(), "dave@example.com"))

	sender.err = errors.New("smtp down")
	require.Error(t, svc.Issue(context.Background(), "dave@example.com"))

	ended := sr.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "otp.issue", ended[0].Name())
	assert.Equal(t, []string{"otp.sent"}, issueSpanEvents(ended[0]))
	assert.Equal(t, codes.Unset, ended[0].Status().Code)

	assert.Equal(t, []string{"exception", "otp.withdrawn"}, issueSpanEvents(ended[1]))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "smtp down", ended[1].Status().Description)
}

func TestPeekDoesNotConsume(t *testing.T) {
	svc, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "dave@example.com"))
	code := sender.last(t).Code

	require.NoError(t, svc.Peek(ctx, "dave@example.com", code))
	require.NoError(t, svc.Peek(ctx, "DAVE@example.com", code))
	assert.NoError(t, svc.ConsumeAndVerify(ctx, "dave@example.com", code))
}

func TestPeekRejectsWrongOrMissing(t *testing.T) {
	svc, _, sender, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Peek(ctx, "nobody@example.com", "123456"), ErrInvalidOTP)

	require.NoError(t, svc.Issue(ctx, "erin@example.com"))
	code := sender.last(t).Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, svc.Peek(ctx, "erin@example.com", wrong), ErrInvalidOTP)
}

func TestConsumeIsSingleUse(t *testing.T) {
	svc, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "frank@example.com"))
	code := sender.last(t).Code

	require.NoError(t, svc.ConsumeAndVerify(ctx, "frank@example.com", code))
	assert.ErrorIs(t, svc.ConsumeAndVerify(ctx, "frank@example.com", code), ErrInvalidOTP)
}

func TestExpiredCodeFailsEvenWhenMatching(t *testing.T) {
	svc, _, sender, clk := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "gina@example.com"))
	code := sender.last(t).Code

	clk.now = clk.now.Add(10 * time.Minute)

	assert.ErrorIs(t, svc.Peek(ctx, "gina@example.com", code), ErrInvalidOTP)
	assert.ErrorIs(t, svc.ConsumeAndVerify(ctx, "gina@example.com", code), ErrInvalidOTP)
}

func TestConsumeEmptyCode(t *testing.T) {
	svc, _, _, _ := newTestService()
	assert.ErrorIs(t, svc.ConsumeAndVerify(context.Background(), "x@example.com", ""), ErrInvalidOTP)
}

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return d.err
}

func TestSMTPSenderComposesMessage(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d, from: "noreply@example.com", subject: "Your code"}

	err := s.Send(context.Background(), Message{
		To:   "hank@example.com",
		Code: "424242",
		TTL:  10 * time.Minute,
	})
	require.NoError(t, err)
	require.Len(t, d.messages, 1)

	m := d.messages[0]
	assert.Equal(t, []string{"hank@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Your code"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "424242")
	assert.Contains(t, buf.String(), "10 minutes")
}

func TestSMTPSenderPropagatesFailure(t *testing.T) {
	s := &SMTPSender{dialer: &fakeDialer{err: errors.New("refused")}}

	err := s.Send(context.Background(), Message{To: "x@example.com", Code: "1"})
	assert.ErrorContains(t, err, "refused")
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sender := NewSender(config.SMTPConfig{}, logger)
	require.IsType(t, &LogSender{}, sender)

	require.NoError(t, sender.Send(context.Background(), Message{To: "i@example.com", Code: "987654"}))
	assert.Contains(t, buf.String(), "987654")
}
