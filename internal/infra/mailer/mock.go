package mailer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yanqian/daily-briefing/internal/domain/briefing"
)

// MockMailer records messages and logs them instead of sending.
type MockMailer struct {
	mu     sync.Mutex
	sent   []briefing.Email
	logger *slog.Logger
}

// NewMockMailer constructs a mailer for dry runs and tests.
func NewMockMailer(logger *slog.Logger) *MockMailer {
	return &MockMailer{logger: logger.With("component", "mailer.mock")}
}

// Send records msg.
func (m *MockMailer) Send(_ context.Context, msg briefing.Email) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.logger.Info("email not sent (mock mode)", "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockMailer) Sent() []briefing.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]briefing.Email(nil), m.sent...)
}
