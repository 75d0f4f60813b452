package testkit

import (
	"context"
	"sync"

	"github.com/farmchain/farmchain/pkg/mail"
	"github.com/stretchr/testify/mock"
)

// MockMailer is a testify mock of mail.Mailer that also keeps every
// message it was given. By default Send succeeds.
type MockMailer struct {
	mock.Mock

	mu   sync.Mutex
	sent []mail.Message
}

func NewMockMailer() *MockMailer {
	m := &MockMailer{}
	m.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return m.Called(ctx, msg).Error(0)
}

// Sent returns a copy of the delivered messages.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
