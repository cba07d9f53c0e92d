package mail

import (
	"context"
	"errors"
	"net/mail"

	"go.uber.org/zap"
)

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("mail: message has no recipient")

// Message is a single outbound email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a sender suitable for local development.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message envelope and body.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.To.Address == "" {
		return ErrNoRecipient
	}
	s.logger.Info("mail not delivered, no provider configured",
		zap.String("to", msg.To.Address),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}
