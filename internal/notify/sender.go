// Package notify delivers out-of-band messages to users, currently the
// password reset code email.
package notify

import (
	"context"

	"jarvis/internal/logging"
)

// Sender delivers an HTML message to one recipient
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LogSender records messages in the log instead of sending them. It is used
// when no mail server is configured.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the recipient and subject. The body is not logged since it
// carries the reset code.
func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.logger.WithFields(map[string]interface{}{
		"to":         to,
		"subject":    subject,
		"body_bytes": len(htmlBody),
	}).Warn("mail disabled, message not delivered")
	return nil
}
