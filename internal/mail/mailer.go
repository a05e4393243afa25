package mail

import (
	"context"

	"go.uber.org/zap"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Used when no
// delivery provider is configured.
type LogMailer struct {
	logger *zap.Logger
	from   string
}

// NewLogMailer returns a LogMailer.
func NewLogMailer(logger *zap.Logger, from string) *LogMailer {
	return &LogMailer{logger: logger, from: from}
}

// Send logs the envelope. The body can carry a live reset link, so it only
// goes out at debug level.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email",
		zap.String("from", m.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	m.logger.Debug("email body",
		zap.String("to", msg.To),
		zap.String("text", msg.Text))
	return nil
}
