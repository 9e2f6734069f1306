package mailer

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP relay is configured. Bodies carry verification codes, so they are left
// out unless WithBodyLogging is set.
type LogMailer struct {
	logger  zerolog.Logger
	logBody bool
}

type LogMailerOption func(*LogMailer)

// WithBodyLogging includes the message body in the log entry. Development only.
func WithBodyLogging() LogMailerOption {
	return func(m *LogMailer) {
		m.logBody = true
	}
}

func WithLogger(logger zerolog.Logger) LogMailerOption {
	return func(m *LogMailer) {
		m.logger = logger
	}
}

func NewLogMailer(options ...LogMailerOption) *LogMailer {
	m := &LogMailer{logger: log.With().Str("component", "mailer").Logger()}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	event := m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject)
	if m.logBody {
		event = event.Str("body", msg.Body)
	}
	event.Msg("email not sent, no SMTP relay configured")
	return nil
}
