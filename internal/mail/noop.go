package mail

import (
	"context"

	"go.uber.org/zap"
)

type noopMailer struct {
	logger *zap.Logger
}

// NewNoopMailer returns a Mailer that only logs. It is used when no mailer
// type is configured, so that mail sending never becomes a hard dependency.
func NewNoopMailer(logger *zap.Logger) Mailer {
	return &noopMailer{logger: logger}
}

func (m *noopMailer) Send(_ context.Context, mail Mail) error {
	if mail.renderErr != nil {
		return mail.renderErr
	}
	m.logger.Info("mailer not configured, discarding mail",
		zap.String("subject", mail.Subject), zap.Int("recipients", len(mail.To)))
	return nil
}
