package adapters

import (
	"context"

	"parcel-tracker/internal/core/logger"

	"go.uber.org/zap"
)

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, html string) error {
	logger.Get().Info("Email not sent, log provider active",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("bytes", len(html)),
	)
	return nil
}
